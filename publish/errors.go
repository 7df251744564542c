package publish

import (
	"fmt"

	"github.com/pkg/errors"
)

// PartialPacketError means a packet lacked what one artifact needs. Only that
// artifact is skipped.
type PartialPacketError struct {
	Artifact string
	Reason   string
}

func (e *PartialPacketError) Error() string {
	return fmt.Sprintf("skipping %s: %s", e.Artifact, e.Reason)
}

func newPartialPacketError(artifact, format string, args ...interface{}) error {
	return &PartialPacketError{Artifact: artifact, Reason: fmt.Sprintf(format, args...)}
}

// IsPartialPacket reports whether err is or wraps a PartialPacketError.
func IsPartialPacket(err error) bool {
	var partial *PartialPacketError
	return errors.As(err, &partial)
}
