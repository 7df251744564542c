package calibration

import (
	"fmt"

	"github.com/pkg/errors"
)

// CalibrationError reports missing or invalid calibration. It is fatal at startup: a bridge never
// runs on partial calibration.
type CalibrationError struct {
	// Field is the parameter path that failed, e.g. "left_camera.intrinsics".
	Field  string
	Reason string
	Err    error
}

func (e *CalibrationError) Error() string {
	msg := fmt.Sprintf("invalid calibration %q: %s", e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *CalibrationError) Unwrap() error {
	return e.Err
}

func newCalibrationError(field, format string, args ...interface{}) error {
	return &CalibrationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func wrapCalibrationError(err error, field, reason string) error {
	return &CalibrationError{Field: field, Reason: reason, Err: err}
}

// IsCalibrationError reports whether err is or wraps a CalibrationError.
func IsCalibrationError(err error) bool {
	var calibErr *CalibrationError
	return errors.As(err, &calibErr)
}
