package bridge

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
)

// Stats summarizes a bridge session.
type Stats struct {
	StereoFrames    uint64
	DepthFrames     uint64
	DecodeFailures  uint64
	QueueDropped    uint64
	QueueLen        int
	Published       uint64
	SkippedArtifact uint64
	TimeHorizonSize int
	// ImuRateHz is derived from the median sample interval; zero until two samples arrive.
	ImuRateHz float64
	// ImuJitter is the standard deviation of the sample interval in seconds.
	ImuJitter float64
}

// Stats returns a snapshot of the session counters.
func (b *Bridge) Stats() Stats {
	s := Stats{
		StereoFrames:    b.frameID.Load(),
		DepthFrames:     b.depthFrameID.Load(),
		DecodeFailures:  b.decodeFailures.Load(),
		QueueDropped:    b.output.Dropped(),
		QueueLen:        b.output.Len(),
		Published:       b.publisher.Published(),
		SkippedArtifact: b.publisher.Skipped(),
		TimeHorizonSize: b.publisher.TimeHorizonSize(),
	}

	b.imuMu.Lock()
	intervals := append([]float64(nil), b.imuIntervals...)
	b.imuMu.Unlock()
	if median, err := stats.Median(intervals); err == nil && median > 0 {
		s.ImuRateHz = 1 / median
	}
	if sd, err := stats.StandardDeviation(intervals); err == nil {
		s.ImuJitter = sd
	}
	return s
}

// String renders the stats as a table.
func (s Stats) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Counter", "Value"})
	t.AppendRows([]table.Row{
		{"stereo frames", s.StereoFrames},
		{"depth frames", s.DepthFrames},
		{"decode failures", s.DecodeFailures},
		{"queue dropped", s.QueueDropped},
		{"queue pending", s.QueueLen},
		{"packets published", s.Published},
		{"artifacts skipped", s.SkippedArtifact},
		{"time horizon landmarks", s.TimeHorizonSize},
		{"imu rate (Hz)", fmt.Sprintf("%.1f", s.ImuRateHz)},
		{"imu jitter (s)", fmt.Sprintf("%.6f", s.ImuJitter)},
	})
	return t.Render()
}
