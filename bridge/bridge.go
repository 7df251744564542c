// Package bridge connects sensor streams to the estimation pipeline and the
// pipeline's keyframe output to the publisher.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/mfkiwl/Kimera-VIO-ROS/calibration"
	"github.com/mfkiwl/Kimera-VIO-ROS/logging"
	"github.com/mfkiwl/Kimera-VIO-ROS/publish"
	"github.com/mfkiwl/Kimera-VIO-ROS/queue"
	"github.com/mfkiwl/Kimera-VIO-ROS/rimage"
	"github.com/mfkiwl/Kimera-VIO-ROS/utils"
	"github.com/mfkiwl/Kimera-VIO-ROS/vio"
)

// imuHistory is how many IMU intervals the rate statistics look at.
const imuHistory = 1000

// Bridge owns the calibration, the output queue and the publisher of one session.
type Bridge struct {
	cfg        Config
	provider   DataProvider
	pipeline   vio.Pipeline
	calib      *calibration.Store
	output     *queue.ThreadsafeQueue[*vio.KeyframeOutputPacket]
	publisher  *publish.Publisher
	popTimeout time.Duration
	logger     logging.Logger

	workersMu sync.Mutex
	workers   utils.StoppableWorkers
	closeOnce sync.Once

	frameID        atomic.Uint64
	depthFrameID   atomic.Uint64
	decodeFailures atomic.Uint64
	dropLog        rate.Sometimes

	imuMu        sync.Mutex
	lastImuStamp int64
	imuIntervals []float64
}

// New parses the calibration through provider and wires the pipeline's output
// to the publisher. It fails, with nothing registered, if the calibration is
// invalid.
func New(cfg Config, provider DataProvider, pipeline vio.Pipeline, logger logging.Logger) (*Bridge, error) {
	if err := cfg.Validate(ConfigSection); err != nil {
		return nil, err
	}
	calib, err := provider.ParseCalibration()
	if err != nil {
		return nil, errors.Wrap(err, "cannot start bridge")
	}
	popTimeout, err := cfg.popTimeout()
	if err != nil {
		return nil, err
	}
	output, err := queue.NewThreadsafeQueue[*vio.KeyframeOutputPacket]("keyframe_output", cfg.QueueCapacity)
	if err != nil {
		return nil, err
	}
	publisher, err := publish.NewPublisher(cfg.publisherConfig(), provider.Transport(), logger.Sublogger("publisher"))
	if err != nil {
		return nil, err
	}

	b := &Bridge{
		cfg:        cfg,
		provider:   provider,
		pipeline:   pipeline,
		calib:      calib,
		output:     output,
		publisher:  publisher,
		popTimeout: popTimeout,
		logger:     logger,
		dropLog:    rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}
	pipeline.RegisterOutputCallback(b.CallbackKeyframeRateVioOutput)
	logger.Infow("bridge initialized",
		"baseline", calib.Stereo().Baseline(),
		"imu_rate_hz", calib.ImuData().NominalRate,
		"queue_capacity", cfg.QueueCapacity)
	return b, nil
}

// Calibration returns the session calibration.
func (b *Bridge) Calibration() *calibration.Store {
	return b.calib
}

// Start launches the publishing goroutine.
func (b *Bridge) Start() {
	b.workersMu.Lock()
	defer b.workersMu.Unlock()
	if b.workers != nil {
		return
	}
	b.workers = utils.NewStoppableWorkers(func(ctx context.Context) {
		b.publisher.Run(ctx, b.output, b.popTimeout)
	})
}

// Run delivers the provider's sensor messages to the bridge callbacks until the
// provider is exhausted or ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	return b.provider.Run(ctx, b)
}

// Drain waits until every queued packet has been handed to the publisher, or ctx is done.
func (b *Bridge) Drain(ctx context.Context) error {
	ticker := time.NewTicker(b.popTimeout)
	defer ticker.Stop()
	for b.output.Len() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// CallbackStereoImages decodes a stereo pair and feeds it to the pipeline. A pair
// that fails to decode or does not match the calibrated resolution is dropped.
func (b *Bridge) CallbackStereoImages(left, right rimage.RawImage) {
	stereo := b.calib.Stereo()
	leftImg, err := b.decodeChecked(left, stereo.Left)
	if err != nil {
		b.dropMessage("left image", left, err)
		return
	}
	rightImg, err := b.decodeChecked(right, stereo.Right)
	if err != nil {
		b.dropMessage("right image", right, err)
		return
	}
	b.pipeline.FillStereoFrame(&vio.StereoFrame{
		ID:        b.frameID.Inc() - 1,
		Timestamp: left.Stamp,
		Left:      leftImg,
		Right:     rightImg,
	})
}

func (b *Bridge) decodeChecked(raw rimage.RawImage, cam calibration.CameraParams) (*rimage.Image, error) {
	if err := cam.CheckImageSize(raw.Width, raw.Height); err != nil {
		return nil, err
	}
	return b.provider.Decode(raw)
}

// CallbackDepthImage decodes a depth image and feeds it to the pipeline.
func (b *Bridge) CallbackDepthImage(raw rimage.RawImage) {
	if err := b.calib.Stereo().Left.CheckImageSize(raw.Width, raw.Height); err != nil {
		b.dropMessage("depth image", raw, err)
		return
	}
	depth, err := b.provider.DecodeDepth(raw)
	if err != nil {
		b.dropMessage("depth image", raw, err)
		return
	}
	b.pipeline.FillDepthFrame(&vio.DepthFrame{
		ID:        b.depthFrameID.Inc() - 1,
		Timestamp: raw.Stamp,
		Depth:     depth,
	})
}

// CallbackImu applies the calibrated time shift and feeds the sample to the pipeline.
func (b *Bridge) CallbackImu(measurement vio.ImuMeasurement) {
	shift := time.Duration(b.calib.ImuParams().TimeShift * float64(time.Second))
	measurement.Timestamp += shift.Nanoseconds()
	b.recordImuStamp(measurement.Timestamp)
	b.pipeline.FillImu(measurement)
}

// CallbackKeyframeRateVioOutput hands a finished packet to the publisher without
// blocking. A full queue drops the packet; drops are counted and logged.
func (b *Bridge) CallbackKeyframeRateVioOutput(packet *vio.KeyframeOutputPacket) {
	if packet == nil {
		b.logger.Warnw("ignoring nil keyframe output")
		return
	}
	if b.output.Push(packet) {
		return
	}
	if err := b.output.Err(); err != nil {
		b.logger.Debugw("discarding keyframe output", "stamp", packet.Timestamp, "error", err)
		return
	}
	b.dropLog.Do(func() {
		b.logger.Warnw("output queue full, dropping keyframe output",
			"stamp", packet.Timestamp, "dropped_total", b.output.Dropped())
	})
}

func (b *Bridge) dropMessage(what string, raw rimage.RawImage, err error) {
	b.decodeFailures.Inc()
	switch {
	case rimage.IsUnsupportedEncoding(err):
		b.logger.Warnw("dropping "+what, "stamp", raw.Stamp, "encoding", raw.Encoding, "error", err)
	case calibration.IsCalibrationError(err):
		b.logger.Errorw("dropping "+what+" that contradicts calibration", "stamp", raw.Stamp, "error", err)
	default:
		b.logger.Warnw("dropping "+what, "stamp", raw.Stamp, "error", err)
	}
}

func (b *Bridge) recordImuStamp(stamp int64) {
	b.imuMu.Lock()
	defer b.imuMu.Unlock()
	if b.lastImuStamp != 0 && stamp > b.lastImuStamp {
		dt := time.Duration(stamp - b.lastImuStamp).Seconds()
		if len(b.imuIntervals) == imuHistory {
			copy(b.imuIntervals, b.imuIntervals[1:])
			b.imuIntervals = b.imuIntervals[:imuHistory-1]
		}
		b.imuIntervals = append(b.imuIntervals, dt)
	}
	b.lastImuStamp = stamp
}

// Close shuts the queue so the publisher stops within one pop timeout, waits
// for it, then closes the pipeline and provider.
func (b *Bridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.output.Shutdown()
		b.workersMu.Lock()
		if b.workers != nil {
			b.workers.Stop()
		}
		b.workersMu.Unlock()
		err = multierr.Combine(b.pipeline.Close(), b.provider.Close())
		b.logger.Infow("bridge closed", "published", b.publisher.Published(), "dropped", b.output.Dropped())
	})
	return err
}
