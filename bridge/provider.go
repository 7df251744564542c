package bridge

import (
	"context"

	"github.com/mfkiwl/Kimera-VIO-ROS/calibration"
	"github.com/mfkiwl/Kimera-VIO-ROS/logging"
	"github.com/mfkiwl/Kimera-VIO-ROS/publish"
	"github.com/mfkiwl/Kimera-VIO-ROS/rimage"
	"github.com/mfkiwl/Kimera-VIO-ROS/vio"
)

// SensorSink receives raw sensor messages. Bridge implements it.
type SensorSink interface {
	CallbackStereoImages(left, right rimage.RawImage)
	CallbackDepthImage(depth rimage.RawImage)
	CallbackImu(measurement vio.ImuMeasurement)
}

// A DataProvider is one sensor-rig variant: where calibration comes from, how
// its images are decoded and where artifacts are published.
type DataProvider interface {
	// ParseCalibration is called once, before any sensor message is delivered.
	ParseCalibration() (*calibration.Store, error)
	Decode(raw rimage.RawImage) (*rimage.Image, error)
	DecodeDepth(raw rimage.RawImage) (*rimage.DepthMap, error)
	// Transport is where the publisher emits artifacts.
	Transport() publish.Transport
	// Run delivers sensor messages to sink until the source is exhausted or ctx is done.
	Run(ctx context.Context, sink SensorSink) error
	Close() error
}

// imageDecoder is the decoding shared by the providers.
type imageDecoder struct {
	depthScale float64
}

func (d imageDecoder) Decode(raw rimage.RawImage) (*rimage.Image, error) {
	return rimage.Decode(raw)
}

func (d imageDecoder) DecodeDepth(raw rimage.RawImage) (*rimage.DepthMap, error) {
	return rimage.DecodeDepthWithScale(raw, d.depthScale)
}

// OnlineProvider serves a live transport: the transport layer invokes the
// bridge callbacks itself, so Run only waits for cancellation.
type OnlineProvider struct {
	imageDecoder
	params    calibration.ParamSource
	transport publish.Transport
	logger    logging.Logger
}

// NewOnlineProvider returns a provider reading calibration from params and
// publishing through transport.
func NewOnlineProvider(
	params calibration.ParamSource,
	transport publish.Transport,
	depthScale float64,
	logger logging.Logger,
) *OnlineProvider {
	return &OnlineProvider{
		imageDecoder: imageDecoder{depthScale: depthScale},
		params:       params,
		transport:    transport,
		logger:       logger,
	}
}

// ParseCalibration parses the calibration from the parameter source.
func (p *OnlineProvider) ParseCalibration() (*calibration.Store, error) {
	return calibration.LoadStore(p.params, p.logger)
}

// Transport returns the live transport.
func (p *OnlineProvider) Transport() publish.Transport {
	return p.transport
}

// Run blocks until ctx is done.
func (p *OnlineProvider) Run(ctx context.Context, sink SensorSink) error {
	<-ctx.Done()
	return nil
}

// Close does nothing; the transport belongs to the caller.
func (p *OnlineProvider) Close() error {
	return nil
}
