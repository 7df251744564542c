package bridge

import (
	"context"
	"sort"

	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/mfkiwl/Kimera-VIO-ROS/calibration"
	"github.com/mfkiwl/Kimera-VIO-ROS/logging"
	"github.com/mfkiwl/Kimera-VIO-ROS/publish"
	"github.com/mfkiwl/Kimera-VIO-ROS/ros"
)

// RosbagTopics names the bag topics to replay. Depth is optional.
type RosbagTopics struct {
	Left  string
	Right string
	Imu   string
	Depth string
}

// RosbagProvider replays sensor_msgs topics from a bag file in timestamp order.
type RosbagProvider struct {
	imageDecoder
	bagPath   string
	topics    RosbagTopics
	params    calibration.ParamSource
	transport publish.Transport
	logger    logging.Logger
}

// NewRosbagProvider returns a provider replaying bagPath.
func NewRosbagProvider(
	bagPath string,
	topics RosbagTopics,
	params calibration.ParamSource,
	transport publish.Transport,
	depthScale float64,
	logger logging.Logger,
) (*RosbagProvider, error) {
	if bagPath == "" {
		return nil, errors.New("rosbag provider needs a bag path")
	}
	if topics.Left == "" || topics.Right == "" || topics.Imu == "" {
		return nil, errors.New("rosbag provider needs left, right and imu topics")
	}
	return &RosbagProvider{
		imageDecoder: imageDecoder{depthScale: depthScale},
		bagPath:      bagPath,
		topics:       topics,
		params:       params,
		transport:    transport,
		logger:       logger,
	}, nil
}

// ParseCalibration parses the calibration from the parameter source.
func (p *RosbagProvider) ParseCalibration() (*calibration.Store, error) {
	return calibration.LoadStore(p.params, p.logger)
}

// Transport returns the transport artifacts are published through.
func (p *RosbagProvider) Transport() publish.Transport {
	return p.transport
}

// Close does nothing; the transport belongs to the caller.
func (p *RosbagProvider) Close() error {
	return nil
}

// Run reads the whole bag, then delivers its messages to sink in timestamp order.
func (p *RosbagProvider) Run(ctx context.Context, sink SensorSink) error {
	rb, err := ros.ReadBag(p.bagPath)
	if err != nil {
		return err
	}
	topics := []string{p.topics.Left, p.topics.Right, p.topics.Imu}
	if p.topics.Depth != "" {
		topics = append(topics, p.topics.Depth)
	}
	if err := ros.ParseTopics(rb, topics...); err != nil {
		return err
	}

	var left, right, depth []ros.ImageMessage
	var imu []ros.ImuMessage
	errs, _ := errgroup.WithContext(ctx)
	errs.Go(func() (err error) {
		left, err = decodeTopic[ros.ImageMessage](rb, p.topics.Left)
		return
	})
	errs.Go(func() (err error) {
		right, err = decodeTopic[ros.ImageMessage](rb, p.topics.Right)
		return
	})
	errs.Go(func() (err error) {
		imu, err = decodeTopic[ros.ImuMessage](rb, p.topics.Imu)
		return
	})
	if p.topics.Depth != "" {
		errs.Go(func() (err error) {
			depth, err = decodeTopic[ros.ImageMessage](rb, p.topics.Depth)
			return
		})
	}
	if err := errs.Wait(); err != nil {
		return err
	}

	events, unpaired := replayEvents(left, right, depth, imu)
	if unpaired > 0 {
		p.logger.Warnw("dropping stereo frames without a matching stamp", "count", unpaired)
	}
	p.logger.Infow("replaying bag", "path", p.bagPath, "events", len(events),
		"stereo", (len(left)+len(right)-unpaired)/2, "imu", len(imu), "depth", len(depth))

	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev.deliver(sink)
	}
	return nil
}

func decodeTopic[T any](rb *rosbag.RosBag, topic string) ([]T, error) {
	records, err := ros.MessagesForTopic(rb, topic)
	if err != nil {
		return nil, err
	}
	return ros.DecodeRecords[T](records)
}

// Events with equal stamps are delivered IMU first, so the pipeline has the
// inertial data up to a frame before the frame itself.
const (
	eventImu = iota
	eventDepth
	eventStereo
)

type sensorEvent struct {
	stamp   int64
	kind    int
	deliver func(sink SensorSink)
}

// replayEvents pairs left and right images by header stamp and merges every
// stream into one stamp-ordered sequence. It returns the events and how many
// images had no partner.
func replayEvents(left, right, depth []ros.ImageMessage, imu []ros.ImuMessage) ([]sensorEvent, int) {
	rights := make(map[int64]*ros.ImageMessage, len(right))
	for i := range right {
		rights[right[i].Data.Header.Stamp.Nanoseconds()] = &right[i]
	}

	events := make([]sensorEvent, 0, len(left)+len(depth)+len(imu))
	paired := 0
	for i := range left {
		l := &left[i]
		stamp := l.Data.Header.Stamp.Nanoseconds()
		r, ok := rights[stamp]
		if !ok {
			continue
		}
		paired++
		delete(rights, stamp)
		events = append(events, sensorEvent{stamp: stamp, kind: eventStereo, deliver: func(sink SensorSink) {
			sink.CallbackStereoImages(l.Raw(), r.Raw())
		}})
	}
	for i := range depth {
		d := &depth[i]
		events = append(events, sensorEvent{stamp: d.Data.Header.Stamp.Nanoseconds(), kind: eventDepth, deliver: func(sink SensorSink) {
			sink.CallbackDepthImage(d.Raw())
		}})
	}
	for i := range imu {
		m := imu[i].Measurement()
		events = append(events, sensorEvent{stamp: m.Timestamp, kind: eventImu, deliver: func(sink SensorSink) {
			sink.CallbackImu(m)
		}})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].stamp != events[j].stamp {
			return events[i].stamp < events[j].stamp
		}
		return events[i].kind < events[j].kind
	})
	unpaired := (len(left) - paired) + (len(right) - paired)
	return events, unpaired
}
