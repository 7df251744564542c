package bridge

import (
	"testing"

	"go.viam.com/test"

	"github.com/mfkiwl/Kimera-VIO-ROS/logging"
	"github.com/mfkiwl/Kimera-VIO-ROS/rimage"
	"github.com/mfkiwl/Kimera-VIO-ROS/ros"
	"github.com/mfkiwl/Kimera-VIO-ROS/vio"
)

type sinkCall struct {
	kind  string
	stamp int64
}

type recordingSink struct {
	calls []sinkCall
}

func (s *recordingSink) CallbackStereoImages(left, right rimage.RawImage) {
	s.calls = append(s.calls, sinkCall{"stereo", left.Stamp})
}

func (s *recordingSink) CallbackDepthImage(depth rimage.RawImage) {
	s.calls = append(s.calls, sinkCall{"depth", depth.Stamp})
}

func (s *recordingSink) CallbackImu(m vio.ImuMeasurement) {
	s.calls = append(s.calls, sinkCall{"imu", m.Timestamp})
}

func imageAt(nsecs int64) ros.ImageMessage {
	var msg ros.ImageMessage
	msg.Data.Header.Stamp = ros.Time{Nsecs: nsecs}
	msg.Data.Encoding = string(rimage.EncodingMono8)
	return msg
}

func imuAt(nsecs int64) ros.ImuMessage {
	var msg ros.ImuMessage
	msg.Data.Header.Stamp = ros.Time{Nsecs: nsecs}
	return msg
}

func TestReplayEventsOrdering(t *testing.T) {
	left := []ros.ImageMessage{imageAt(20), imageAt(10), imageAt(30)}
	right := []ros.ImageMessage{imageAt(10), imageAt(20), imageAt(25)}
	depth := []ros.ImageMessage{imageAt(20)}
	imu := []ros.ImuMessage{imuAt(20), imuAt(5), imuAt(15)}

	events, unpaired := replayEvents(left, right, depth, imu)
	test.That(t, unpaired, test.ShouldEqual, 2)

	sink := &recordingSink{}
	for _, ev := range events {
		ev.deliver(sink)
	}
	test.That(t, sink.calls, test.ShouldResemble, []sinkCall{
		{"imu", 5},
		{"stereo", 10},
		{"imu", 15},
		{"imu", 20},
		{"depth", 20},
		{"stereo", 20},
	})
}

func TestNewRosbagProviderRequiresTopics(t *testing.T) {
	logger := logging.NewTestLogger(t)
	_, err := NewRosbagProvider("", RosbagTopics{Left: "l", Right: "r", Imu: "i"}, nil, nil, 1000, logger)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewRosbagProvider("run.bag", RosbagTopics{Left: "l", Imu: "i"}, nil, nil, 1000, logger)
	test.That(t, err, test.ShouldNotBeNil)
	p, err := NewRosbagProvider("run.bag", RosbagTopics{Left: "l", Right: "r", Imu: "i"}, nil, nil, 1000, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Close(), test.ShouldBeNil)
}
