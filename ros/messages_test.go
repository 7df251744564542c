package ros

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/mfkiwl/Kimera-VIO-ROS/rimage"
)

const imageRecord = `{"meta": {"secs":10,"nsecs":5}, "data":{"header":{"seq":3,"stamp":{"secs":10,"nsecs":2},"frame_id":"cam0"},` +
	`"height":1,"width":2,"encoding":"16UC1","is_bigendian":0,"step":4,"data":[196,9,0,0]}}` + "\n"

const imuRecord = `{"meta": {"secs":1,"nsecs":0}, "data":{"header":{"seq":1,"stamp":{"secs":1,"nsecs":500},"frame_id":"imu4"},` +
	`"orientation":{"x":0,"y":0,"z":0,"w":1},"angular_velocity":{"x":0.1,"y":0.2,"z":0.3},` +
	`"linear_acceleration":{"x":0,"y":0,"z":9.81}}}` + "\n"

func TestTopicKey(t *testing.T) {
	test.That(t, TopicKey("/cam0/image_raw"), test.ShouldEqual, "cam0_image_raw")
	test.That(t, TopicKey("IMU0"), test.ShouldEqual, "imu0")
}

func TestDecodeImageRecord(t *testing.T) {
	msgs, err := DecodeRecords[ImageMessage]([][]byte{[]byte(imageRecord)})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(msgs), test.ShouldEqual, 1)

	raw := msgs[0].Raw()
	test.That(t, raw.Stamp, test.ShouldEqual, int64(10_000_000_002))
	test.That(t, raw.FrameID, test.ShouldEqual, "cam0")
	test.That(t, raw.Encoding, test.ShouldEqual, rimage.Encoding16UC1)
	test.That(t, raw.Step, test.ShouldEqual, 4)

	dm, err := rimage.DecodeDepth(raw)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dm.GetDepth(0, 0), test.ShouldEqual, float32(2.5))
}

func TestDecodeImuRecord(t *testing.T) {
	msgs, err := DecodeRecords[ImuMessage]([][]byte{[]byte(imuRecord)})
	test.That(t, err, test.ShouldBeNil)
	m := msgs[0].Measurement()
	test.That(t, m.Timestamp, test.ShouldEqual, int64(1_000_000_500))
	test.That(t, m.AngularVelocity, test.ShouldResemble, r3.Vector{X: 0.1, Y: 0.2, Z: 0.3})
	test.That(t, m.LinearAcceleration.Z, test.ShouldEqual, 9.81)
}

func TestDecodeRecordsError(t *testing.T) {
	_, err := DecodeRecords[ImuMessage]([][]byte{[]byte("{not json")})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "record 0")
}

func TestReadBagMissingFile(t *testing.T) {
	_, err := ReadBag("/nonexistent/input.bag")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unable to open input file")
}
