package vio

import (
	"github.com/golang/geo/r3"

	"github.com/mfkiwl/Kimera-VIO-ROS/rimage"
)

// StereoFrame is a left/right image pair taken at the same instant.
type StereoFrame struct {
	ID        uint64
	Timestamp int64
	Left      *rimage.Image
	Right     *rimage.Image
}

// DepthFrame is a depth image registered to the left camera.
type DepthFrame struct {
	ID        uint64
	Timestamp int64
	Depth     *rimage.DepthMap
}

// ImuMeasurement is one accelerometer and gyroscope sample in the IMU frame.
type ImuMeasurement struct {
	Timestamp          int64
	LinearAcceleration r3.Vector // m/s^2
	AngularVelocity    r3.Vector // rad/s
}

// OutputCallback receives finished keyframe packets. It is invoked from the
// pipeline's own goroutine and must not block.
type OutputCallback func(packet *KeyframeOutputPacket)

// A Pipeline is the estimation backend the bridge feeds. Synchronizing the
// stereo, depth and IMU streams is its responsibility.
type Pipeline interface {
	FillStereoFrame(frame *StereoFrame)
	FillDepthFrame(frame *DepthFrame)
	FillImu(measurement ImuMeasurement)
	RegisterOutputCallback(cb OutputCallback)
	Close() error
}
