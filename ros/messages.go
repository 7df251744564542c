package ros

import (
	"github.com/golang/geo/r3"

	"github.com/mfkiwl/Kimera-VIO-ROS/rimage"
	"github.com/mfkiwl/Kimera-VIO-ROS/vio"
)

// Time is a ROS timestamp.
type Time struct {
	Secs  int64 `json:"secs"`
	Nsecs int64 `json:"nsecs"`
}

// Nanoseconds returns t as nanoseconds since the epoch.
func (t Time) Nanoseconds() int64 {
	return t.Secs*1e9 + t.Nsecs
}

// Header is std_msgs/Header.
type Header struct {
	Seq     int    `json:"seq"`
	Stamp   Time   `json:"stamp"`
	FrameID string `json:"frame_id"`
}

// Vector3 is geometry_msgs/Vector3.
type Vector3 struct {
	X float64
	Y float64
	Z float64
}

func (v Vector3) r3() r3.Vector {
	return r3.Vector{X: v.X, Y: v.Y, Z: v.Z}
}

// ImageMessage is one bag record of sensor_msgs/Image.
type ImageMessage struct {
	Meta Time
	Data struct {
		Header      Header
		Height      int
		Width       int
		Encoding    string
		IsBigendian int `json:"is_bigendian"`
		Step        int
		Data        []byte
	}
}

// Raw converts the message for the image decoder, stamped with the header time.
func (m *ImageMessage) Raw() rimage.RawImage {
	return rimage.RawImage{
		Stamp:       m.Data.Header.Stamp.Nanoseconds(),
		FrameID:     m.Data.Header.FrameID,
		Width:       m.Data.Width,
		Height:      m.Data.Height,
		Encoding:    rimage.Encoding(m.Data.Encoding),
		IsBigEndian: m.Data.IsBigendian != 0,
		Step:        m.Data.Step,
		Data:        m.Data.Data,
	}
}

// ImuMessage is one bag record of sensor_msgs/Imu.
type ImuMessage struct {
	Meta Time
	Data struct {
		Header      Header
		Orientation struct {
			X float64
			Y float64
			Z float64
			W float64
		}
		OrientationCovariance        [9]float64 `json:"orientation_covariance"`
		AngularVelocity              Vector3    `json:"angular_velocity"`
		AngularVelocityCovariance    [9]float64 `json:"angular_velocity_covariance"`
		LinearAcceleration           Vector3    `json:"linear_acceleration"`
		LinearAccelerationCovariance [9]float64 `json:"linear_acceleration_covariance"`
	}
}

// Measurement converts the message into a pipeline IMU sample.
func (m *ImuMessage) Measurement() vio.ImuMeasurement {
	return vio.ImuMeasurement{
		Timestamp:          m.Data.Header.Stamp.Nanoseconds(),
		LinearAcceleration: m.Data.LinearAcceleration.r3(),
		AngularVelocity:    m.Data.AngularVelocity.r3(),
	}
}
