package calibration

import (
	"github.com/mfkiwl/Kimera-VIO-ROS/spatialmath"
)

const minBaseline = 1e-6

// StereoCalibration is the calibration of a stereo rig.
type StereoCalibration struct {
	Left  CameraParams
	Right CameraParams
	// LeftPoseRight is the right camera pose in the left camera frame.
	LeftPoseRight spatialmath.Pose
}

// Baseline returns the distance between the two optical centers.
func (s StereoCalibration) Baseline() float64 {
	return s.LeftPoseRight.Point().Norm()
}

func newStereoCalibration(left, right CameraParams) (StereoCalibration, error) {
	if left.Intrinsics.Width != right.Intrinsics.Width || left.Intrinsics.Height != right.Intrinsics.Height {
		return StereoCalibration{}, newCalibrationError("right_camera.resolution",
			"stereo resolutions differ: left (%d,%d) right (%d,%d)",
			left.Intrinsics.Width, left.Intrinsics.Height, right.Intrinsics.Width, right.Intrinsics.Height)
	}
	stereo := StereoCalibration{
		Left:          left,
		Right:         right,
		LeftPoseRight: spatialmath.PoseBetween(left.BodyPoseCam, right.BodyPoseCam),
	}
	if stereo.Baseline() < minBaseline {
		return StereoCalibration{}, newCalibrationError("right_camera.T_BS", "stereo baseline is zero")
	}
	return stereo, nil
}
