package publish

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mfkiwl/Kimera-VIO-ROS/vio"
)

// FrontendStatsLabels is the fixed layout of frontend statistics records.
var FrontendStatsLabels = []string{
	"nrDetectedFeatures",
	"nrTrackerFeatures",
	"nrMonoInliers",
	"nrMonoPutatives",
	"nrStereoInliers",
	"nrStereoPutatives",
	"monoRansacIters",
	"stereoRansacIters",
	"nrValidRKP",
	"nrNoLeftRectRKP",
	"nrNoRightRectRKP",
	"nrNoDepthRKP",
	"nrFailedArunRKP",
	"featureDetectionTime",
	"featureSelectionTime",
	"featureTrackingTime",
	"monoRansacTime",
	"stereoRansacTime",
}

// ResiliencyLabels is the fixed layout of resiliency records.
var ResiliencyLabels = []string{
	"positionCovCbrtDet",
	"velocityCovCbrtDet",
	"nrStereoInliers",
	"nrMonoInliers",
	"positionCovThreshold",
	"velocityCovThreshold",
	"stereoInliersThreshold",
	"monoInliersThreshold",
}

// ImuBiasLabels is accelerometer bias followed by gyroscope bias.
var ImuBiasLabels = []string{"acc_x", "acc_y", "acc_z", "gyro_x", "gyro_y", "gyro_z"}

// ResiliencyThresholds are published next to the measured values so consumers
// can judge health without knowing the configuration.
type ResiliencyThresholds struct {
	PositionCov   float64
	VelocityCov   float64
	StereoInliers int
	MonoInliers   int
}

func frontendStats(header Header, info vio.DebugTrackerInfo) *StatsRecord {
	return &StatsRecord{
		Header: header,
		Labels: FrontendStatsLabels,
		Values: []float64{
			float64(info.NrDetectedFeatures),
			float64(info.NrTrackerFeatures),
			float64(info.NrMonoInliers),
			float64(info.NrMonoPutatives),
			float64(info.NrStereoInliers),
			float64(info.NrStereoPutatives),
			float64(info.MonoRansacIters),
			float64(info.StereoRansacIters),
			float64(info.NrValidRKP),
			float64(info.NrNoLeftRectRKP),
			float64(info.NrNoRightRectRKP),
			float64(info.NrNoDepthRKP),
			float64(info.NrFailedArunRKP),
			info.FeatureDetectionTime,
			info.FeatureSelectionTime,
			info.FeatureTrackingTime,
			info.MonoRansacTime,
			info.StereoRansacTime,
		},
	}
}

func resiliency(header Header, packet *vio.KeyframeOutputPacket, th ResiliencyThresholds) (*StatsRecord, error) {
	if packet.PoseCovariance == nil || packet.PoseCovariance.SymmetricDim() != 6 {
		return nil, newPartialPacketError("resiliency", "packet has no 6x6 pose covariance")
	}
	if packet.VelocityCovariance == nil || packet.VelocityCovariance.SymmetricDim() != 3 {
		return nil, newPartialPacketError("resiliency", "packet has no 3x3 velocity covariance")
	}
	// translation occupies rows 3..5 of the (rotation, translation) pose covariance.
	position := packet.PoseCovariance.SliceSym(3, 6)
	return &StatsRecord{
		Header: header,
		Labels: ResiliencyLabels,
		Values: []float64{
			math.Cbrt(mat.Det(position)),
			math.Cbrt(mat.Det(packet.VelocityCovariance)),
			float64(packet.TrackerInfo.NrStereoInliers),
			float64(packet.TrackerInfo.NrMonoInliers),
			th.PositionCov,
			th.VelocityCov,
			float64(th.StereoInliers),
			float64(th.MonoInliers),
		},
	}, nil
}

func imuBias(header Header, bias vio.ImuBias) *StatsRecord {
	return &StatsRecord{
		Header: header,
		Labels: ImuBiasLabels,
		Values: []float64{
			bias.Accelerometer.X, bias.Accelerometer.Y, bias.Accelerometer.Z,
			bias.Gyroscope.X, bias.Gyroscope.Y, bias.Gyroscope.Z,
		},
	}
}
