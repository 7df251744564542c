package publish

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/mfkiwl/Kimera-VIO-ROS/spatialmath"
	"github.com/mfkiwl/Kimera-VIO-ROS/vio"
)

const unitQuaternionTolerance = 1e-3

// translationFirst reorders a (rotation, translation) covariance into (translation, rotation).
var translationFirst = [6]int{3, 4, 5, 0, 1, 2}

// transform is the world->body broadcast. It needs only a valid pose.
func (p *Publisher) transform(packet *vio.KeyframeOutputPacket) (*StampedTransform, error) {
	if err := checkPose("transform", packet.WorldPoseBody); err != nil {
		return nil, err
	}
	return &StampedTransform{
		Header:       Header{Stamp: packet.Timestamp, FrameID: p.cfg.WorldFrameID},
		ChildFrameID: p.cfg.BaseLinkFrameID,
		Transform:    packet.WorldPoseBody,
	}, nil
}

// odometry needs a valid pose. Absent covariances leave zero blocks; covariances
// of the wrong size skip the message.
func (p *Publisher) odometry(packet *vio.KeyframeOutputPacket) (*Odometry, error) {
	pose := packet.WorldPoseBody
	if err := checkPose("odometry", pose); err != nil {
		return nil, err
	}

	odom := &Odometry{
		Header:       Header{Stamp: packet.Timestamp, FrameID: p.cfg.WorldFrameID},
		ChildFrameID: p.cfg.BaseLinkFrameID,
		Pose:         pose,
		Twist: Twist{
			Linear: spatialmath.RotateVector(quat.Conj(pose.Orientation()), packet.Velocity),
		},
	}
	if cov := packet.PoseCovariance; cov != nil {
		if cov.SymmetricDim() != 6 {
			return nil, newPartialPacketError("odometry", "pose covariance is %dx%[1]d, want 6x6", cov.SymmetricDim())
		}
		for i := 0; i < 6; i++ {
			for j := 0; j < 6; j++ {
				odom.PoseCovariance[i*6+j] = cov.At(translationFirst[i], translationFirst[j])
			}
		}
	}
	if cov := packet.VelocityCovariance; cov != nil {
		if cov.SymmetricDim() != 3 {
			return nil, newPartialPacketError("odometry", "velocity covariance is %dx%[1]d, want 3x3", cov.SymmetricDim())
		}
		body := bodyFrameCovariance(pose, cov)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				odom.TwistCovariance[i*6+j] = body.At(i, j)
			}
		}
	}
	return odom, nil
}

func checkPose(artifact string, pose spatialmath.Pose) error {
	pt := pose.Point()
	for _, v := range []float64{pt.X, pt.Y, pt.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return newPartialPacketError(artifact, "pose translation is not finite: %v", pt)
		}
	}
	q := pose.Orientation()
	norm := quat.Abs(q)
	if math.IsNaN(norm) || math.Abs(norm-1) > unitQuaternionTolerance {
		return newPartialPacketError(artifact, "pose orientation is not a unit quaternion (norm %f)", norm)
	}
	return nil
}

// bodyFrameCovariance expresses a world-frame velocity covariance in the body frame: R^T C R.
func bodyFrameCovariance(pose spatialmath.Pose, cov mat.Symmetric) *mat.Dense {
	rot := pose.RotationMatrix().Dense()
	var tmp, out mat.Dense
	tmp.Mul(rot.T(), cov)
	out.Mul(&tmp, rot)
	return &out
}

