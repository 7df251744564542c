package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a rigid transform: a rotation followed by a translation. The zero value is not a
// valid pose; use NewZeroPose.
type Pose struct {
	point       r3.Vector
	orientation quat.Number
}

// NewPose creates a pose from a translation and a rotation. The rotation is normalized.
func NewPose(point r3.Vector, orientation quat.Number) Pose {
	return Pose{point: point, orientation: Normalize(orientation)}
}

// NewZeroPose returns the identity transform.
func NewZeroPose() Pose {
	return Pose{orientation: NewZeroOrientation()}
}

// NewPoseFromPoint returns a pure translation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return Pose{point: point, orientation: NewZeroOrientation()}
}

// NewPoseFromMatrix builds a pose from a row-major 4x4 homogeneous transform. It fails when the
// bottom row is not [0 0 0 1] or the upper-left block is not a proper rotation.
func NewPoseFromMatrix(data []float64) (Pose, error) {
	if len(data) != 16 {
		return Pose{}, errors.Errorf("homogeneous transform needs 16 elements, got %d", len(data))
	}
	bottom := data[12:16]
	if math.Abs(bottom[0]) > orthonormalTolerance || math.Abs(bottom[1]) > orthonormalTolerance ||
		math.Abs(bottom[2]) > orthonormalTolerance || math.Abs(bottom[3]-1) > orthonormalTolerance {
		return Pose{}, errors.Errorf("homogeneous transform bottom row must be [0 0 0 1], got %v", bottom)
	}
	rot, err := NewRotationMatrix([]float64{
		data[0], data[1], data[2],
		data[4], data[5], data[6],
		data[8], data[9], data[10],
	})
	if err != nil {
		return Pose{}, err
	}
	return NewPose(r3.Vector{X: data[3], Y: data[7], Z: data[11]}, rot.Quaternion()), nil
}

// Point returns the translation.
func (p Pose) Point() r3.Vector {
	return p.point
}

// Orientation returns the rotation as a unit quaternion.
func (p Pose) Orientation() quat.Number {
	return p.orientation
}

// RotationMatrix returns the rotation as a matrix.
func (p Pose) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(p.orientation)
}

// Transform maps a point expressed in the pose's child frame into its parent frame.
func (p Pose) Transform(v r3.Vector) r3.Vector {
	return RotateVector(p.orientation, v).Add(p.point)
}

func (p Pose) String() string {
	q := p.orientation
	return fmt.Sprintf("{X:%.6f Y:%.6f Z:%.6f W:%.6f QX:%.6f QY:%.6f QZ:%.6f}",
		p.point.X, p.point.Y, p.point.Z, q.Real, q.Imag, q.Jmag, q.Kmag)
}

// Compose returns a*b, i.e. the transform that applies b then a.
func Compose(a, b Pose) Pose {
	return NewPose(a.Transform(b.point), quat.Mul(a.orientation, b.orientation))
}

// PoseInverse returns the inverse transform.
func PoseInverse(p Pose) Pose {
	inv := quat.Conj(p.orientation)
	return NewPose(RotateVector(inv, p.point).Mul(-1), inv)
}

// PoseBetween returns the pose of b expressed in a's frame: inverse(a)*b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseAlmostEqual reports whether two poses match within a small tolerance.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-6)
}

// PoseAlmostEqualEps reports whether two poses match within epsilon for translation.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return a.point.Sub(b.point).Norm() < epsilon && QuaternionAlmostEqual(a.orientation, b.orientation, defaultAngleEpsilon)
}
