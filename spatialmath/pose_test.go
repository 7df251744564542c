package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

// quarterTurnZ is a +90 degree rotation about Z.
var quarterTurnZ = quat.Number{Real: math.Cos(math.Pi / 4), Kmag: math.Sin(math.Pi / 4)}

func TestPoseTransform(t *testing.T) {
	p := NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, quarterTurnZ)
	got := p.Transform(r3.Vector{X: 1})
	test.That(t, got.X, test.ShouldAlmostEqual, 1)
	test.That(t, got.Y, test.ShouldAlmostEqual, 3)
	test.That(t, got.Z, test.ShouldAlmostEqual, 3)
}

func TestPoseInverseCompose(t *testing.T) {
	p := NewPose(r3.Vector{X: 0.5, Y: -2, Z: 7}, quat.Number{Real: 0.9, Imag: 0.1, Jmag: -0.3, Kmag: 0.2})
	identity := Compose(p, PoseInverse(p))
	test.That(t, PoseAlmostEqual(identity, NewZeroPose()), test.ShouldBeTrue)

	between := PoseBetween(p, p)
	test.That(t, PoseAlmostEqual(between, NewZeroPose()), test.ShouldBeTrue)
}

func TestPoseBetween(t *testing.T) {
	left := NewPoseFromPoint(r3.Vector{X: -0.05})
	right := NewPoseFromPoint(r3.Vector{X: 0.06})
	rel := PoseBetween(left, right)
	test.That(t, rel.Point().X, test.ShouldAlmostEqual, 0.11)
	test.That(t, QuaternionAlmostEqual(rel.Orientation(), NewZeroOrientation(), 1e-9), test.ShouldBeTrue)
}

func TestNewPoseFromMatrix(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		p, err := NewPoseFromMatrix([]float64{
			0, -1, 0, 1,
			1, 0, 0, 2,
			0, 0, 1, 3,
			0, 0, 0, 1,
		})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p.Point(), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
		test.That(t, QuaternionAlmostEqual(p.Orientation(), quarterTurnZ, 1e-9), test.ShouldBeTrue)
	})

	t.Run("wrong size", func(t *testing.T) {
		_, err := NewPoseFromMatrix([]float64{1, 0, 0})
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("bad bottom row", func(t *testing.T) {
		_, err := NewPoseFromMatrix([]float64{
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 1, 0,
			0, 0, 1, 1,
		})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "bottom row")
	})

	t.Run("scaled rotation", func(t *testing.T) {
		_, err := NewPoseFromMatrix([]float64{
			2, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 1, 0,
			0, 0, 0, 1,
		})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "orthonormal")
	})
}
