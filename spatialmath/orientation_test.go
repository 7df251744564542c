package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestRotateVector(t *testing.T) {
	// 90 degrees about z.
	q := quat.Number{Real: math.Cos(math.Pi / 4), Kmag: math.Sin(math.Pi / 4)}
	v := RotateVector(q, r3.Vector{X: 1})
	test.That(t, v.X, test.ShouldAlmostEqual, 0)
	test.That(t, v.Y, test.ShouldAlmostEqual, 1)
	test.That(t, v.Z, test.ShouldAlmostEqual, 0)

	back := RotateVector(quat.Conj(q), v)
	test.That(t, back.X, test.ShouldAlmostEqual, 1)
}

func TestQuaternionAlmostEqual(t *testing.T) {
	q := Normalize(quat.Number{Real: 1, Imag: 0.2, Jmag: -0.1})
	test.That(t, QuaternionAlmostEqual(q, Flip(q), 1e-9), test.ShouldBeTrue)
	test.That(t, QuaternionAlmostEqual(q, NewZeroOrientation(), 1e-3), test.ShouldBeFalse)
}

func TestNormalize(t *testing.T) {
	test.That(t, Normalize(quat.Number{}), test.ShouldResemble, NewZeroOrientation())
	n := Normalize(quat.Number{Real: 2})
	test.That(t, n.Real, test.ShouldAlmostEqual, 1)
	test.That(t, quat.Abs(Normalize(quat.Number{Real: 1, Imag: 1, Jmag: 1, Kmag: 1})), test.ShouldAlmostEqual, 1)
}
