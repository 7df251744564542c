// Package spatialmath defines rigid transforms and the small amount of 3D geometry the bridge needs.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

const defaultAngleEpsilon = 1e-5

// NewZeroOrientation returns the identity rotation.
func NewZeroOrientation() quat.Number {
	return quat.Number{Real: 1}
}

// Normalize scales a quaternion to unit length. The zero quaternion maps to the identity.
func Normalize(q quat.Number) quat.Number {
	norm := quat.Abs(q)
	if norm == 0 {
		return NewZeroOrientation()
	}
	return quat.Scale(1/norm, q)
}

// Flip negates all components; q and Flip(q) describe the same rotation.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}

// QuaternionAlmostEqual reports whether two unit quaternions describe the same rotation within tol.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	if b.Real*a.Real+b.Imag*a.Imag+b.Jmag*a.Jmag+b.Kmag*a.Kmag < 0 {
		b = Flip(b)
	}
	return math.Abs(a.Real-b.Real) < tol &&
		math.Abs(a.Imag-b.Imag) < tol &&
		math.Abs(a.Jmag-b.Jmag) < tol &&
		math.Abs(a.Kmag-b.Kmag) < tol
}

// RotateVector applies the rotation q to v.
func RotateVector(q quat.Number, v r3.Vector) r3.Vector {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vector{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}
