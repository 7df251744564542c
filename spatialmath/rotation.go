package spatialmath

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// orthonormalTolerance bounds the element-wise error of R*R^T against the identity.
const orthonormalTolerance = 1e-5

// RotationMatrix is a 3x3 proper rotation stored row-major.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix validates a row-major 3x3 matrix as a proper rotation: it must be
// orthonormal and have determinant +1.
func NewRotationMatrix(data []float64) (*RotationMatrix, error) {
	if len(data) != 9 {
		return nil, errors.Errorf("rotation matrix needs 9 elements, got %d", len(data))
	}
	m := mat.NewDense(3, 3, append([]float64(nil), data...))

	var rrt mat.Dense
	rrt.Mul(m, m.T())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.
			if i == j {
				want = 1
			}
			if diff := math.Abs(rrt.At(i, j) - want); diff > orthonormalTolerance {
				return nil, errors.Errorf("rotation matrix is not orthonormal: (R*R^T)[%d][%d] off by %g", i, j, diff)
			}
		}
	}
	if det := mat.Det(m); math.Abs(det-1) > orthonormalTolerance {
		return nil, errors.Errorf("rotation matrix has determinant %g, expected 1", det)
	}

	rm := &RotationMatrix{}
	copy(rm.mat[:], data)
	return rm, nil
}

// At returns the element at row, col.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[row*3+col]
}

// Row returns a copy of a row.
func (rm *RotationMatrix) Row(row int) [3]float64 {
	return [3]float64{rm.mat[row*3], rm.mat[row*3+1], rm.mat[row*3+2]}
}

// Quaternion converts the rotation to a unit quaternion with a non-negative real part.
func (rm *RotationMatrix) Quaternion() quat.Number {
	m := rm.mat
	var q quat.Number
	trace := m[0] + m[4] + m[8]
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = quat.Number{Real: 0.25 / s, Imag: (m[7] - m[5]) * s, Jmag: (m[2] - m[6]) * s, Kmag: (m[3] - m[1]) * s}
	case m[0] > m[4] && m[0] > m[8]:
		s := 2 * math.Sqrt(1+m[0]-m[4]-m[8])
		q = quat.Number{Real: (m[7] - m[5]) / s, Imag: 0.25 * s, Jmag: (m[1] + m[3]) / s, Kmag: (m[2] + m[6]) / s}
	case m[4] > m[8]:
		s := 2 * math.Sqrt(1+m[4]-m[0]-m[8])
		q = quat.Number{Real: (m[2] - m[6]) / s, Imag: (m[1] + m[3]) / s, Jmag: 0.25 * s, Kmag: (m[5] + m[7]) / s}
	default:
		s := 2 * math.Sqrt(1+m[8]-m[0]-m[4])
		q = quat.Number{Real: (m[3] - m[1]) / s, Imag: (m[2] + m[6]) / s, Jmag: (m[5] + m[7]) / s, Kmag: 0.25 * s}
	}
	q = Normalize(q)
	if q.Real < 0 {
		q = Flip(q)
	}
	return q
}

// QuatToRotationMatrix converts a quaternion to a rotation matrix.
func QuatToRotationMatrix(q quat.Number) *RotationMatrix {
	q = Normalize(q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return &RotationMatrix{mat: [9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}}
}

// Dense returns the rotation as a gonum matrix.
func (rm *RotationMatrix) Dense() *mat.Dense {
	return mat.NewDense(3, 3, append([]float64(nil), rm.mat[:]...))
}
