package spatialmath

import (
	"github.com/golang/geo/r3"
)

// Triangle is three vertices in counter-clockwise order, plus the derived unit normal.
type Triangle struct {
	p0 r3.Vector
	p1 r3.Vector
	p2 r3.Vector

	normal r3.Vector
}

// NewTriangle creates a triangle and caches its normal.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{
		p0:     p0,
		p1:     p1,
		p2:     p2,
		normal: PlaneNormal(p0, p1, p2),
	}
}

// Points returns the three vertices.
func (t *Triangle) Points() []r3.Vector {
	return []r3.Vector{t.p0, t.p1, t.p2}
}

// Normal returns the unit normal, or the zero vector for a degenerate triangle.
func (t *Triangle) Normal() r3.Vector {
	return t.normal
}

// Area returns the triangle's area.
func (t *Triangle) Area() float64 {
	return t.p1.Sub(t.p0).Cross(t.p2.Sub(t.p0)).Norm() / 2
}

// Degenerate reports whether the vertices are collinear or coincident.
func (t *Triangle) Degenerate() bool {
	return t.normal == r3.Vector{}
}

// PlaneNormal returns the unit normal of the plane through p0, p1, p2 following the right-hand
// rule. Collinear points yield the zero vector.
func PlaneNormal(p0, p1, p2 r3.Vector) r3.Vector {
	n := p1.Sub(p0).Cross(p2.Sub(p0))
	if n.Norm() < 1e-12 {
		return r3.Vector{}
	}
	return n.Normalize()
}
