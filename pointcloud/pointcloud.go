// Package pointcloud defines a labeled, colored point cloud keyed by landmark id
// and writers for the PCD and LAS file formats.
package pointcloud

import (
	"image/color"
	"math"
	"slices"

	"github.com/golang/geo/r3"
	"github.com/samber/lo"
)

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	HasColor bool

	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData returns meta data with empty bounds.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge widens the bounds to include v.
func (meta *MetaData) Merge(v r3.Vector, hasColor bool) {
	if hasColor {
		meta.HasColor = true
	}
	meta.MinX = math.Min(meta.MinX, v.X)
	meta.MinY = math.Min(meta.MinY, v.Y)
	meta.MinZ = math.Min(meta.MinZ, v.Z)
	meta.MaxX = math.Max(meta.MaxX, v.X)
	meta.MaxY = math.Max(meta.MaxY, v.Y)
	meta.MaxZ = math.Max(meta.MaxZ, v.Z)
}

// PointCloud is a sparse set of points, each carrying the id of the landmark it
// was triangulated from. Setting an existing id replaces that point, so a cloud
// never holds two points for the same landmark.
type PointCloud struct {
	points map[int64]Point
}

// New returns an empty PointCloud.
func New() *PointCloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty PointCloud with room for size points.
func NewWithPrealloc(size int) *PointCloud {
	return &PointCloud{points: make(map[int64]Point, size)}
}

// Size returns the number of points in the cloud.
func (pc *PointCloud) Size() int {
	return len(pc.points)
}

// Set places the point for the given id, replacing any previous point for that id.
func (pc *PointCloud) Set(id int64, pos r3.Vector, c color.NRGBA) {
	pc.points[id] = Point{ID: id, Position: pos, Color: c, colored: true}
}

// SetUncolored places a point that carries no color.
func (pc *PointCloud) SetUncolored(id int64, pos r3.Vector) {
	pc.points[id] = Point{ID: id, Position: pos}
}

// Unset removes the point with the given id, if any.
func (pc *PointCloud) Unset(id int64) {
	delete(pc.points, id)
}

// At returns the point for the given id.
func (pc *PointCloud) At(id int64) (Point, bool) {
	p, ok := pc.points[id]
	return p, ok
}

// IDs returns every id in the cloud in ascending order.
func (pc *PointCloud) IDs() []int64 {
	ids := lo.Keys(pc.points)
	slices.Sort(ids)
	return ids
}

// Iterate calls fn for every point in ascending id order, stopping early if
// fn returns false.
func (pc *PointCloud) Iterate(fn func(p Point) bool) {
	for _, id := range pc.IDs() {
		if !fn(pc.points[id]) {
			return
		}
	}
}

// MetaData computes the bounds and color presence of the cloud.
func (pc *PointCloud) MetaData() MetaData {
	meta := NewMetaData()
	for _, p := range pc.points {
		meta.Merge(p.Position, p.colored)
	}
	return meta
}
