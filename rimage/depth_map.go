package rimage

import (
	"image"
	"image/color"
	"math"
)

// DepthMap is a dense depth image in meters. Zero means no measurement.
type DepthMap struct {
	width  int
	height int

	data []float32
}

// NewEmptyDepthMap returns a zeroed depth map.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]float32, width*height),
	}
}

// Width returns the width in pixels.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the height in pixels.
func (dm *DepthMap) Height() int {
	return dm.height
}

// Bounds returns the depth map bounds.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// GetDepth returns the depth in meters at x, y.
func (dm *DepthMap) GetDepth(x, y int) float32 {
	return dm.data[y*dm.width+x]
}

// Set stores the depth in meters at x, y.
func (dm *DepthMap) Set(x, y int, val float32) {
	dm.data[y*dm.width+x] = val
}

// MinMax returns the smallest and largest valid depth.
func (dm *DepthMap) MinMax() (float32, float32) {
	lo, hi := float32(math.MaxFloat32), float32(0)
	for _, d := range dm.data {
		if d <= 0 || math.IsNaN(float64(d)) {
			continue
		}
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	if hi == 0 {
		return 0, 0
	}
	return lo, hi
}

// ToPrettyPicture maps depth into a grayscale image, near is bright.
func (dm *DepthMap) ToPrettyPicture(hardMin, hardMax float32) *image.Gray {
	if hardMin == 0 && hardMax == 0 {
		hardMin, hardMax = dm.MinMax()
	}
	out := image.NewGray(dm.Bounds())
	span := hardMax - hardMin
	if span <= 0 {
		return out
	}
	for y := 0; y < dm.height; y++ {
		for x := 0; x < dm.width; x++ {
			d := dm.GetDepth(x, y)
			if d <= 0 {
				continue
			}
			ratio := (d - hardMin) / span
			ratio = float32(math.Max(0, math.Min(1, float64(ratio))))
			out.SetGray(x, y, color.Gray{Y: uint8(255 * (1 - ratio))})
		}
	}
	return out
}
