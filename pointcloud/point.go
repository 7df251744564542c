package pointcloud

import (
	"image/color"

	"github.com/golang/geo/r3"
)

// Point is a single landmark position in meters.
type Point struct {
	ID       int64
	Position r3.Vector
	Color    color.NRGBA

	colored bool
}

// HasColor returns whether or not this point is colored.
func (p Point) HasColor() bool {
	return p.colored
}

// RGB255 returns the RGB components of the color.
func (p Point) RGB255() (uint8, uint8, uint8) {
	return p.Color.R, p.Color.G, p.Color.B
}

// packedRGB returns the color packed into the low 24 bits as PCL expects.
func (p Point) packedRGB() uint32 {
	if !p.colored {
		return 255 << 16
	}
	return uint32(p.Color.R)<<16 | uint32(p.Color.G)<<8 | uint32(p.Color.B)
}
