// Package rimage decodes raw sensor image buffers into owned, dense images for the pipeline.
package rimage

import (
	"image"
	"image/color"
	"image/draw"
)

// Image is a decoded intensity or color frame. It owns its pixels.
type Image struct {
	img image.Image
}

// NewImageFromStdImage copies img into a new Image.
func NewImageFromStdImage(img image.Image) *Image {
	switch src := img.(type) {
	case *image.Gray:
		dst := image.NewGray(src.Bounds())
		copy(dst.Pix, src.Pix)
		return &Image{dst}
	default:
		dst := image.NewNRGBA(img.Bounds())
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
		return &Image{dst}
	}
}

// Width returns the width in pixels.
func (i *Image) Width() int {
	return i.img.Bounds().Dx()
}

// Height returns the height in pixels.
func (i *Image) Height() int {
	return i.img.Bounds().Dy()
}

// Bounds returns the image bounds.
func (i *Image) Bounds() image.Rectangle {
	return i.img.Bounds()
}

// IsColor reports whether the image carries color channels.
func (i *Image) IsColor() bool {
	_, gray := i.img.(*image.Gray)
	_, gray16 := i.img.(*image.Gray16)
	return !gray && !gray16
}

// StdImage returns the underlying image. Callers must not modify it.
func (i *Image) StdImage() image.Image {
	return i.img
}

// Gray returns an 8-bit grayscale copy, which is what the feature tracker consumes.
func (i *Image) Gray() *image.Gray {
	bounds := i.img.Bounds()
	out := image.NewGray(bounds)
	if src, ok := i.img.(*image.Gray); ok {
		copy(out.Pix, src.Pix)
		return out
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.SetGray(x, y, color.GrayModel.Convert(i.img.At(x, y)).(color.Gray))
		}
	}
	return out
}
