package rimage

import (
	"encoding/binary"
	"image"
	"math"

	"github.com/pkg/errors"
)

// Encoding names a raw pixel layout, using the sensor_msgs/Image vocabulary.
type Encoding string

// Supported encodings.
const (
	EncodingMono8  = Encoding("mono8")
	EncodingMono16 = Encoding("mono16")
	EncodingRGB8   = Encoding("rgb8")
	EncodingBGR8   = Encoding("bgr8")
	EncodingRGBA8  = Encoding("rgba8")
	EncodingBGRA8  = Encoding("bgra8")
	Encoding8UC1   = Encoding("8UC1")
	Encoding16UC1  = Encoding("16UC1")
	Encoding32FC1  = Encoding("32FC1")
)

// DefaultDepthScale converts 16-bit depth in millimeters to meters.
const DefaultDepthScale = 1000.

// RawImage is a transport-level image message. The decoder never retains Data.
type RawImage struct {
	Stamp       int64 // nanoseconds
	FrameID     string
	Width       int
	Height      int
	Encoding    Encoding
	IsBigEndian bool
	// Step is the row length in bytes.
	Step int
	Data []byte
}

// UnsupportedEncodingError is returned for encodings the decoder does not recognize. It is
// fatal only for the message that carried it.
type UnsupportedEncodingError struct {
	Encoding Encoding
	// Depth is set when the encoding was rejected by the depth decoder.
	Depth bool
}

func (e *UnsupportedEncodingError) Error() string {
	if e.Depth {
		return "unsupported depth image encoding: " + string(e.Encoding)
	}
	return "unsupported image encoding: " + string(e.Encoding)
}

// IsUnsupportedEncoding reports whether err is or wraps an UnsupportedEncodingError.
func IsUnsupportedEncoding(err error) bool {
	var encErr *UnsupportedEncodingError
	return errors.As(err, &encErr)
}

func bytesPerPixel(enc Encoding) (int, bool) {
	switch enc {
	case EncodingMono8, Encoding8UC1:
		return 1, true
	case EncodingMono16, Encoding16UC1:
		return 2, true
	case EncodingRGB8, EncodingBGR8:
		return 3, true
	case EncodingRGBA8, EncodingBGRA8, Encoding32FC1:
		return 4, true
	}
	return 0, false
}

// checkLayout validates dimensions, step and buffer length, returning the row stride.
func (raw *RawImage) checkLayout(bpp int) (int, error) {
	if raw.Width <= 0 || raw.Height <= 0 {
		return 0, errors.Errorf("invalid image size (%d, %d)", raw.Width, raw.Height)
	}
	step := raw.Step
	if step == 0 {
		step = raw.Width * bpp
	}
	if step < raw.Width*bpp {
		return 0, errors.Errorf("row step %d shorter than width %d * %d bytes", step, raw.Width, bpp)
	}
	if need := step*(raw.Height-1) + raw.Width*bpp; len(raw.Data) < need {
		return 0, errors.Errorf("image buffer has %d bytes, need %d", len(raw.Data), need)
	}
	return step, nil
}

func (raw *RawImage) byteOrder() binary.ByteOrder {
	if raw.IsBigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Decode converts a raw intensity or color image into an owned Image.
func Decode(raw RawImage) (*Image, error) {
	bpp, ok := bytesPerPixel(raw.Encoding)
	if !ok || raw.Encoding == Encoding32FC1 || raw.Encoding == Encoding16UC1 {
		return nil, &UnsupportedEncodingError{Encoding: raw.Encoding}
	}
	step, err := raw.checkLayout(bpp)
	if err != nil {
		return nil, err
	}
	bounds := image.Rect(0, 0, raw.Width, raw.Height)

	switch raw.Encoding {
	case EncodingMono8, Encoding8UC1:
		out := image.NewGray(bounds)
		for y := 0; y < raw.Height; y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+raw.Width], raw.Data[y*step:])
		}
		return &Image{out}, nil
	case EncodingMono16:
		out := image.NewGray16(bounds)
		order := raw.byteOrder()
		for y := 0; y < raw.Height; y++ {
			for x := 0; x < raw.Width; x++ {
				v := order.Uint16(raw.Data[y*step+2*x:])
				// image.Gray16 is big-endian in memory
				binary.BigEndian.PutUint16(out.Pix[y*out.Stride+2*x:], v)
			}
		}
		return &Image{out}, nil
	default:
		out := image.NewNRGBA(bounds)
		rIdx, bIdx := 0, 2
		if raw.Encoding == EncodingBGR8 || raw.Encoding == EncodingBGRA8 {
			rIdx, bIdx = 2, 0
		}
		hasAlpha := bpp == 4
		for y := 0; y < raw.Height; y++ {
			for x := 0; x < raw.Width; x++ {
				src := raw.Data[y*step+bpp*x:]
				dst := out.Pix[y*out.Stride+4*x:]
				dst[0] = src[rIdx]
				dst[1] = src[1]
				dst[2] = src[bIdx]
				dst[3] = 255
				if hasAlpha {
					dst[3] = src[3]
				}
			}
		}
		return &Image{out}, nil
	}
}

// DecodeDepth converts a raw depth image into meters using DefaultDepthScale for 16-bit data.
func DecodeDepth(raw RawImage) (*DepthMap, error) {
	return DecodeDepthWithScale(raw, DefaultDepthScale)
}

// DecodeDepthWithScale converts a raw depth image into meters. 16-bit values are divided by
// scale; 32-bit float values are taken to already be in meters.
func DecodeDepthWithScale(raw RawImage, scale float64) (*DepthMap, error) {
	if scale <= 0 {
		return nil, errors.Errorf("depth scale must be positive, got %v", scale)
	}
	switch raw.Encoding {
	case Encoding16UC1, EncodingMono16, Encoding32FC1:
	default:
		return nil, &UnsupportedEncodingError{Encoding: raw.Encoding, Depth: true}
	}
	bpp, _ := bytesPerPixel(raw.Encoding)
	step, err := raw.checkLayout(bpp)
	if err != nil {
		return nil, err
	}

	dm := NewEmptyDepthMap(raw.Width, raw.Height)
	order := raw.byteOrder()
	for y := 0; y < raw.Height; y++ {
		row := raw.Data[y*step:]
		for x := 0; x < raw.Width; x++ {
			if raw.Encoding == Encoding32FC1 {
				d := math.Float32frombits(order.Uint32(row[4*x:]))
				if math.IsNaN(float64(d)) || math.IsInf(float64(d), 0) {
					d = 0
				}
				dm.Set(x, y, d)
				continue
			}
			dm.Set(x, y, float32(float64(order.Uint16(row[2*x:]))/scale))
		}
	}
	return dm, nil
}
