package pointcloud

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/edaniels/lidario"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
)

// ToPCD writes the cloud out in PCD v0.7 format. Positions are written in meters.
func ToPCD(cloud *PointCloud, out io.Writer, outputType PCDType) error {
	hasColor := cloud.MetaData().HasColor

	if _, err := fmt.Fprintf(out, "VERSION .7\n"); err != nil {
		return err
	}
	var err error
	if hasColor {
		_, err = fmt.Fprintf(out, "FIELDS x y z rgb\n"+
			"SIZE 4 4 4 4\n"+
			"TYPE F F F I\n"+
			"COUNT 1 1 1 1\n")
	} else {
		_, err = fmt.Fprintf(out, "FIELDS x y z\n"+
			"SIZE 4 4 4\n"+
			"TYPE F F F\n"+
			"COUNT 1 1 1\n")
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "WIDTH %d\n"+
		"HEIGHT %d\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n",
		cloud.Size(),
		1,
		cloud.Size())
	if err != nil {
		return err
	}

	switch outputType {
	case PCDBinary:
		_, err = fmt.Fprintf(out, "DATA binary\n")
	case PCDAscii:
		_, err = fmt.Fprintf(out, "DATA ascii\n")
	default:
		return errors.Errorf("unknown pcd type %d", outputType)
	}
	if err != nil {
		return err
	}
	return writePCDData(cloud, out, outputType, hasColor)
}

func writePCDData(cloud *PointCloud, out io.Writer, pcdtype PCDType, hasColor bool) error {
	var err error
	cloud.Iterate(func(p Point) bool {
		x, y, z := p.Position.X, p.Position.Y, p.Position.Z
		switch pcdtype {
		case PCDBinary:
			size := 12
			if hasColor {
				size = 16
			}
			buf := make([]byte, size)
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(x)))
			binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(y)))
			binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(z)))
			if hasColor {
				binary.LittleEndian.PutUint32(buf[12:], p.packedRGB())
			}
			_, err = out.Write(buf)
		case PCDAscii:
			if hasColor {
				_, err = fmt.Fprintf(out, "%f %f %f %d\n", x, y, z, p.packedRGB())
			} else {
				_, err = fmt.Fprintf(out, "%f %f %f\n", x, y, z)
			}
		}
		return err == nil
	})
	return err
}

// WriteToLASFile writes the point cloud out to a LAS file. The landmark id is
// stored as the point source id, truncated to 16 bits.
func WriteToLASFile(cloud *PointCloud, fn string) (err error) {
	lf, err := lidario.NewLasFile(fn, "w")
	if err != nil {
		return
	}
	defer func() {
		cerr := lf.Close()
		err = multierr.Combine(err, cerr)
	}()

	hasColor := cloud.MetaData().HasColor
	pointFormatID := 0
	if hasColor {
		pointFormatID = 2
	}
	if err = lf.AddHeader(lidario.LasHeader{
		PointFormatID: byte(pointFormatID),
	}); err != nil {
		return
	}

	var lastErr error
	cloud.Iterate(func(p Point) bool {
		var lp lidario.LasPointer
		pr0 := &lidario.PointRecord0{
			X: p.Position.X,
			Y: p.Position.Y,
			Z: p.Position.Z,
			BitField: lidario.PointBitField{
				Value: (1) | (1 << 3),
			},
			PointSourceID: uint16(p.ID),
		}
		lp = pr0

		if hasColor {
			r, g, b := p.RGB255()
			lp = &lidario.PointRecord2{
				PointRecord0: pr0,
				RGB: &lidario.RgbData{
					Red:   uint16(r) * 256,
					Green: uint16(g) * 256,
					Blue:  uint16(b) * 256,
				},
			}
		}
		if lerr := lf.AddLasPoint(lp); lerr != nil {
			lastErr = lerr
			return false
		}
		return true
	})
	err = lastErr
	// nolint:nakedret
	return
}
