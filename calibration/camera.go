// Package calibration parses and validates the stereo camera and IMU calibration of a session.
// Parsed calibration is immutable; recalibrating requires restarting the bridge.
package calibration

import (
	"fmt"

	"github.com/mfkiwl/Kimera-VIO-ROS/spatialmath"
)

// DistortionModel is the name of a lens distortion model.
type DistortionModel string

const (
	// RadialTangentialDistortion is the plumb-bob model with k1, k2, p1, p2[, k3].
	RadialTangentialDistortion = DistortionModel("radtan")
	// EquidistantDistortion is the fisheye model with k1..k4.
	EquidistantDistortion = DistortionModel("equidistant")
	// NoDistortion means the images are already rectified.
	NoDistortion = DistortionModel("none")
)

// PinholeIntrinsics holds the parameters of a perspective projection.
type PinholeIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid checks the intrinsics are usable and the principal point lies inside the image.
func (params PinholeIntrinsics) CheckValid(field string) error {
	if params.Width <= 0 || params.Height <= 0 {
		return newCalibrationError(field+".resolution", "invalid size (%d, %d)", params.Width, params.Height)
	}
	if params.Fx <= 0 {
		return newCalibrationError(field+".intrinsics", "invalid focal length fx = %v", params.Fx)
	}
	if params.Fy <= 0 {
		return newCalibrationError(field+".intrinsics", "invalid focal length fy = %v", params.Fy)
	}
	if params.Ppx < 0 || params.Ppx >= float64(params.Width) {
		return newCalibrationError(field+".intrinsics", "principal point x = %v outside image width %d", params.Ppx, params.Width)
	}
	if params.Ppy < 0 || params.Ppy >= float64(params.Height) {
		return newCalibrationError(field+".intrinsics", "principal point y = %v outside image height %d", params.Ppy, params.Height)
	}
	return nil
}

// CameraParams is the calibration of one camera.
type CameraParams struct {
	CameraID        string
	Intrinsics      PinholeIntrinsics
	DistortionModel DistortionModel
	Distortion      []float64
	FrameRate       float64
	// BodyPoseCam is the camera pose in the body (IMU) frame.
	BodyPoseCam spatialmath.Pose
}

// CheckImageSize fails with a CalibrationError when a runtime image does not match the
// declared resolution.
func (c CameraParams) CheckImageSize(width, height int) error {
	if width != c.Intrinsics.Width || height != c.Intrinsics.Height {
		return newCalibrationError(c.CameraID+".resolution",
			"image dimension and intrinsics don't match Image(%d,%d) != Intrinsics(%d,%d)",
			width, height, c.Intrinsics.Width, c.Intrinsics.Height)
	}
	return nil
}

func (c CameraParams) String() string {
	return fmt.Sprintf("%s: %dx%d fx=%.3f fy=%.3f cx=%.3f cy=%.3f %s%v",
		c.CameraID, c.Intrinsics.Width, c.Intrinsics.Height,
		c.Intrinsics.Fx, c.Intrinsics.Fy, c.Intrinsics.Ppx, c.Intrinsics.Ppy,
		c.DistortionModel, c.Distortion)
}

// cameraSection is the on-disk layout of a camera section.
type cameraSection struct {
	CameraID               string    `json:"camera_id"`
	Intrinsics             []float64 `json:"intrinsics"`
	Resolution             []int     `json:"resolution"`
	DistortionModel        string    `json:"distortion_model"`
	DistortionCoefficients []float64 `json:"distortion_coefficients"`
	RateHz                 float64   `json:"rate_hz"`
	TBS                    []float64 `json:"T_BS"`
}

func (section cameraSection) toParams(name string) (CameraParams, error) {
	if len(section.Intrinsics) != 4 {
		return CameraParams{}, newCalibrationError(name+".intrinsics", "expected [fu, fv, cu, cv], got %d values", len(section.Intrinsics))
	}
	if len(section.Resolution) != 2 {
		return CameraParams{}, newCalibrationError(name+".resolution", "expected [width, height], got %d values", len(section.Resolution))
	}
	intrinsics := PinholeIntrinsics{
		Width:  section.Resolution[0],
		Height: section.Resolution[1],
		Fx:     section.Intrinsics[0],
		Fy:     section.Intrinsics[1],
		Ppx:    section.Intrinsics[2],
		Ppy:    section.Intrinsics[3],
	}
	if err := intrinsics.CheckValid(name); err != nil {
		return CameraParams{}, err
	}

	model := DistortionModel(section.DistortionModel)
	if model == "" {
		model = NoDistortion
	}
	if err := checkDistortion(name, model, section.DistortionCoefficients); err != nil {
		return CameraParams{}, err
	}

	if section.RateHz < 0 {
		return CameraParams{}, newCalibrationError(name+".rate_hz", "frame rate must not be negative, got %v", section.RateHz)
	}

	bodyPoseCam, err := spatialmath.NewPoseFromMatrix(section.TBS)
	if err != nil {
		return CameraParams{}, wrapCalibrationError(err, name+".T_BS", "not a valid rigid transform")
	}

	cameraID := section.CameraID
	if cameraID == "" {
		cameraID = name
	}
	return CameraParams{
		CameraID:        cameraID,
		Intrinsics:      intrinsics,
		DistortionModel: model,
		Distortion:      append([]float64(nil), section.DistortionCoefficients...),
		FrameRate:       section.RateHz,
		BodyPoseCam:     bodyPoseCam,
	}, nil
}

func checkDistortion(name string, model DistortionModel, coeffs []float64) error {
	field := name + ".distortion_coefficients"
	switch model {
	case RadialTangentialDistortion:
		if len(coeffs) != 4 && len(coeffs) != 5 {
			return newCalibrationError(field, "radtan needs 4 or 5 coefficients, got %d", len(coeffs))
		}
	case EquidistantDistortion:
		if len(coeffs) != 4 {
			return newCalibrationError(field, "equidistant needs 4 coefficients, got %d", len(coeffs))
		}
	case NoDistortion:
		for _, c := range coeffs {
			if c != 0 {
				return newCalibrationError(field, "distortion model none with non-zero coefficients %v", coeffs)
			}
		}
	default:
		return newCalibrationError(name+".distortion_model", "do not know how to parse %q distortion model", model)
	}
	return nil
}
