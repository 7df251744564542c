package calibration

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/mfkiwl/Kimera-VIO-ROS/spatialmath"
)

var identity3 = [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}

// ImuData describes the IMU stream itself.
type ImuData struct {
	// NominalRate is the declared sample rate in Hz.
	NominalRate float64
	// BodyPoseImu is the IMU pose in the body frame; identity when the IMU defines the body.
	BodyPoseImu spatialmath.Pose
}

// NominalPeriod returns the expected time between samples in seconds.
func (d ImuData) NominalPeriod() float64 {
	return 1 / d.NominalRate
}

// ImuParams holds the noise model, bias priors and intrinsic corrections of the IMU.
type ImuParams struct {
	GyroNoiseDensity float64
	GyroRandomWalk   float64
	AccNoiseDensity  float64
	AccRandomWalk    float64
	IntegrationSigma float64
	// TimeShift is added to IMU timestamps, in seconds.
	TimeShift float64
	// Gravity is the gravity vector in the navigation frame.
	Gravity r3.Vector
	// AccMisalignment and GyroMisalignment are row-major scale/misalignment matrices.
	AccMisalignment  [9]float64
	GyroMisalignment [9]float64
}

type imuSection struct {
	GyroNoiseDensity  float64   `json:"gyroscope_noise_density"`
	GyroRandomWalk    float64   `json:"gyroscope_random_walk"`
	AccNoiseDensity   float64   `json:"accelerometer_noise_density"`
	AccRandomWalk     float64   `json:"accelerometer_random_walk"`
	IntegrationSigma  float64   `json:"imu_integration_sigma"`
	TimeShift         float64   `json:"imu_time_shift"`
	NGravity          []float64 `json:"n_gravity"`
	RateHz            float64   `json:"rate_hz"`
	AccMisalignment   []float64 `json:"accelerometer_misalignment"`
	GyroMisalignment  []float64 `json:"gyroscope_misalignment"`
	TBS               []float64 `json:"T_BS"`
}

var requiredImuFields = []string{
	"gyroscope_noise_density",
	"gyroscope_random_walk",
	"accelerometer_noise_density",
	"accelerometer_random_walk",
	"rate_hz",
	"n_gravity",
}

func (section imuSection) toData(name string) (ImuData, ImuParams, error) {
	for field, v := range map[string]float64{
		"gyroscope_noise_density":     section.GyroNoiseDensity,
		"gyroscope_random_walk":       section.GyroRandomWalk,
		"accelerometer_noise_density": section.AccNoiseDensity,
		"accelerometer_random_walk":   section.AccRandomWalk,
	} {
		if v <= 0 || math.IsNaN(v) {
			return ImuData{}, ImuParams{}, newCalibrationError(name+"."+field, "must be positive, got %v", v)
		}
	}
	if section.IntegrationSigma < 0 {
		return ImuData{}, ImuParams{}, newCalibrationError(name+".imu_integration_sigma", "must not be negative, got %v", section.IntegrationSigma)
	}
	if section.RateHz <= 0 {
		return ImuData{}, ImuParams{}, newCalibrationError(name+".rate_hz", "must be positive, got %v", section.RateHz)
	}
	if len(section.NGravity) != 3 {
		return ImuData{}, ImuParams{}, newCalibrationError(name+".n_gravity", "expected 3 values, got %d", len(section.NGravity))
	}

	accMis, err := misalignment(name+".accelerometer_misalignment", section.AccMisalignment)
	if err != nil {
		return ImuData{}, ImuParams{}, err
	}
	gyroMis, err := misalignment(name+".gyroscope_misalignment", section.GyroMisalignment)
	if err != nil {
		return ImuData{}, ImuParams{}, err
	}

	bodyPoseImu := spatialmath.NewZeroPose()
	if len(section.TBS) > 0 {
		bodyPoseImu, err = spatialmath.NewPoseFromMatrix(section.TBS)
		if err != nil {
			return ImuData{}, ImuParams{}, wrapCalibrationError(err, name+".T_BS", "not a valid rigid transform")
		}
	}

	data := ImuData{NominalRate: section.RateHz, BodyPoseImu: bodyPoseImu}
	params := ImuParams{
		GyroNoiseDensity: section.GyroNoiseDensity,
		GyroRandomWalk:   section.GyroRandomWalk,
		AccNoiseDensity:  section.AccNoiseDensity,
		AccRandomWalk:    section.AccRandomWalk,
		IntegrationSigma: section.IntegrationSigma,
		TimeShift:        section.TimeShift,
		Gravity:          r3.Vector{X: section.NGravity[0], Y: section.NGravity[1], Z: section.NGravity[2]},
		AccMisalignment:  accMis,
		GyroMisalignment: gyroMis,
	}
	return data, params, nil
}

// misalignment defaults to the identity and rejects singular matrices.
func misalignment(field string, values []float64) ([9]float64, error) {
	if len(values) == 0 {
		return identity3, nil
	}
	if len(values) != 9 {
		return [9]float64{}, newCalibrationError(field, "expected 9 values, got %d", len(values))
	}
	if det := mat.Det(mat.NewDense(3, 3, append([]float64(nil), values...))); math.Abs(det) < 1e-9 {
		return [9]float64{}, newCalibrationError(field, "matrix is singular")
	}
	var out [9]float64
	copy(out[:], values)
	return out, nil
}
