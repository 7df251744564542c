package calibration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/mfkiwl/Kimera-VIO-ROS/logging"
)

// euroc is a trimmed EuRoC MAV calibration.
const euroc = `
left_camera:
  camera_id: cam0
  rate_hz: 20
  resolution: [752, 480]
  intrinsics: [458.654, 457.296, 367.215, 248.375]
  distortion_model: radtan
  distortion_coefficients: [-0.28340811, 0.07395907, 0.00019359, 1.76187114e-05]
  T_BS:
    cols: 4
    rows: 4
    data: [0.0148655429818, -0.999880929698, 0.00414029679422, -0.0216401454975,
           0.999557249008, 0.0149672133247, 0.025715529948, -0.064676986768,
           -0.0257744366974, 0.00375618835797, 0.999660727178, 0.00981073058949,
           0.0, 0.0, 0.0, 1.0]
right_camera:
  camera_id: cam1
  rate_hz: 20
  resolution: [752, 480]
  intrinsics: [457.587, 456.134, 379.999, 255.238]
  distortion_model: radtan
  distortion_coefficients: [-0.28368365, 0.07451284, -0.00010473, -3.55590700e-05]
  T_BS:
    cols: 4
    rows: 4
    data: [0.0125552670891, -0.999755099723, 0.0182237714554, -0.0198435579556,
           0.999598781151, 0.0130119051815, 0.0251588363115, 0.0453689425024,
           -0.0253898008918, 0.0179005838253, 0.999517347078, 0.00786212447038,
           0.0, 0.0, 0.0, 1.0]
imu:
  rate_hz: 200
  gyroscope_noise_density: 1.6968e-04
  gyroscope_random_walk: 1.9393e-05
  accelerometer_noise_density: 2.0000e-3
  accelerometer_random_walk: 3.0000e-3
  imu_integration_sigma: 1.0e-8
  imu_time_shift: 0.0
  n_gravity: [0.0, 0.0, -9.81]
`

func euroSource(t *testing.T) MapSource {
	t.Helper()
	src, err := NewYAMLSourceFromBytes([]byte(euroc))
	test.That(t, err, test.ShouldBeNil)
	return src.(MapSource)
}

func TestLoadStore(t *testing.T) {
	logger := logging.NewTestLogger(t)
	store, err := LoadStore(euroSource(t), logger)
	test.That(t, err, test.ShouldBeNil)

	stereo := store.Stereo()
	test.That(t, stereo.Left.CameraID, test.ShouldEqual, "cam0")
	test.That(t, stereo.Left.Intrinsics.Width, test.ShouldEqual, 752)
	test.That(t, stereo.Left.Intrinsics.Fx, test.ShouldAlmostEqual, 458.654)
	test.That(t, stereo.Left.DistortionModel, test.ShouldEqual, RadialTangentialDistortion)
	test.That(t, stereo.Baseline(), test.ShouldAlmostEqual, 0.110, 0.001)

	test.That(t, store.ImuData().NominalRate, test.ShouldEqual, 200.)
	test.That(t, store.ImuData().NominalPeriod(), test.ShouldAlmostEqual, 0.005)
	test.That(t, store.ImuParams().Gravity, test.ShouldResemble, r3.Vector{Z: -9.81})
	test.That(t, store.ImuParams().AccMisalignment, test.ShouldResemble, identity3)
}

func TestYAMLSourceFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	test.That(t, os.WriteFile(path, []byte(euroc), 0o600), test.ShouldBeNil)

	src, err := NewYAMLSource(path)
	test.That(t, err, test.ShouldBeNil)
	_, err = NewParser(src, logging.NewTestLogger(t)).ParseCameraData()
	test.That(t, err, test.ShouldBeNil)

	_, err = NewYAMLSource(filepath.Join(t.TempDir(), "missing.yaml"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNonOrthonormalRelativePose(t *testing.T) {
	src := euroSource(t)
	src[RightCameraSection]["T_BS"] = []interface{}{
		1.0, 0.3, 0.0, 0.1,
		0.0, 1.0, 0.0, 0.0,
		0.0, 0.0, 1.0, 0.0,
		0.0, 0.0, 0.0, 1.0,
	}
	_, err := NewParser(src, logging.NewTestLogger(t)).ParseCameraData()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, IsCalibrationError(err), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "right_camera.T_BS")
}

func TestMissingFields(t *testing.T) {
	t.Run("missing section", func(t *testing.T) {
		src := euroSource(t)
		delete(src, LeftCameraSection)
		_, err := NewParser(src, logging.NewTestLogger(t)).ParseCameraData()
		test.That(t, IsCalibrationError(err), test.ShouldBeTrue)
	})

	t.Run("missing intrinsics", func(t *testing.T) {
		src := euroSource(t)
		delete(src[LeftCameraSection], "intrinsics")
		_, err := NewParser(src, logging.NewTestLogger(t)).ParseCameraData()
		test.That(t, IsCalibrationError(err), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "left_camera.intrinsics")
	})

	t.Run("missing imu noise", func(t *testing.T) {
		src := euroSource(t)
		delete(src[ImuSection], "gyroscope_noise_density")
		_, _, err := NewParser(src, logging.NewTestLogger(t)).ParseImuData()
		test.That(t, IsCalibrationError(err), test.ShouldBeTrue)
	})
}

func TestDimensionalInconsistency(t *testing.T) {
	t.Run("stereo resolutions differ", func(t *testing.T) {
		src := euroSource(t)
		src[RightCameraSection]["resolution"] = []interface{}{640, 480}
		_, err := NewParser(src, logging.NewTestLogger(t)).ParseCameraData()
		test.That(t, IsCalibrationError(err), test.ShouldBeTrue)
	})

	t.Run("principal point outside image", func(t *testing.T) {
		src := euroSource(t)
		src[LeftCameraSection]["intrinsics"] = []interface{}{458.0, 457.0, 900.0, 248.0}
		_, err := NewParser(src, logging.NewTestLogger(t)).ParseCameraData()
		test.That(t, IsCalibrationError(err), test.ShouldBeTrue)
	})

	t.Run("wrong distortion count", func(t *testing.T) {
		src := euroSource(t)
		src[LeftCameraSection]["distortion_model"] = "equidistant"
		src[LeftCameraSection]["distortion_coefficients"] = []interface{}{0.1, 0.2}
		_, err := NewParser(src, logging.NewTestLogger(t)).ParseCameraData()
		test.That(t, IsCalibrationError(err), test.ShouldBeTrue)
	})

	t.Run("gravity", func(t *testing.T) {
		src := euroSource(t)
		src[ImuSection]["n_gravity"] = []interface{}{0.0, -9.81}
		_, _, err := NewParser(src, logging.NewTestLogger(t)).ParseImuData()
		test.That(t, IsCalibrationError(err), test.ShouldBeTrue)
	})

	t.Run("singular misalignment", func(t *testing.T) {
		src := euroSource(t)
		src[ImuSection]["gyroscope_misalignment"] = []interface{}{1.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 1.0}
		_, _, err := NewParser(src, logging.NewTestLogger(t)).ParseImuData()
		test.That(t, IsCalibrationError(err), test.ShouldBeTrue)
	})
}

func TestCheckImageSize(t *testing.T) {
	store, err := LoadStore(euroSource(t), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	left := store.Stereo().Left

	test.That(t, left.CheckImageSize(752, 480), test.ShouldBeNil)
	err = left.CheckImageSize(640, 480)
	test.That(t, IsCalibrationError(err), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "Image(640,480)")
}

func TestUnknownKeysAreLogged(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	src := euroSource(t)
	src[ImuSection]["made_up"] = 3
	_, _, err := NewParser(src, logger).ParseImuData()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("ignoring unknown calibration keys").Len(), test.ShouldEqual, 1)
}
