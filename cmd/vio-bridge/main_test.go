package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

const params = `
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
    data: [1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1]
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
    data: [1, 0, 0, 0.11, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1]
imu:
  rate_hz: 200
  gyroscope_noise_density: 1.6968e-04
  gyroscope_random_walk: 1.9393e-05
  accelerometer_noise_density: 2.0000e-3
  accelerometer_random_walk: 3.0000e-3
  imu_integration_sigma: 1.0e-8
  imu_time_shift: 0.0
  n_gravity: [0.0, 0.0, -9.81]
bridge:
  queue_capacity: 4
`

func writeParams(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	test.That(t, os.WriteFile(path, []byte(params), 0o600), test.ShouldBeNil)
	return path
}

func TestRequiresPipeline(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"vio-bridge", "--params", writeParams(t)})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "--fake-pipeline")
}

func TestOnlineRunStopsOnCancel(t *testing.T) {
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	output := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := app.RunContext(ctx, []string{
		"vio-bridge", "--params", writeParams(t), "--output", output, "--fake-pipeline",
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldContainSubstring, "packets published")

	sessions, err := os.ReadDir(output)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sessions, test.ShouldHaveLength, 1)
}

func TestBadParamsFile(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{
		"vio-bridge", "--params", filepath.Join(t.TempDir(), "missing.yaml"), "--fake-pipeline",
	})
	test.That(t, err, test.ShouldNotBeNil)
}
