package bridge

import (
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/mfkiwl/Kimera-VIO-ROS/calibration"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	test.That(t, cfg.Validate(ConfigSection), test.ShouldBeNil)
	d, err := cfg.popTimeout()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldEqual, 100*time.Millisecond)
	age, err := cfg.landmarkMaxAge()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, age, test.ShouldEqual, time.Duration(0))
}

func TestNewConfigFromMap(t *testing.T) {
	cfg, err := NewConfigFromMap(map[string]interface{}{
		"world_frame_id":   "odom",
		"queue_capacity":   "3",
		"landmark_max_age": "2s",
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.WorldFrameID, test.ShouldEqual, "odom")
	test.That(t, cfg.BaseLinkFrameID, test.ShouldEqual, "base_link")
	test.That(t, cfg.QueueCapacity, test.ShouldEqual, 3)

	pub := cfg.publisherConfig()
	test.That(t, pub.LandmarkMaxAge, test.ShouldEqual, 2*time.Second)
	test.That(t, pub.Resiliency.StereoInliers, test.ShouldEqual, 5)

	_, err = NewConfigFromMap(map[string]interface{}{"queue_capcity": 3})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "queue_capcity")
}

func TestConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		modify func(cfg *Config)
		errMsg string
	}{
		{"missing world frame", func(cfg *Config) { cfg.WorldFrameID = "" }, "world_frame_id"},
		{"missing body frame", func(cfg *Config) { cfg.BaseLinkFrameID = "" }, "base_link_frame_id"},
		{"missing camera frame", func(cfg *Config) { cfg.LeftCameraFrameID = "" }, "left_camera_frame_id"},
		{"same frames", func(cfg *Config) { cfg.BaseLinkFrameID = cfg.WorldFrameID }, "must differ"},
		{"zero capacity", func(cfg *Config) { cfg.QueueCapacity = 0 }, "queue_capacity"},
		{"bad timeout", func(cfg *Config) { cfg.PopTimeout = "soon" }, "pop_timeout"},
		{"negative timeout", func(cfg *Config) { cfg.PopTimeout = "-1s" }, "pop_timeout"},
		{"negative age", func(cfg *Config) { cfg.LandmarkMaxAge = "-1s" }, "landmark_max_age"},
		{"scale too big", func(cfg *Config) { cfg.DebugImageScale = 2 }, "debug_image_scale"},
		{"zero depth scale", func(cfg *Config) { cfg.DepthScale = 0 }, "depth_scale"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := cfg.Validate("bridge")
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.errMsg)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(calibration.MapSource{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg, test.ShouldResemble, DefaultConfig())

	cfg, err = LoadConfig(calibration.MapSource{
		ConfigSection: {"debug_image_scale": 0.5},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.DebugImageScale, test.ShouldEqual, 0.5)

	_, err = LoadConfig(calibration.MapSource{
		ConfigSection: {"debug_image_scale": 0},
	})
	test.That(t, err, test.ShouldNotBeNil)
}
