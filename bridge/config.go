package bridge

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/mfkiwl/Kimera-VIO-ROS/calibration"
	"github.com/mfkiwl/Kimera-VIO-ROS/publish"
	"github.com/mfkiwl/Kimera-VIO-ROS/rimage"
)

// ConfigSection is the optional parameter section holding the bridge Config.
const ConfigSection = "bridge"

// A Config describes how the bridge labels, buffers and derives its output.
type Config struct {
	WorldFrameID      string `json:"world_frame_id"`
	BaseLinkFrameID   string `json:"base_link_frame_id"`
	LeftCameraFrameID string `json:"left_camera_frame_id"`

	QueueCapacity int `json:"queue_capacity"`
	// PopTimeout bounds how long shutdown can take to reach the publisher.
	PopTimeout string `json:"pop_timeout"`
	// LandmarkMaxAge is empty for no aging.
	LandmarkMaxAge  string  `json:"landmark_max_age"`
	DebugImageScale float64 `json:"debug_image_scale"`
	// DepthScale divides 16-bit depth values to get meters.
	DepthScale float64 `json:"depth_scale"`

	PositionCovThreshold   float64 `json:"position_cov_threshold"`
	VelocityCovThreshold   float64 `json:"velocity_cov_threshold"`
	StereoInliersThreshold int     `json:"stereo_inliers_threshold"`
	MonoInliersThreshold   int     `json:"mono_inliers_threshold"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		WorldFrameID:           "world",
		BaseLinkFrameID:        "base_link",
		LeftCameraFrameID:      "cam0",
		QueueCapacity:          10,
		PopTimeout:             "100ms",
		DebugImageScale:        1,
		DepthScale:             rimage.DefaultDepthScale,
		PositionCovThreshold:   0.3,
		VelocityCovThreshold:   0.1,
		StereoInliersThreshold: 5,
		MonoInliersThreshold:   5,
	}
}

// NewConfigFromMap overlays attrs onto DefaultConfig. Unknown keys are an error.
func NewConfigFromMap(attrs map[string]interface{}) (Config, error) {
	cfg := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &cfg,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(attrs); err != nil {
		return Config{}, errors.Wrap(err, "cannot decode bridge config")
	}
	return cfg, nil
}

// LoadConfig reads the bridge section of src, falling back to DefaultConfig
// when the section is absent.
func LoadConfig(src calibration.ParamSource) (Config, error) {
	section, err := src.Section(ConfigSection)
	if err != nil {
		return DefaultConfig(), nil
	}
	cfg, err := NewConfigFromMap(section)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate(ConfigSection)
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.WorldFrameID == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "world_frame_id")
	}
	if cfg.BaseLinkFrameID == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "base_link_frame_id")
	}
	if cfg.LeftCameraFrameID == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "left_camera_frame_id")
	}
	if cfg.WorldFrameID == cfg.BaseLinkFrameID {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("world_frame_id and base_link_frame_id must differ, both are %q", cfg.WorldFrameID))
	}
	if cfg.QueueCapacity <= 0 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("queue_capacity must be positive, got %d", cfg.QueueCapacity))
	}
	if _, err := cfg.popTimeout(); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	if _, err := cfg.landmarkMaxAge(); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	if cfg.DebugImageScale <= 0 || cfg.DebugImageScale > 1 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("debug_image_scale must be in (0, 1], got %f", cfg.DebugImageScale))
	}
	if cfg.DepthScale <= 0 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("depth_scale must be positive, got %f", cfg.DepthScale))
	}
	return nil
}

func (cfg *Config) popTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(cfg.PopTimeout)
	if err != nil {
		return 0, errors.Wrap(err, "pop_timeout")
	}
	if d <= 0 {
		return 0, errors.Errorf("pop_timeout must be positive, got %s", d)
	}
	return d, nil
}

func (cfg *Config) landmarkMaxAge() (time.Duration, error) {
	if cfg.LandmarkMaxAge == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(cfg.LandmarkMaxAge)
	if err != nil {
		return 0, errors.Wrap(err, "landmark_max_age")
	}
	if d < 0 {
		return 0, errors.Errorf("landmark_max_age cannot be negative, got %s", d)
	}
	return d, nil
}

func (cfg *Config) publisherConfig() publish.Config {
	maxAge, _ := cfg.landmarkMaxAge()
	return publish.Config{
		WorldFrameID:      cfg.WorldFrameID,
		BaseLinkFrameID:   cfg.BaseLinkFrameID,
		LeftCameraFrameID: cfg.LeftCameraFrameID,
		LandmarkMaxAge:    maxAge,
		DebugImageScale:   cfg.DebugImageScale,
		Resiliency: publish.ResiliencyThresholds{
			PositionCov:   cfg.PositionCovThreshold,
			VelocityCov:   cfg.VelocityCovThreshold,
			StereoInliers: cfg.StereoInliersThreshold,
			MonoInliers:   cfg.MonoInliersThreshold,
		},
	}
}
