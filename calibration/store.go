package calibration

import (
	"github.com/mfkiwl/Kimera-VIO-ROS/logging"
)

// Section names in the parameter source.
const (
	LeftCameraSection  = "left_camera"
	RightCameraSection = "right_camera"
	ImuSection         = "imu"
)

var requiredCameraFields = []string{"intrinsics", "resolution", "T_BS"}

// Parser reads calibration out of a ParamSource.
type Parser struct {
	src    ParamSource
	logger logging.Logger
}

// NewParser returns a parser over src.
func NewParser(src ParamSource, logger logging.Logger) *Parser {
	return &Parser{src: src, logger: logger}
}

// ParseCameraData parses both cameras and derives the relative pose between them.
func (p *Parser) ParseCameraData() (StereoCalibration, error) {
	left, err := p.parseCamera(LeftCameraSection)
	if err != nil {
		return StereoCalibration{}, err
	}
	right, err := p.parseCamera(RightCameraSection)
	if err != nil {
		return StereoCalibration{}, err
	}
	stereo, err := newStereoCalibration(left, right)
	if err != nil {
		return StereoCalibration{}, err
	}
	p.logger.Debugw("parsed stereo calibration",
		"left", left.String(), "right", right.String(), "baseline", stereo.Baseline())
	return stereo, nil
}

// ParseImuData parses the IMU section.
func (p *Parser) ParseImuData() (ImuData, ImuParams, error) {
	var section imuSection
	unused, err := decodeSection(p.src, ImuSection, &section, requiredImuFields...)
	if err != nil {
		return ImuData{}, ImuParams{}, err
	}
	p.warnUnused(ImuSection, unused)
	data, params, err := section.toData(ImuSection)
	if err != nil {
		return ImuData{}, ImuParams{}, err
	}
	p.logger.Debugw("parsed imu calibration", "rate_hz", data.NominalRate, "gravity", params.Gravity)
	return data, params, nil
}

func (p *Parser) parseCamera(name string) (CameraParams, error) {
	var section cameraSection
	unused, err := decodeSection(p.src, name, &section, requiredCameraFields...)
	if err != nil {
		return CameraParams{}, err
	}
	p.warnUnused(name, unused)
	return section.toParams(name)
}

func (p *Parser) warnUnused(section string, keys []string) {
	if len(keys) > 0 {
		p.logger.Warnw("ignoring unknown calibration keys", "section", section, "keys", keys)
	}
}

// Store is the immutable calibration of a session. It is built once at startup and shared
// read-only by every component.
type Store struct {
	stereo    StereoCalibration
	imuData   ImuData
	imuParams ImuParams
}

// LoadStore parses the full calibration. Any failure is a CalibrationError.
func LoadStore(src ParamSource, logger logging.Logger) (*Store, error) {
	parser := NewParser(src, logger)
	stereo, err := parser.ParseCameraData()
	if err != nil {
		return nil, err
	}
	imuData, imuParams, err := parser.ParseImuData()
	if err != nil {
		return nil, err
	}
	return &Store{stereo: stereo, imuData: imuData, imuParams: imuParams}, nil
}

// NewStore wraps already validated calibration.
func NewStore(stereo StereoCalibration, imuData ImuData, imuParams ImuParams) *Store {
	return &Store{stereo: stereo, imuData: imuData, imuParams: imuParams}
}

// Stereo returns the stereo calibration.
func (s *Store) Stereo() StereoCalibration {
	return s.stereo
}

// ImuData returns the IMU stream description.
func (s *Store) ImuData() ImuData {
	return s.imuData
}

// ImuParams returns the IMU noise model.
func (s *Store) ImuParams() ImuParams {
	return s.imuParams
}
