package calibration

import (
	"os"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ParamSource is the external configuration source calibration is read from. Sections are
// top-level keys such as "left_camera" or "imu".
type ParamSource interface {
	Section(name string) (map[string]interface{}, error)
}

// MapSource is an in-memory ParamSource.
type MapSource map[string]map[string]interface{}

// Section returns the named section, or a CalibrationError if it is absent.
func (src MapSource) Section(name string) (map[string]interface{}, error) {
	section, ok := src[name]
	if !ok {
		return nil, newCalibrationError(name, "section is missing")
	}
	return section, nil
}

// NewYAMLSource reads a YAML parameter file whose top-level keys are sections.
func NewYAMLSource(path string) (ParamSource, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read parameter file %q", path)
	}
	return NewYAMLSourceFromBytes(data)
}

// NewYAMLSourceFromBytes parses YAML parameter content.
func NewYAMLSourceFromBytes(data []byte) (ParamSource, error) {
	raw := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "cannot parse parameter YAML")
	}
	src := MapSource{}
	for name, value := range raw {
		section, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		src[name] = section
	}
	return src, nil
}

// decodeSection decodes a section into out, first making sure every required key is present.
// Unknown keys are returned so callers can warn about them.
func decodeSection(src ParamSource, name string, out interface{}, required ...string) ([]string, error) {
	section, err := src.Section(name)
	if err != nil {
		if IsCalibrationError(err) {
			return nil, err
		}
		return nil, wrapCalibrationError(err, name, "cannot read section")
	}
	for _, key := range required {
		if v, ok := section[key]; !ok || v == nil {
			return nil, newCalibrationError(name+"."+key, "required field is absent")
		}
	}

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     out,
		Metadata:   &md,
		DecodeHook: matrixDataHook,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(section); err != nil {
		return nil, wrapCalibrationError(err, name, "cannot decode section")
	}
	return md.Unused, nil
}

// matrixDataHook accepts OpenCV-style matrices ({rows, cols, data: [...]}) wherever a flat
// []float64 is expected.
func matrixDataHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf([]float64(nil)) || from.Kind() != reflect.Map {
		return data, nil
	}
	m, ok := data.(map[string]interface{})
	if !ok {
		return data, nil
	}
	values, ok := m["data"]
	if !ok {
		return nil, errors.New("matrix is missing its data field")
	}
	return values, nil
}
