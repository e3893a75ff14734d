package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/daemonview/internal/model"
)

// JSONFormatter formats daemons as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes daemons as a JSON array, "[]" when empty.
func (f *JSONFormatter) Format(w io.Writer, daemons []model.Daemon) error {
	if daemons == nil {
		daemons = []model.Daemon{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(daemons)
}

// YAMLFormatter formats daemons as YAML.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format writes daemons as a YAML sequence.
func (f *YAMLFormatter) Format(w io.Writer, daemons []model.Daemon) error {
	if daemons == nil {
		daemons = []model.Daemon{}
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(daemons); err != nil {
		return err
	}
	return encoder.Close()
}
