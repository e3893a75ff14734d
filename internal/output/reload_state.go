package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/daemonview/internal/model"
)

// reloadStateRecord is the exported shape of a reload state.
type reloadStateRecord struct {
	Daemon                  string `json:"daemon" yaml:"daemon"`
	model.DaemonReloadState `yaml:",inline"`
}

// FormatReloadState writes the reload state of one daemon.
// Table and plain formats print one "key: value" line per field.
func FormatReloadState(w io.Writer, format FormatType, name string, state model.DaemonReloadState) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(reloadStateRecord{Daemon: name, DaemonReloadState: state})
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(reloadStateRecord{Daemon: name, DaemonReloadState: state}); err != nil {
			return err
		}
		return encoder.Close()
	case FormatNames:
		_, err := fmt.Fprintln(w, state.ReloadState)
		return err
	default:
		requested, hasRequested := state.RequestedAt()
		answered, hasAnswered := state.AnsweredAt()
		_, err := fmt.Fprintf(w, "daemon:    %s\nstate:     %s\nrequested: %s\nanswered:  %s\n",
			name, state.ReloadState,
			describeTime(requested, hasRequested),
			describeTime(answered, hasAnswered))
		return err
	}
}

func describeTime(t time.Time, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", t.Format(time.RFC3339), humanize.Time(t))
}
