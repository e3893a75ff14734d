// Package model defines the records exchanged with the daemon management API.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Status is the observed run state of a daemon.
// The set is open: values not listed below are kept verbatim.
type Status string

// Statuses reported by the management backend.
const (
	StatusRunning          Status = "Running"
	StatusStopped          Status = "Stopped"
	StatusPartiallyRunning Status = "PartiallyRunning"
)

// Known reports whether s is one of the statuses the console has a style for.
func (s Status) Known() bool {
	switch s {
	case StatusRunning, StatusStopped, StatusPartiallyRunning:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// Daemon is one entry of the daemon list.
type Daemon struct {
	ID      int64  `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Status  Status `json:"status" yaml:"status"`
}

// Decoding errors.
var (
	ErrNotArray      = errors.New("daemon list must be a JSON array")
	ErrMissingID     = errors.New("daemon id is required")
	ErrEmptyName     = errors.New("daemon name cannot be empty")
	ErrMissingStatus = errors.New("daemon status is required")
)

// wireDaemon mirrors Daemon with pointers so absent fields can be told apart
// from zero values.
type wireDaemon struct {
	ID      *int64  `json:"id"`
	Name    *string `json:"name"`
	Enabled *bool   `json:"enabled"`
	Status  *string `json:"status"`
}

func (w wireDaemon) daemon() (Daemon, error) {
	if w.ID == nil {
		return Daemon{}, ErrMissingID
	}
	if w.Name == nil || *w.Name == "" {
		return Daemon{}, ErrEmptyName
	}
	if w.Status == nil {
		return Daemon{}, ErrMissingStatus
	}
	d := Daemon{
		ID:     *w.ID,
		Name:   *w.Name,
		Status: Status(*w.Status),
	}
	if w.Enabled != nil {
		d.Enabled = *w.Enabled
	}
	return d, nil
}

// DecodeDaemons decodes a daemon list payload, keeping the payload order.
// Extra fields are ignored; wrong types and missing required fields fail.
func DecodeDaemons(data []byte) ([]Daemon, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotArray
	}

	var wire []wireDaemon
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("decode daemon list: %w", err)
	}

	daemons := make([]Daemon, 0, len(wire))
	for i, w := range wire {
		d, err := w.daemon()
		if err != nil {
			return nil, fmt.Errorf("daemon at index %d: %w", i, err)
		}
		daemons = append(daemons, d)
	}
	return daemons, nil
}

// Find returns the daemon with the given name.
func Find(daemons []Daemon, name string) (Daemon, bool) {
	for _, d := range daemons {
		if d.Name == name {
			return d, true
		}
	}
	return Daemon{}, false
}
