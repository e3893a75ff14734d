package model

import (
	"errors"
	"time"
)

// ReloadState is the outcome of the most recent reload of a daemon.
type ReloadState string

const (
	ReloadUnknown   ReloadState = "Unknown"
	ReloadReloading ReloadState = "Reloading"
	ReloadSuccess   ReloadState = "Success"
	ReloadFailed    ReloadState = "Failed"
)

// ErrInvalidReloadState is returned for a reload state outside the known set.
var ErrInvalidReloadState = errors.New("invalid reload state")

// Validate checks that s is one of the known reload states.
func (s ReloadState) Validate() error {
	switch s {
	case ReloadUnknown, ReloadReloading, ReloadSuccess, ReloadFailed:
		return nil
	default:
		return ErrInvalidReloadState
	}
}

// DaemonReloadState reports when the last reload was requested and answered.
// Times are epoch milliseconds; nil means the backend has no record.
type DaemonReloadState struct {
	LastReloadTime         *int64      `json:"lastReloadTime" yaml:"last_reload_time"`
	LastReloadResponseTime *int64      `json:"lastReloadResponseTime" yaml:"last_reload_response_time"`
	ReloadState            ReloadState `json:"reloadState" yaml:"reload_state"`
}

// RequestedAt returns the time of the last reload request.
func (s DaemonReloadState) RequestedAt() (time.Time, bool) {
	return millis(s.LastReloadTime)
}

// AnsweredAt returns the time the daemon reported the reload result.
func (s DaemonReloadState) AnsweredAt() (time.Time, bool) {
	return millis(s.LastReloadResponseTime)
}

func millis(v *int64) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*v), true
}
