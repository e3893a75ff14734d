package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Backend answers to a reload request.
var (
	ErrDaemonNotFound    = errors.New("daemon not found")
	ErrNotReloadable     = errors.New("daemon is not reloadable")
	ErrReloadTooFrequent = errors.New("daemon was reloaded too recently")
)

// FetchError reports a failed read from the management backend: a transport
// failure, a non-success status, or a payload that does not decode.
type FetchError struct {
	Op         string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// CommandError reports a failed command request such as a reload.
type CommandError struct {
	Op         string
	Daemon     string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *CommandError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.Daemon, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Daemon, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// reloadStatusError maps the reload endpoint's documented status codes.
func reloadStatusError(code int) error {
	switch code {
	case http.StatusNotFound:
		return ErrDaemonNotFound
	case http.StatusPreconditionRequired:
		return ErrNotReloadable
	case http.StatusTooManyRequests:
		return ErrReloadTooFrequent
	default:
		return fmt.Errorf("unexpected response: %s", http.StatusText(code))
	}
}

// AsFetchError wraps err in a FetchError unless it already is one.
func AsFetchError(op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Op: op, Err: err}
}
