// Package client talks to the daemon resources of the management REST API.
package client

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/daemonview/internal/model"
)

// DefaultTimeout bounds every request when no other timeout is configured.
const DefaultTimeout = 10 * time.Second

// Resource paths relative to the backend base URL.
const (
	daemonsPath     = "rest/daemons"
	reloadPath      = "rest/daemons/reload/"
	reloadStatePath = "rest/daemons/checkReloadState/"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// RequestIDHeader carries the id generated for each command request.
const RequestIDHeader = "X-Request-ID"

// Client is the HTTP collaborator of the daemon list view.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the backend at baseURL, e.g. "http://localhost:8980/opennms/".
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("base url is required")
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	c := &Client{
		base:    base,
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// ListDaemons fetches the daemon list in server order.
func (c *Client) ListDaemons(ctx context.Context) ([]model.Daemon, error) {
	const op = "list daemons"
	endpoint := c.resolve(daemonsPath)

	body, status, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, &FetchError{Op: op, URL: endpoint, StatusCode: status, Err: err}
	}

	daemons, err := model.DecodeDaemons(body)
	if err != nil {
		return nil, &FetchError{Op: op, URL: endpoint, StatusCode: status, Err: err}
	}
	c.logger.Debug("fetched daemon list", "url", endpoint, "count", len(daemons))
	return daemons, nil
}

// Reload asks the backend to reload the configuration of the named daemon.
func (c *Client) Reload(ctx context.Context, name string) error {
	const op = "reload"
	if name == "" {
		return &CommandError{Op: op, Err: errors.New("daemon name is required")}
	}
	endpoint := c.resolve(reloadPath + url.PathEscape(name) + "/")

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return &CommandError{Op: op, Daemon: name, Err: err}
	}
	requestID := newRequestID()
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return &CommandError{Op: op, Daemon: name, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	c.logger.Debug("reload requested", "daemon", name, "request_id", requestID, "status", resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &CommandError{Op: op, Daemon: name, StatusCode: resp.StatusCode, Err: reloadStatusError(resp.StatusCode)}
	}
	return nil
}

// ReloadState fetches the outcome of the most recent reload of the named daemon.
func (c *Client) ReloadState(ctx context.Context, name string) (model.DaemonReloadState, error) {
	const op = "check reload state"
	endpoint := c.resolve(reloadStatePath + url.PathEscape(name))

	body, status, err := c.get(ctx, endpoint)
	if status == http.StatusNotFound {
		err = ErrDaemonNotFound
	}
	if err != nil {
		return model.DaemonReloadState{}, &FetchError{Op: op, URL: endpoint, StatusCode: status, Err: err}
	}

	trimmed := strings.TrimSpace(string(body))
	if status == http.StatusNoContent || trimmed == "" || trimmed == "null" {
		return model.DaemonReloadState{}, &FetchError{Op: op, URL: endpoint, StatusCode: status, Err: ErrDaemonNotFound}
	}

	var state model.DaemonReloadState
	if err := json.Unmarshal(body, &state); err != nil {
		return model.DaemonReloadState{}, &FetchError{Op: op, URL: endpoint, StatusCode: status, Err: fmt.Errorf("decode reload state: %w", err)}
	}
	if err := state.ReloadState.Validate(); err != nil {
		return model.DaemonReloadState{}, &FetchError{Op: op, URL: endpoint, StatusCode: status, Err: fmt.Errorf("%w: %q", err, state.ReloadState)}
	}
	return state, nil
}

// get performs a JSON GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, int, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("unexpected response: %s", http.StatusText(resp.StatusCode))
	}
	return body, resp.StatusCode, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// resolve joins an already escaped relative path onto the base URL.
func (c *Client) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return c.base.String() + path
	}
	return c.base.ResolveReference(ref).String()
}

func newRequestID() string {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return ""
	}
	return id.String()
}
