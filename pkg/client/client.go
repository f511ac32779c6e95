package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mediastore-bridge/internal/bridge"
)

// DefaultTimeout bounds a single invocation when the caller's context has
// no deadline.
const DefaultTimeout = 30 * time.Second

// ErrNotImplemented is returned when the host has no handler for a method.
// It is a capability signal, not a failure of the request.
var ErrNotImplemented = errors.New("method not implemented by host")

// Aliases let callers outside this module name the bridge types.
type (
	Error      = bridge.Error
	Outcome    = bridge.Outcome
	Kind       = bridge.Kind
	MethodCall = bridge.MethodCall
)

// Outcome kinds, for switching on Outcome.Kind.
const (
	KindSuccess        = bridge.KindSuccess
	KindError          = bridge.KindError
	KindNotImplemented = bridge.KindNotImplemented
)

// Structured error codes a host can return.
const (
	CodeInvalidPath = bridge.CodeInvalidPath
	CodeScanFailed  = bridge.CodeScanFailed
)

// MethodScanFile is the name of the scanFile method.
const MethodScanFile = string(bridge.MethodScanFile)

// Config configures a Client.
type Config struct {
	// BaseURL is the host's HTTP root, e.g. http://127.0.0.1:8080.
	BaseURL string
	// Namespace selects the channel "<namespace>/media_store".
	Namespace string
	// Token is sent as a bearer token when non-empty.
	Token      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client issues invocations on a media_store channel.
type Client struct {
	endpoint string
	channel  bridge.Channel
	token    string
	http     *http.Client
	timeout  time.Duration
}

// New creates a client for the configured channel.
func New(cfg Config) (*Client, error) {
	channel, err := bridge.NewChannel(cfg.Namespace)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		endpoint: base.JoinPath("api", "channels", channel.Namespace(), bridge.ChannelSuffix, "invoke").String(),
		channel:  channel,
		token:    cfg.Token,
		http:     httpClient,
		timeout:  timeout,
	}, nil
}

// Channel returns the channel this client talks to.
func (c *Client) Channel() bridge.Channel {
	return c.channel
}

// ScanFile asks the host to index path. It returns nil on success, a
// *bridge.Error when the host rejected or failed the request, and
// ErrNotImplemented when the host has no scan action. Any other error is
// a transport failure.
func (c *Client) ScanFile(ctx context.Context, path string) error {
	outcome, err := c.Invoke(ctx, bridge.MethodCall{
		Method: string(bridge.MethodScanFile),
		Args:   map[string]any{"path": path},
	})
	if err != nil {
		return err
	}
	switch outcome.Kind {
	case bridge.KindError:
		return outcome.Err
	case bridge.KindNotImplemented:
		return ErrNotImplemented
	default:
		return nil
	}
}

// Invoke sends a raw method call and decodes the outcome.
func (c *Client) Invoke(ctx context.Context, call bridge.MethodCall) (bridge.Outcome, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(call)
	if err != nil {
		return bridge.Outcome{}, fmt.Errorf("encode %s call: %w", call.Method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return bridge.Outcome{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return bridge.Outcome{}, fmt.Errorf("invoke %s on %s: %w", call.Method, c.channel, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return bridge.Outcome{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return bridge.Outcome{}, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	var env bridge.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return bridge.Outcome{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env.Outcome()
}

// StatusError is a non-200 HTTP answer from the host.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("host answered %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("host answered %d: %s", e.StatusCode, e.Message)
}

func errorMessage(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(data))
}
