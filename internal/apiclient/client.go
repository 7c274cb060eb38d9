package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const maxResponseBytes = 2 * 1024 * 1024

// Kind classifies a failed request the way the UI reports it
type Kind int

const (
	// KindTransport means no usable response reached us
	KindTransport Kind = iota + 1
	// KindRejected means the backend answered with a non-2xx status
	KindRejected
	// KindDecode means the backend answered but the body was unreadable
	KindDecode
	// KindRequest means the request could not be built locally
	KindRequest
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRejected:
		return "rejected"
	case KindDecode:
		return "decode"
	case KindRequest:
		return "request"
	default:
		return "unknown"
	}
}

// RequestError describes a failed call. StatusCode is 0 when no response
// arrived.
type RequestError struct {
	Op         string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Err != nil && e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d", e.Op, e.StatusCode)
	default:
		return e.Op
	}
}

func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsTransport reports whether err is a connectivity failure
func IsTransport(err error) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Kind == KindTransport
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// StatusCode returns the backend status carried by err, or 0
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}

// Client talks to the Aponte backend. The bearer token is attached to every
// request once set.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient validates baseURL and builds a client with the given timeout.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, &RequestError{Op: "create api client", Kind: KindRequest, Err: errors.New("api base url is empty")}
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, &RequestError{Op: "parse api base url", Kind: KindRequest, Err: err}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, &RequestError{
			Op:   "validate api base url",
			Kind: KindRequest,
			Err:  fmt.Errorf("invalid api base url: %s", trimmed),
		}
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// SetToken replaces the bearer token; an empty token sends anonymous requests
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// BaseURL returns the normalized backend root
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, requestBody, responseBody interface{}) (int, error) {
	var body io.Reader
	if requestBody != nil {
		payload, err := json.Marshal(requestBody)
		if err != nil {
			return 0, &RequestError{Op: op, Kind: KindRequest, Err: err}
		}
		body = bytes.NewReader(payload)
	}

	contentType := ""
	if body != nil {
		contentType = "application/json"
	}

	status, raw, err := c.do(ctx, op, method, path, body, contentType)
	if err != nil {
		return status, err
	}
	if responseBody == nil || len(raw) == 0 {
		return status, nil
	}

	if err := json.Unmarshal(raw, responseBody); err != nil {
		return status, &RequestError{Op: op, Kind: KindDecode, StatusCode: status, Err: err}
	}
	return status, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+ensureLeadingSlash(path), body)
	if err != nil {
		return 0, nil, &RequestError{Op: op, Kind: KindRequest, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &RequestError{Op: op, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if readErr != nil {
		return resp.StatusCode, nil, &RequestError{Op: op, Kind: KindTransport, StatusCode: resp.StatusCode, Err: readErr}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, raw, &RequestError{
			Op:         op,
			Kind:       KindRejected,
			StatusCode: resp.StatusCode,
			Err:        errors.New(errorMessage(resp.StatusCode, raw)),
		}
	}

	return resp.StatusCode, raw, nil
}

// errorMessage prefers the backend's {"error": "..."} or {"message": "..."} text
func errorMessage(status int, raw []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return http.StatusText(status)
}

func ensureLeadingSlash(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "/"
	}
	if strings.HasPrefix(trimmed, "/") {
		return trimmed
	}
	return "/" + trimmed
}
