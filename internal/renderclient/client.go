// Package renderclient talks to a running c2g render server.
package renderclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/chess-gif/pkg/renderdto"
)

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

type Client struct {
	baseURL string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the dialer, e.g. with an in-memory listener.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 60 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 60 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status    int
	Code      string
	Message   string
	Retryable bool
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("render api error: status=%d code=%s message=%s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("render api error: status=%d body=%s", e.Status, e.Message)
}

// Render posts pgnText with opts and returns the GIF with the response metadata. Transport errors and
// retryable server errors are retried; identical requests are deduplicated server side.
func (c *Client) Render(ctx context.Context, pgnText string, opts renderdto.RenderOptions) (*renderdto.RenderResult, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(c.baseURL + "/render")
	req.Header.SetContentType("text/plain; charset=utf-8")
	setOptions(req.URI().QueryArgs(), opts)
	req.SetBodyString(pgnText)

	if err := c.do(ctx, req, resp, true); err != nil {
		return nil, err
	}
	h := &resp.Header
	frames, _ := strconv.Atoi(string(h.Peek("X-Frames")))
	return &renderdto.RenderResult{
		RequestID: string(h.Peek("X-Request-Id")),
		GIF:       append([]byte(nil), resp.Body()...),
		CacheKey:  string(h.Peek("X-Cache-Key")),
		Cached:    string(h.Peek("X-Cache")) == "HIT",
		Frames:    frames,
		Result:    string(h.Peek("X-Result")),
	}, nil
}

// History fetches the most recent renders.
func (c *Client) History(ctx context.Context, limit int) ([]renderdto.RenderSummary, error) {
	path := "/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []renderdto.RenderSummary
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health reports whether the server answers its health check.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/healthz", &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("unhealthy: status=%q", out.Status)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(c.baseURL + path)
	if err := c.do(ctx, req, resp, true); err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response, retry bool) error {
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	attempts := 1
	if retry {
		attempts = c.retryMax
		if attempts <= 0 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		deadline := c.computeDeadline(ctx)
		err := c.http.DoDeadline(req, resp, deadline)
		if err != nil {
			if attempt == attempts || !retry {
				return fmt.Errorf("request failed: %w", err)
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			apiErr := decodeError(status, resp.Body())
			if attempt == attempts || !retry || !apiErr.retryable() {
				return apiErr
			}
			lastErr = apiErr
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

// retryable reports whether the request may succeed when repeated. Coded server errors say so
// themselves; bare gateway errors are judged by status.
func (e *APIError) retryable() bool {
	if e.Code != "" {
		return e.Retryable
	}
	return shouldRetryStatus(e.Status)
}

func decodeError(status int, body []byte) *APIError {
	var payload struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Retryable bool   `json:"retryable"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Code != "" {
		return &APIError{Status: status, Code: payload.Code, Message: payload.Message, Retryable: payload.Retryable}
	}
	return &APIError{Status: status, Message: truncate(string(body), 512)}
}

func setOptions(args *fasthttp.Args, o renderdto.RenderOptions) {
	if o.Size > 0 {
		args.Set("size", strconv.Itoa(o.Size))
	}
	if o.Flip != nil {
		args.Set("flip", strconv.FormatBool(*o.Flip))
	}
	for _, kv := range [][2]string{
		{"delay", o.Delay},
		{"first_frame_delay", o.FirstFrameDelay},
		{"last_frame_delay", o.LastFrameDelay},
		{"dark", o.Dark},
		{"light", o.Light},
		{"style", o.Style},
		{"pieces", o.Pieces},
		{"theme", o.Theme},
	} {
		if v := strings.TrimSpace(kv[1]); v != "" {
			args.Set(kv[0], v)
		}
	}
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
