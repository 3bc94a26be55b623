package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

const (
	DefaultTimeout           = 30 * time.Second
	DefaultUnauthorizedDelay = 1500 * time.Millisecond
)

// Client talks to the vdock server's HTTP API. It is the fallback transport
// for actions and the remote home of profiles.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.SugaredLogger
	clock   clock.Clock

	onUnauthorized    func()
	unauthorizedDelay time.Duration

	mu    sync.Mutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) { c.log = log }
}

func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.clock = clk }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithOnUnauthorized sets the hook run after the server rejected the token.
// It runs once the unauthorized delay has passed, the token is already cleared.
func WithOnUnauthorized(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func WithUnauthorizedDelay(d time.Duration) Option {
	return func(c *Client) { c.unauthorizedDelay = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:           strings.TrimRight(baseURL, "/"),
		http:              &http.Client{Timeout: DefaultTimeout},
		log:               zap.NewNop().Sugar(),
		clock:             clock.New(),
		unauthorizedDelay: DefaultUnauthorizedDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.statusError(method, path, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) statusError(method, path string, resp *http.Response) error {
	serr := &StatusError{
		Method:   method,
		Path:     path,
		Status:   resp.StatusCode,
		Category: Categorize(resp.StatusCode),
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var eb errorBody
	if json.Unmarshal(data, &eb) == nil {
		serr.Message = eb.Error
		if serr.Message == "" {
			serr.Message = eb.Message
		}
		serr.Detail = eb.Detail
	}

	if resp.StatusCode == http.StatusUnauthorized && path != pathLogin {
		c.unauthorized()
	}

	return serr
}

func (c *Client) unauthorized() {
	c.SetToken("")
	c.log.Warnw("server rejected credentials, token cleared")

	if c.onUnauthorized != nil {
		c.clock.AfterFunc(c.unauthorizedDelay, c.onUnauthorized)
	}
}
