package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chaosdash/internal/chaos"
	"chaosdash/internal/session"
)

// Default control endpoint paths.
const (
	PathTelemetry = "/ws"
	PathChaos     = "/api/chaos"
	PathStart     = "/api/load/start"
	PathStop      = "/api/load/stop"
	PathStats     = "/api/stats"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

type Paths struct {
	Chaos string
	Start string
	Stop  string
}

func DefaultPaths() Paths {
	return Paths{Chaos: PathChaos, Start: PathStart, Stop: PathStop}
}

type Options struct {
	BaseURL string
	Paths   Paths
	Timeout time.Duration
	Client  *http.Client
	Logger  *zap.Logger
}

// Client talks to the load-test control API.
type Client struct {
	base   *url.URL
	paths  Paths
	http   *http.Client
	logger *zap.Logger
}

func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", opts.BaseURL)
	}

	if opts.Paths == (Paths{}) {
		opts.Paths = DefaultPaths()
	}
	if opts.Client == nil {
		if opts.Timeout <= 0 {
			opts.Timeout = 10 * time.Second
		}
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Client{
		base:   base,
		paths:  opts.Paths,
		http:   opts.Client,
		logger: opts.Logger.Named("api"),
	}, nil
}

// StartSession asks the server to begin a load session.
func (c *Client) StartSession(ctx context.Context, req session.Request) error {
	return c.post(ctx, c.paths.Start, req)
}

// StopSession asks the server to end the running session.
func (c *Client) StopSession(ctx context.Context) error {
	return c.post(ctx, c.paths.Stop, nil)
}

// UpdateChaos sends the complete chaos config.
func (c *Client) UpdateChaos(ctx context.Context, cfg chaos.Config) error {
	return c.post(ctx, c.paths.Chaos, cfg)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(b)
	}

	endpoint := c.base.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request done",
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Method: http.MethodPost,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
