package marketapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"marketplace-client/internal/domain"
	"marketplace-client/pkg/logger"

	"golang.org/x/time/rate"
)

// Config is everything the client needs; there is no package-level state.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	log        logger.Logger

	tokenMu sync.RWMutex
	token   string
}

func NewClient(cfg Config, log logger.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http(s), got %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		userAgent:  cfg.UserAgent,
		log:        log,
	}, nil
}

// BaseURL returns the API base the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) SetToken(token string) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.token
}

type request struct {
	op     string
	method string
	path   []string
	query  url.Values
	body   interface{}
	// raw bodies (multipart) bypass JSON encoding
	rawBody     io.Reader
	contentType string
}

func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", req.op, err)
	}

	u := c.baseURL.JoinPath(req.path...)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	contentType := req.contentType
	switch {
	case req.rawBody != nil:
		body = req.rawBody
	case req.body != nil:
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", req.op, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", req.op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if token := c.Token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", req.op, ctxErr)
		}
		c.log.Warn("Marketplace API unreachable", "op", req.op, "url", u.String(), "error", err)
		return &domain.APIError{Op: req.op, Kind: domain.ErrTransportUnavailable, Detail: err.Error()}
	}
	defer resp.Body.Close()

	c.log.Debug("Marketplace API call",
		"op", req.op,
		"method", req.method,
		"url", u.String(),
		"status", resp.StatusCode,
		"latency", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(req.op, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.APIError{
			Op:     req.op,
			Status: resp.StatusCode,
			Kind:   domain.ErrTransportUnavailable,
			Detail: fmt.Sprintf("decode response: %v", err),
		}
	}
	return nil
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

func decodeError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	detail := ""
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Detail) > 0 {
		var s string
		if err := json.Unmarshal(body.Detail, &s); err == nil {
			detail = s
		} else {
			detail = string(body.Detail)
		}
	} else if len(raw) > 0 {
		detail = string(bytes.TrimSpace(raw))
	}

	return &domain.APIError{
		Op:     op,
		Status: resp.StatusCode,
		Detail: detail,
		Kind:   kindForStatus(resp.StatusCode),
	}
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.ErrAuthenticationRequired
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status >= 400 && status < 500:
		return domain.ErrValidationRejected
	default:
		return domain.ErrTransportUnavailable
	}
}

// IsAuthFailure reports whether err means the stored session is no longer valid.
func IsAuthFailure(err error) bool {
	return errors.Is(err, domain.ErrAuthenticationRequired)
}
