// Package httpclient talks JSON to the portal backend. The session cookie is
// kept in an in-memory jar and sent with every request.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"github.com/editais-pncp/portal-client/internal/core/domain"
	"github.com/editais-pncp/portal-client/internal/core/ports"
	"github.com/editais-pncp/portal-client/internal/infrastructure/metrics"
)

const (
	defaultTimeout   = 30 * time.Second
	maxErrorBodySize = 1 << 20
	headerRequestID  = "X-Request-ID"
)

var _ ports.HTTPClient = (*Client)(nil)

// Config captures the settings for talking to the backend.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Transport overrides the default round tripper (tests).
	Transport http.RoundTripper
}

// Client is the credentialed backend client.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// New creates a Client with its own cookie jar.
// A default timeout is applied when none is provided.
func New(cfg Config, log zerolog.Logger) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http: &http.Client{
			Jar:       jar,
			Timeout:   timeout,
			Transport: cfg.Transport,
		},
		log: log,
	}, nil
}

// URL resolves path against the base URL. Absolute URLs pass through.
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if c.baseURL == "" {
		return path
	}
	return c.baseURL + path
}

// GetJSON implements ports.HTTPClient.
func (c *Client) GetJSON(ctx context.Context, path string, out any, opts ...ports.RequestOption) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeBody(resp.Body, out)
}

// PostJSON implements ports.HTTPClient.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any, opts ...ports.RequestOption) error {
	resp, err := c.do(ctx, http.MethodPost, path, body, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeBody(resp.Body, out)
}

// Download implements ports.HTTPClient.
func (c *Client) Download(ctx context.Context, path string, w io.Writer, opts ...ports.RequestOption) (int64, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, opts)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, domain.NewTransportError(fmt.Errorf("download %s: %w", path, err))
	}
	return n, nil
}

// do sends the request and returns the response only for 2xx statuses. Every
// other outcome is returned as a *domain.APIError.
func (c *Client) do(ctx context.Context, method, path string, body any, opts []ports.RequestOption) (*http.Response, error) {
	var ro ports.RequestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, domain.NewTransportError(fmt.Errorf("encode request body: %w", err))
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), reqBody)
	if err != nil {
		return nil, domain.NewTransportError(fmt.Errorf("build request: %w", err))
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, requestID)
	if ro.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+ro.BearerToken)
	}
	for k, v := range ro.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveRequest(method, path, 0, elapsed)
		c.log.Debug().Err(err).
			Str("method", method).
			Str("path", path).
			Str("request_id", requestID).
			Msg("backend request failed")
		return nil, domain.NewTransportError(err)
	}

	metrics.ObserveRequest(method, path, resp.StatusCode, elapsed)
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Str("request_id", requestID).
		Msg("backend request")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	return nil, statusError(resp)
}

// errorEnvelope is the optional body of a failed response.
type errorEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// statusError maps a non-2xx response to an APIError. A missing or unparseable
// body is treated as an empty envelope.
func statusError(resp *http.Response) *domain.APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

	var env errorEnvelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			env = errorEnvelope{}
		}
	}

	msg := env.Message
	if msg == "" {
		msg = env.Error
	}
	return domain.NewStatusError(resp.StatusCode, msg)
}

// decodeBody decodes a 2xx body into out, keeping numbers as json.Number so
// identifiers are not reformatted. An empty body leaves out untouched.
func decodeBody(r io.Reader, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, r)
		return nil
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.NewTransportError(fmt.Errorf("decode response: %w", err))
	}
	return nil
}
