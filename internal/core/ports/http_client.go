package ports

import (
	"context"
	"io"
)

// RequestOption customises a single backend request.
type RequestOption func(*RequestOptions)

// RequestOptions carries the per-request settings collected from RequestOption values.
type RequestOptions struct {
	BearerToken string
	Headers     map[string]string
}

// WithBearer authorises the request with an identity provider token instead of
// relying on the session cookie alone.
func WithBearer(token string) RequestOption {
	return func(o *RequestOptions) {
		o.BearerToken = token
	}
}

// WithHeader sets an extra request header.
func WithHeader(key, value string) RequestOption {
	return func(o *RequestOptions) {
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		o.Headers[key] = value
	}
}

// HTTPClient issues credentialed JSON requests to the portal backend.
// Every failure is returned as a *domain.APIError.
type HTTPClient interface {
	// GetJSON decodes a 2xx body into out. A nil out discards the body.
	GetJSON(ctx context.Context, path string, out any, opts ...RequestOption) error
	// PostJSON sends body (nil for no body) and decodes a 2xx response into out.
	PostJSON(ctx context.Context, path string, body, out any, opts ...RequestOption) error
	// Download streams a 2xx body into w and returns the number of bytes copied.
	Download(ctx context.Context, path string, w io.Writer, opts ...RequestOption) (int64, error)
}
