package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures observed at the HTTP boundary.
type ErrorKind string

const (
	KindTransport    ErrorKind = "transport"
	KindUnauthorized ErrorKind = "unauthorized"
	KindClient       ErrorKind = "client"
	KindServer       ErrorKind = "server"
)

// GenericErrorMessage is used when a failed response carries no readable message.
const GenericErrorMessage = "Erro na requisição"

var ErrUnlinkable = errors.New("notice has no canonical key")
var ErrUnsupportedFormat = errors.New("unsupported export format")
var ErrInvalidPayload = errors.New("invalid payload")

// APIError is the uniform failure value produced by the HTTP client.
// Status is zero for transport failures.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// KindForStatus maps a non-2xx status code to its ErrorKind.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status >= 500:
		return KindServer
	default:
		return KindClient
	}
}

// NewTransportError wraps a network or decode failure.
func NewTransportError(err error) *APIError {
	msg := GenericErrorMessage
	if err != nil {
		msg = err.Error()
	}
	return &APIError{Kind: KindTransport, Message: msg, Err: err}
}

// NewStatusError builds an APIError for a non-2xx response.
func NewStatusError(status int, message string) *APIError {
	if message == "" {
		message = GenericErrorMessage
	}
	return &APIError{Kind: KindForStatus(status), Status: status, Message: message}
}

// KindOf extracts the ErrorKind from err, or "" when err is not an APIError.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsUnauthorized reports whether err is an HTTP 401 from the backend.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// Message returns the human-readable part of err for display.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
