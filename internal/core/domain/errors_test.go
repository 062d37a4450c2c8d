package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindForStatus(t *testing.T) {
	tests := map[int]ErrorKind{
		400: KindClient,
		401: KindUnauthorized,
		403: KindClient,
		404: KindClient,
		409: KindClient,
		500: KindServer,
		503: KindServer,
		302: KindClient,
	}
	for status, want := range tests {
		if got := KindForStatus(status); got != want {
			t.Errorf("KindForStatus(%d) = %s, want %s", status, got, want)
		}
	}
}

func TestNewStatusError_GenericMessage(t *testing.T) {
	err := NewStatusError(500, "")
	if err.Message != GenericErrorMessage {
		t.Fatalf("expected generic message, got %q", err.Message)
	}
	if err.Error() != "server (500): Erro na requisição" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestAPIError_Wrapping(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("login: %w", NewTransportError(cause))

	if KindOf(wrapped) != KindTransport {
		t.Fatalf("expected transport kind through wrapping")
	}
	if !errors.Is(wrapped, cause) {
		t.Fatalf("expected cause to be reachable")
	}
	if Message(wrapped) != "connection refused" {
		t.Fatalf("unexpected message %q", Message(wrapped))
	}
	if IsUnauthorized(wrapped) {
		t.Fatalf("transport error is not unauthorized")
	}
	if !IsUnauthorized(fmt.Errorf("x: %w", NewStatusError(401, ""))) {
		t.Fatalf("expected unauthorized through wrapping")
	}
}

func TestMessage(t *testing.T) {
	if Message(nil) != "" {
		t.Fatalf("nil error must have empty message")
	}
	if Message(errors.New("plain")) != "plain" {
		t.Fatalf("plain errors use Error()")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("plain errors have no kind")
	}
}

func TestExportFormat_Valid(t *testing.T) {
	for _, f := range []ExportFormat{ExportCSV, ExportXLSX} {
		if !f.Valid() {
			t.Errorf("%s should be valid", f)
		}
	}
	for _, f := range []ExportFormat{"pdf", "", "CSV"} {
		if f.Valid() {
			t.Errorf("%q should be invalid", f)
		}
	}
}
