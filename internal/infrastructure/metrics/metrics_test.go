package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestRoute(t *testing.T) {
	tests := map[string]string{
		"/api/editais":                      "/api/editais",
		"/api/editais/123_2024_1":           "/api/editais/:key",
		"/api/editais/123_2024_1/itens":     "/api/editais/:key/itens",
		"/api/editais/123_2024_1/itens?x=1": "/api/editais/:key/itens",
		"/api/status":                       "/api/status",
		"/download/editais.csv":             "/download/editais.csv",
	}
	for in, want := range tests {
		if got := Route(in); got != want {
			t.Fatalf("Route(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestObserveRequest_CountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/api/editais/:key", "4xx"))
	ObserveRequest("GET", "/api/editais/abc", 404, 10*time.Millisecond)
	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/api/editais/:key", "4xx"))
	if after-before != 1 {
		t.Fatalf("expected counter to increase by 1, got %v", after-before)
	}

	before = testutil.ToFloat64(RequestsTotal.WithLabelValues("POST", "/login", "transport"))
	ObserveRequest("POST", "/login", 0, time.Millisecond)
	after = testutil.ToFloat64(RequestsTotal.WithLabelValues("POST", "/login", "transport"))
	if after-before != 1 {
		t.Fatalf("expected transport counter to increase by 1, got %v", after-before)
	}
}

func TestServer_ExposesMetricsAndHealth(t *testing.T) {
	ObserveRequest("GET", "/api/status", 200, time.Millisecond)
	srv := NewServer("127.0.0.1:0", zerolog.Nop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "editais_backend_requests_total") {
		t.Fatalf("metrics output missing request counter")
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
