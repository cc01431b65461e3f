package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	v1 "github.com/InferaIO/infera/internal/http/v1"
	"github.com/InferaIO/infera/internal/tracker"
)

func newTestHandler() http.Handler {
	st := tracker.NewStore(0)
	return NewServer(&v1.API{
		Directory: tracker.NewDirectory(st),
		Engine:    tracker.NewEngine(st, nil),
		Dispatch:  tracker.NewDispatcher(),
	})
}

func TestAPIPrefixEnforced(t *testing.T) {
	s := newTestHandler()

	// Unversioned path should 404
	req := httptest.NewRequest(http.MethodGet, "/peers", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unversioned path, got %d", rec.Code)
	}

	// Versioned path should 200
	req2 := httptest.NewRequest(http.MethodGet, "/api/v1/peers", nil)
	rec2 := httptest.NewRecorder()
	s.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 for versioned path, got %d", rec2.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for /health, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"status":"ok"}` {
		t.Fatalf("unexpected health body: %s", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for /metrics, got %d", rec.Code)
	}
}
