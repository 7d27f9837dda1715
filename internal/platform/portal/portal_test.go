package portal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ems/internal/platform/config"
)

func TestPushRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := New(config.Config{PortalBaseURL: srv.URL, PortalTimeout: 5 * time.Second, PortalRetries: 2})
	if err := p.Push(context.Background(), "e1", "test", "hello"); err != nil {
		t.Fatalf("push should succeed on retry: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestPushDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	p := New(config.Config{PortalBaseURL: srv.URL, PortalTimeout: 5 * time.Second, PortalRetries: 3})
	if err := p.Push(context.Background(), "e1", "test", "hello"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestNoopWhenUnconfigured(t *testing.T) {
	p := New(config.Config{})
	if err := p.Push(context.Background(), "e1", "test", "hello"); err != nil {
		t.Fatalf("noop push: %v", err)
	}
}
