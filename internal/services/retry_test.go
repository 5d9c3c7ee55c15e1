package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func fastTransport() *Transport {
	tr := NewTransport(nil, 0, 1, nil)
	tr.BaseBackoff = time.Millisecond
	return tr
}

func TestTransport(t *testing.T) {
	t.Run("retries 5xx then succeeds", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			io.WriteString(w, "ok")
		}))
		defer server.Close()

		client := &http.Client{Transport: fastTransport()}
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
		if calls.Load() != 3 {
			t.Errorf("expected 3 attempts, got %d", calls.Load())
		}
	})

	t.Run("returns last response after max retries", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := &http.Client{Transport: fastTransport()}
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("expected response, got error %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusTooManyRequests {
			t.Errorf("expected 429, got %d", resp.StatusCode)
		}
		if calls.Load() != DefaultMaxRetries {
			t.Errorf("expected %d attempts, got %d", DefaultMaxRetries, calls.Load())
		}
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := &http.Client{Transport: fastTransport()}
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		resp.Body.Close()
		if calls.Load() != 1 {
			t.Errorf("expected 1 attempt, got %d", calls.Load())
		}
	})

	t.Run("replays request body", func(t *testing.T) {
		var bodies []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			bodies = append(bodies, string(b))
			if len(bodies) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
		}))
		defer server.Close()

		req, _ := http.NewRequest(http.MethodPost, server.URL, io.NopCloser(strings.NewReader(`{"a":1}`)))
		resp, err := fastTransport().RoundTrip(req)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		resp.Body.Close()

		if len(bodies) != 2 || bodies[0] != `{"a":1}` || bodies[1] != `{"a":1}` {
			t.Errorf("expected body replayed twice, got %q", bodies)
		}
	})

	t.Run("limiter wait honours cancellation", func(t *testing.T) {
		tr := fastTransport()
		tr.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
		tr.Limiter.Allow()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.invalid", nil)
		if _, err := tr.RoundTrip(req); err == nil {
			t.Fatal("expected error from cancelled limiter wait")
		}
	})
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{name: "seconds", header: "3", want: 3 * time.Second},
		{name: "empty", header: "", want: 0},
		{name: "garbage", header: "soon", want: 0},
		{name: "past date", header: "Mon, 02 Jan 2006 15:04:05 GMT", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if tt.header != "" {
				resp.Header.Set("Retry-After", tt.header)
			}
			if got := parseRetryAfter(resp); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}

	t.Run("future date", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{}}
		resp.Header.Set("Retry-After", time.Now().Add(time.Minute).UTC().Format(http.TimeFormat))
		if got := parseRetryAfter(resp); got <= 0 || got > time.Minute {
			t.Errorf("expected positive delay under a minute, got %v", got)
		}
	})
}

func TestSleepWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepWithContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := sleepWithContext(context.Background(), 0); err != nil {
		t.Errorf("expected nil for zero delay, got %v", err)
	}
}
