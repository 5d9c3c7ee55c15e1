package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

const (
	DefaultMaxRetries  = 3
	DefaultBaseBackoff = 500 * time.Millisecond
)

// Transport is an [http.RoundTripper] that throttles outgoing requests with a token bucket
// and retries 429 and 5xx responses, honouring Retry-After.
//
// Every platform client is built on one so that a burst of fallback searches cannot trip
// the provider's own rate limit.
type Transport struct {
	Base        http.RoundTripper
	Limiter     *rate.Limiter
	MaxRetries  int
	BaseBackoff time.Duration
	Logger      *log.Logger
}

// NewTransport creates a Transport allowing rps requests per second with the given burst.
// A non-positive rps disables throttling.
func NewTransport(base http.RoundTripper, rps float64, burst int, logger *log.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Transport{
		Base:        base,
		Limiter:     rate.NewLimiter(limit, burst),
		MaxRetries:  DefaultMaxRetries,
		BaseBackoff: DefaultBaseBackoff,
		Logger:      logger,
	}
}

// NewHTTPClient wraps a [Transport] in an [http.Client].
func NewHTTPClient(rps float64, burst int, logger *log.Logger) *http.Client {
	return &http.Client{Transport: NewTransport(nil, rps, burst, logger), Timeout: 30 * time.Second}
}

// RoundTrip implements [http.RoundTripper].
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	maxRetries := t.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	backoff := t.BaseBackoff
	if backoff <= 0 {
		backoff = DefaultBaseBackoff
	}

	getBody := req.GetBody
	if req.Body != nil && req.Body != http.NoBody && getBody == nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		_ = req.Body.Close()
		getBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}

	ctx := req.Context()
	for attempt := range maxRetries {
		if t.Limiter != nil {
			if err := t.Limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("request canceled: %w", err)
			}
		}

		attemptReq := req.Clone(ctx)
		if getBody != nil {
			body, err := getBody()
			if err != nil {
				return nil, fmt.Errorf("reset request body: %w", err)
			}
			attemptReq.Body = body
		}

		resp, err := t.Base.RoundTrip(attemptReq)
		retryAfter, retry := shouldRetry(resp, err)
		if !retry || attempt == maxRetries-1 {
			return resp, err
		}

		if t.Logger != nil {
			if err != nil {
				t.Logger.Warn("retrying request", "host", req.URL.Host, "attempt", attempt+1, "error", err)
			} else {
				t.Logger.Warn("retrying request", "host", req.URL.Host, "attempt", attempt+1, "status", resp.StatusCode)
			}
		}
		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}

		delay := backoff * time.Duration(1<<attempt)
		if retryAfter > 0 {
			delay = retryAfter
		}
		if err := sleepWithContext(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts", maxRetries)
}

func shouldRetry(resp *http.Response, err error) (time.Duration, bool) {
	if err != nil {
		return 0, true
	}
	if resp == nil {
		return 0, false
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return parseRetryAfter(resp), true
	}
	return 0, false
}

// parseRetryAfter reads a Retry-After header given either in seconds or as an HTTP date.
func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}
	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
