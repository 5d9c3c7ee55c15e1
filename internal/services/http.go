package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/xfer/internal/shared"
)

// APIError is a non-2xx response from a platform API.
//
// It unwraps to the shared sentinel matching its status so callers can use [errors.Is].
type APIError struct {
	Service    string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s API error: status %d", e.Service, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return shared.ErrNotAuthenticated
	case e.StatusCode == http.StatusForbidden:
		return shared.ErrInvalidCredentials
	case e.StatusCode == http.StatusTooManyRequests:
		return shared.ErrRateLimited
	case e.StatusCode >= http.StatusInternalServerError:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrAPIRequest
	}
}

// IsNotFound reports whether err is an [APIError] with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// jsonClient performs JSON requests against a REST API rooted at baseURL.
type jsonClient struct {
	service    string
	baseURL    string
	httpClient *http.Client
	authorize  func(*http.Request)
}

func (c *jsonClient) do(ctx context.Context, method, endpoint string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authorize != nil {
		c.authorize(req)
	}

	client := c.httpClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail  string `json:"detail"`
			Message string `json:"message"`
		}
		apiErr := &APIError{Service: c.service, StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			apiErr.Detail = errResp.Detail
			if apiErr.Detail == "" {
				apiErr.Detail = errResp.Message
			}
		}
		return apiErr
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
