package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// apiErrorEnvelope is the regular error body returned by the Web API.
type apiErrorEnvelope struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// tokenError is the error body returned by the accounts token endpoint.
type tokenError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// get makes an authenticated GET request to the Web API with retry logic.
//
// It handles:
// - Request construction with proper headers
// - Bearer authentication with the caller's access token
// - Response parsing (JSON)
// - Error handling and retry logic
// - Context cancellation
func (c *Client) get(ctx context.Context, accessToken, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	// Retry with exponential backoff
	var lastErr error
	backoff := 1 * time.Second
	maxRetries := 3

	for i := 0; i < maxRetries; i++ {
		c.logDebugf("spotify: GET %s (attempt %d/%d)", path, i+1, maxRetries)

		req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+accessToken)
		req.Header.Set("User-Agent", "trackdown/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if shouldRetryNetworkError(err) && i < maxRetries-1 {
				c.logDebugf("spotify: network error, retrying: %v", err)
				if !sleep(ctx, backoff) {
					return ctx.Err()
				}
				backoff = nextBackoff(backoff)
				continue
			}
			return fmt.Errorf("http request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := parseAPIError(resp.StatusCode, body)
			if apiErr.Temporary() && i < maxRetries-1 {
				c.logDebugf("spotify: temporary error, retrying: %v", apiErr)
				lastErr = apiErr
				if !sleep(ctx, backoff) {
					return ctx.Err()
				}
				backoff = nextBackoff(backoff)
				continue
			}
			return apiErr
		}

		if out != nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to parse JSON response: %w", err)
			}
		}

		c.logDebugf("spotify: GET %s succeeded", path)
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// postToken posts a grant request to the accounts token endpoint.
//
// The token endpoint authenticates the application itself via HTTP
// Basic auth with the client ID and secret, not a user token. Token
// grants are not retried: a rejected grant stays rejected.
func (c *Client) postToken(ctx context.Context, form url.Values) (*Token, error) {
	endpoint := c.accountsURL + "/api/token"

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "trackdown/1.0")

	c.logDebugf("spotify: token grant %s", form.Get("grant_type"))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var te tokenError
		if err := json.Unmarshal(body, &te); err == nil && te.Error != "" {
			msg := te.Error
			if te.ErrorDescription != "" {
				msg += ": " + te.ErrorDescription
			}
			return nil, &Error{Status: resp.StatusCode, Message: msg}
		}
		return nil, &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if token.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access token")
	}

	c.logDebugf("spotify: token grant %s succeeded", form.Get("grant_type"))
	return &token, nil
}

// parseAPIError converts a non-200 Web API response into an *Error.
func parseAPIError(status int, body []byte) *Error {
	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return &Error{Status: status, Message: envelope.Error.Message}
	}
	return &Error{Status: status, Message: http.StatusText(status)}
}

// shouldRetryNetworkError checks if a network error is retryable.
func shouldRetryNetworkError(err error) bool {
	if err == nil {
		return false
	}

	// Check for network errors
	if _, ok := err.(net.Error); ok {
		return true
	}

	// Check for URL errors (which may contain network errors)
	if urlErr, ok := err.(*url.Error); ok {
		if _, ok := urlErr.Err.(net.Error); ok {
			return true
		}
	}

	return false
}

// sleep waits for the specified duration or until context is cancelled.
// Returns true if sleep completed, false if context was cancelled.
func sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(duration):
		return true
	}
}

// nextBackoff calculates the next backoff duration with exponential increase.
// Maximum backoff is capped at 30 seconds.
func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > 30*time.Second {
		return 30 * time.Second
	}
	return next
}
