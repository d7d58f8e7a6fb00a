// Package adapters holds the HTTP plumbing shared by the platform source
// adapters: a bounded-timeout client and request helpers that translate
// transport, status, and decode failures into the collector's FetchError
// taxonomy.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Sumatoshi-tech/pkgpulse/internal/collect"
)

// DefaultTimeout bounds every external call so a single hung request cannot
// stall a throttle group. Counted independently of retry backoff delays.
const DefaultTimeout = 15 * time.Second

// userAgent identifies pkgpulse to the registries.
const userAgent = "pkgpulse/1.0 (+https://github.com/Sumatoshi-tech/pkgpulse)"

// maxErrorBodyBytes caps how much of an error response body lands in a
// FetchError message.
const maxErrorBodyBytes = 512

// NewHTTPClient returns an HTTP client with the given per-call timeout.
// A non-positive timeout falls back to DefaultTimeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{Timeout: timeout}
}

// GetJSON performs a GET against url and decodes the JSON response into out.
// Every failure is a *collect.FetchError so the throttled executor can
// classify retryability.
func GetJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &collect.FetchError{Kind: collect.FetchErrorNetwork, Message: err.Error()}
	}

	return doJSON(client, req, headers, out)
}

// PostJSON performs a POST with a JSON body against url and decodes the JSON
// response into out, with the same error contract as GetJSON.
func PostJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return &collect.FetchError{Kind: collect.FetchErrorParse, Message: fmt.Sprintf("encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return &collect.FetchError{Kind: collect.FetchErrorNetwork, Message: err.Error()}
	}

	req.Header.Set("Content-Type", "application/json")

	return doJSON(client, req, headers, out)
}

func doJSON(client *http.Client, req *http.Request, headers map[string]string, out any) error {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &collect.FetchError{Kind: collect.FetchErrorNetwork, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	decodeErr := json.NewDecoder(resp.Body).Decode(out)
	if decodeErr != nil {
		return &collect.FetchError{Kind: collect.FetchErrorParse, Message: decodeErr.Error()}
	}

	return nil
}

// statusError builds the FetchError for a non-200 response, preserving the
// provider's Retry-After hint and a bounded slice of the body.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	return &collect.FetchError{
		Kind:       collect.FetchErrorHTTP,
		StatusCode: resp.StatusCode,
		Message:    string(bytes.TrimSpace(body)),
		RetryAfter: retryAfter(resp),
	}
}

// retryAfter parses a Retry-After header given in seconds. HTTP-date values
// are rare on the polled registries and are ignored.
func retryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}

	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0
	}

	return time.Duration(seconds) * time.Second
}
