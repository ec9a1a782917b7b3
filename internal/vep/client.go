// Package vep queries the Ensembl VEP REST API.
package vep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// Defaults for the public Ensembl REST service.
const (
	DefaultBaseURL    = "https://rest.ensembl.org"
	DefaultSpecies    = "human"
	DefaultMaxRetries = 3
)

const defaultRetryDelay = 2 * time.Second

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoAnnotation is returned when no annotation could be obtained for an
// identifier, either because the service rejected it (400, 404) or because
// every retry attempt failed. Callers branch on it with errors.Is and move
// on to the next identifier.
var ErrNoAnnotation = errors.New("no annotation available")

// Response is the parsed JSON payload from the VEP endpoint, kept as-is.
// The service returns a sequence containing one object per queried variant.
type Response []map[string]any

// Client fetches VEP annotations for one identifier at a time.
type Client struct {
	baseURL    string
	species    string
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the given species.
func NewClient(species string) *Client {
	if species == "" {
		species = DefaultSpecies
	}
	return &Client{
		baseURL:    DefaultBaseURL,
		species:    species,
		maxRetries: DefaultMaxRetries,
		retryDelay: defaultRetryDelay,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: zap.NewNop(),
	}
}

// SetBaseURL overrides the service base URL.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetMaxRetries configures the total number of attempts per identifier.
func (c *Client) SetMaxRetries(n int) {
	if n > 0 {
		c.maxRetries = n
	}
}

// SetRetryDelay configures the delay between retry attempts.
func (c *Client) SetRetryDelay(d time.Duration) {
	if d >= 0 {
		c.retryDelay = d
	}
}

// SetLogger sets the logger for retry and failure messages.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Fetch queries the VEP endpoint for rsid and returns the parsed payload.
// Network errors, 5xx responses, and 429 responses are retried up to the
// configured limit; 429 honors the Retry-After header when present.
// Rejected identifiers (400, 404) and exhausted retries return an error
// wrapping ErrNoAnnotation. Context cancellation propagates as-is.
func (c *Client) Fetch(ctx context.Context, rsid string) (Response, error) {
	url := fmt.Sprintf("%s/vep/%s/id/%s", c.baseURL, c.species, rsid)

	var lastErr error
	delay := c.retryDelay

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			c.logger.Warn("retrying VEP request",
				zap.String("rsid", rsid),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", c.maxRetries),
				zap.Error(lastErr))
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
			delay = c.retryDelay
		}

		resp, err := c.get(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			var payload Response
			err := json.NewDecoder(resp.Body).Decode(&payload)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("%w for %s: decode response: %v", ErrNoAnnotation, rsid, err)
			}
			return payload, nil

		case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusNotFound:
			// Permanent: the identifier is unknown or malformed.
			resp.Body.Close()
			return nil, fmt.Errorf("%w for %s: HTTP %d", ErrNoAnnotation, rsid, resp.StatusCode)

		case resp.StatusCode == http.StatusTooManyRequests:
			delay = retryAfter(resp, c.retryDelay)
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP 429: rate limited")

		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}
	}

	return nil, fmt.Errorf("%w for %s after %d attempts: %v", ErrNoAnnotation, rsid, c.maxRetries, lastErr)
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}

// retryAfter returns the server-requested delay from a 429 response, or the
// fallback when the header is missing or unparseable.
func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
