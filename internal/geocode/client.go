// Package geocode resolves free-text place names to coordinates through
// Nominatim, with a process-wide cache keyed by the exact input string.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sanchar-ai/hangout-planner/internal/models"
	"github.com/sanchar-ai/hangout-planner/internal/observability"
)

var (
	// ErrLocationNotFound means the geocoder returned an empty candidate set.
	// Fatal for the planning flow: the user must edit the input and resubmit.
	ErrLocationNotFound = errors.New("location not found")

	// ErrUpstreamFailure covers 5xx and transport-level geocoder failures.
	ErrUpstreamFailure = errors.New("geocoder upstream failure")

	// ErrRateLimited means the geocoder throttled us.
	ErrRateLimited = errors.New("geocoder rate limited")
)

// Client resolves a place name to coordinates.
type Client interface {
	Resolve(ctx context.Context, place string) (models.Coordinates, error)
}

// NominatimClient implements Client against the Nominatim search API. Every
// query gets the configured region qualifier appended so ambiguous place
// names ("MG Road") resolve inside the product's service area.
type NominatimClient struct {
	apiURL          string
	regionQualifier string
	userAgent       string
	timeout         time.Duration
	client          *http.Client
	retryAttempts   int
	retryBaseDelay  time.Duration
	retryMaxDelay   time.Duration
}

// NewNominatimClient creates a NominatimClient with default retry policy.
func NewNominatimClient(apiURL, regionQualifier, userAgent string, timeout time.Duration) *NominatimClient {
	return NewNominatimClientWithRetry(apiURL, regionQualifier, userAgent, timeout, 3, 100*time.Millisecond, 2*time.Second)
}

// NewNominatimClientWithRetry creates a NominatimClient with an explicit
// retry policy. retryAttempts is the total number of tries, not re-tries.
func NewNominatimClientWithRetry(apiURL, regionQualifier, userAgent string, timeout time.Duration, retryAttempts int, retryBaseDelay, retryMaxDelay time.Duration) *NominatimClient {
	return &NominatimClient{
		apiURL:          apiURL,
		regionQualifier: regionQualifier,
		userAgent:       userAgent,
		timeout:         timeout,
		retryAttempts:   retryAttempts,
		retryBaseDelay:  retryBaseDelay,
		retryMaxDelay:   retryMaxDelay,
		client:          &http.Client{Timeout: timeout},
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve looks up place through the geocoder, retrying transient failures
// with exponential backoff. Not-found is terminal and never retried.
func (c *NominatimClient) Resolve(ctx context.Context, place string) (models.Coordinates, error) {
	var lastErr error

	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			delay := c.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return models.Coordinates{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := c.callAPI(ctx, place)
		if err == nil {
			observability.GeocodeLookupsTotal.WithLabelValues("success").Inc()
			return result, nil
		}

		lastErr = err
		if !c.isRetryable(err) {
			observability.GeocodeLookupsTotal.WithLabelValues("error").Inc()
			return models.Coordinates{}, err
		}
	}

	observability.GeocodeLookupsTotal.WithLabelValues("error").Inc()
	return models.Coordinates{}, fmt.Errorf("exhausted retries: %w", lastErr)
}

func (c *NominatimClient) callAPI(ctx context.Context, place string) (models.Coordinates, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, place)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return models.Coordinates{}, fmt.Errorf("request timeout: %w", err)
		}
		return models.Coordinates{}, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := c.handleErrorResponse(resp); err != nil {
		return models.Coordinates{}, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("read response body: %w", err)
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return models.Coordinates{}, fmt.Errorf("parse response: %w", err)
	}
	if len(results) == 0 {
		return models.Coordinates{}, fmt.Errorf("%w: %q", ErrLocationNotFound, place)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("parse latitude %q: %w", results[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("parse longitude %q: %w", results[0].Lon, err)
	}

	return models.Coordinates{Lat: lat, Lon: lon}, nil
}

func (c *NominatimClient) buildRequest(ctx context.Context, place string) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	query := place
	if c.regionQualifier != "" {
		query = place + ", " + c.regionQualifier
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

func (c *NominatimClient) handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w", ErrRateLimited)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}
	return nil
}

func (c *NominatimClient) isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamFailure) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "context canceled")
}

func (c *NominatimClient) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.retryBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.retryMaxDelay) {
		delay = float64(c.retryMaxDelay)
	}
	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}
