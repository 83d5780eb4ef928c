// Package weather fetches current conditions from Open-Meteo and buckets
// them into the coarse conditions the planning backend understands. Weather
// is an enrichment: callers are expected to fall back to ConditionClear when
// a fetch fails rather than abort the flow.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sanchar-ai/hangout-planner/internal/models"
)

// ErrUnavailable wraps every fetch failure. Callers should degrade to
// ConditionClear rather than surface it to the user.
var ErrUnavailable = errors.New("weather unavailable")

// Context is the classified weather handed to the planning backend.
type Context struct {
	Condition   Condition `json:"condition"`
	Temperature float64   `json:"temperature"`
}

// Client fetches and classifies current weather for a coordinate pair.
type Client interface {
	CurrentWeather(ctx context.Context, coords models.Coordinates) (Context, error)
}

// OpenMeteoClient implements Client against the Open-Meteo forecast API.
// No API key is required.
type OpenMeteoClient struct {
	apiURL  string
	timeout time.Duration
	client  *http.Client
}

// NewOpenMeteoClient creates an OpenMeteoClient for the given base URL.
func NewOpenMeteoClient(apiURL string, timeout time.Duration) *OpenMeteoClient {
	return &OpenMeteoClient{
		apiURL:  apiURL,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

type openMeteoResponse struct {
	Current struct {
		WeatherCode   int     `json:"weathercode"`
		Temperature2m float64 `json:"temperature_2m"`
	} `json:"current"`
}

// CurrentWeather fetches the current weather code and temperature for
// coords and classifies them. All failures wrap ErrUnavailable.
func (c *OpenMeteoClient) CurrentWeather(ctx context.Context, coords models.Coordinates) (Context, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, coords)
	if err != nil {
		return Context{}, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Context{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Context{}, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Context{}, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	var apiResp openMeteoResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return Context{}, fmt.Errorf("%w: parse response: %v", ErrUnavailable, err)
	}

	return Context{
		Condition:   Classify(apiResp.Current.WeatherCode, apiResp.Current.Temperature2m),
		Temperature: apiResp.Current.Temperature2m,
	}, nil
}

func (c *OpenMeteoClient) buildRequest(ctx context.Context, coords models.Coordinates) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	params.Set("current", "weathercode,temperature_2m")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}
