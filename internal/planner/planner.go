// Package planner is the client for the planning backend: one call to open
// a conversational session, then chat turns that either return an updated
// itinerary or a clarifying question. The backend is the sole source of
// truth for itinerary contents; this package never merges or edits plans.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sanchar-ai/hangout-planner/internal/models"
	"github.com/sanchar-ai/hangout-planner/internal/weather"
)

var (
	// ErrGenerationFailed covers session-start and generation failures.
	// Fatal for the wizard run; the user gets an explicit retry.
	ErrGenerationFailed = errors.New("plan generation failed")

	// ErrRefineFailed covers refinement transport failures. Recoverable:
	// the last good plan stays, the user just sends another message.
	ErrRefineFailed = errors.New("plan refinement failed")
)

// StartRequest carries what the backend needs to open a session.
type StartRequest struct {
	StartLat      float64           `json:"start_lat"`
	StartLon      float64           `json:"start_lon"`
	Mood          models.Mood       `json:"mood"`
	Budget        string            `json:"budget"`
	TimeAvailable string            `json:"time"`
	StartLocation string            `json:"start_location"`
	Weather       weather.Condition `json:"weather,omitempty"`
}

// Reply is one backend chat response. Exactly one of OptimizedPlan or Ask
// is meaningful: a plan update carries OptimizedPlan (possibly with
// Narration), a clarification carries only Ask. Callers must branch on
// HasPlan, never assume one shape.
type Reply struct {
	Narration     string            `json:"narration"`
	OptimizedPlan []models.PlanItem `json:"optimized_plan"`
	Ask           string            `json:"ask"`
}

// HasPlan reports whether the reply carries an itinerary update.
func (r Reply) HasPlan() bool {
	return r.OptimizedPlan != nil
}

// Client talks to the planning backend.
type Client interface {
	StartSession(ctx context.Context, req StartRequest) (string, error)
	Send(ctx context.Context, sessionID, message string) (Reply, error)
}

// HTTPClient implements Client against the backend's /chat/start and /chat
// endpoints.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewHTTPClient creates an HTTPClient for the given backend base URL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

type startResponse struct {
	SessionID string `json:"session_id"`
}

// StartSession opens a backend session and returns its opaque id. Called
// exactly once per wizard run, before any generate or refine call.
func (c *HTTPClient) StartSession(ctx context.Context, req StartRequest) (string, error) {
	var resp startResponse
	if err := c.post(ctx, "/chat/start", req, &resp); err != nil {
		return "", fmt.Errorf("%w: start session: %v", ErrGenerationFailed, err)
	}
	if resp.SessionID == "" {
		return "", fmt.Errorf("%w: backend returned empty session id", ErrGenerationFailed)
	}
	return resp.SessionID, nil
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// Send posts one chat turn to the backend session and returns its reply.
func (c *HTTPClient) Send(ctx context.Context, sessionID, message string) (Reply, error) {
	var reply Reply
	if err := c.post(ctx, "/chat", chatRequest{SessionID: sessionID, Message: message}, &reply); err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrRefineFailed, err)
	}
	return reply, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend returned HTTP %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
