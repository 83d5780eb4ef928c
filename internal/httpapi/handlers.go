package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sanchar-ai/hangout-planner/internal/geocode"
	"github.com/sanchar-ai/hangout-planner/internal/models"
	"github.com/sanchar-ai/hangout-planner/internal/observability"
	"github.com/sanchar-ai/hangout-planner/internal/session"
	"github.com/sanchar-ai/hangout-planner/internal/sharecode"
	"github.com/sanchar-ai/hangout-planner/internal/validation"
	"github.com/sanchar-ai/hangout-planner/internal/weather"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine       *session.Engine
	store        *session.Store
	shareBaseURL string
	logger       *zap.Logger
	// cachePing, when set, is called to check cache reachability. Used when
	// the geocode cache backend is memcached.
	cachePing func() error
}

// NewHandler returns a new Handler.
func NewHandler(engine *session.Engine, store *session.Store, shareBaseURL string, logger *zap.Logger, cachePing func() error) *Handler {
	return &Handler{
		engine:       engine,
		store:        store,
		shareBaseURL: shareBaseURL,
		logger:       logger,
		cachePing:    cachePing,
	}
}

// sessionResponse is the wire shape of a session snapshot.
type sessionResponse struct {
	ID          string               `json:"id"`
	State       session.State        `json:"state"`
	Preferences models.Preferences   `json:"preferences"`
	Weather     weather.Context      `json:"weather"`
	Plan        *models.Plan         `json:"plan,omitempty"`
	Messages    []models.ChatMessage `json:"messages"`
	Error       string               `json:"error,omitempty"`
}

func toSessionResponse(id string, v session.View) sessionResponse {
	resp := sessionResponse{
		ID:          id,
		State:       v.State,
		Preferences: v.Preferences,
		Weather:     v.Weather,
		Plan:        v.Plan,
		Messages:    v.Messages,
	}
	if v.Err != nil {
		resp.Error = v.Err.Error()
	}
	return resp
}

// CreateSession handles POST /api/sessions. The body is the user's
// preferences; on success the full flow runs synchronously through initial
// plan generation and the created session is returned, Failed state included
// so the client can offer retry.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var prefs models.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
		return
	}

	s, err := h.engine.NewSession(r.Context(), prefs)
	if err != nil {
		h.writeCreateError(w, r, err)
		return
	}

	id := h.store.Add(s)
	writeJSON(w, http.StatusCreated, toSessionResponse(id, s.Snapshot()))
}

func (h *Handler) writeCreateError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, geocode.ErrLocationNotFound):
		writeError(w, r, http.StatusNotFound, "LOCATION_NOT_FOUND", "could not find that location")
	case errors.Is(err, geocode.ErrUpstreamFailure), errors.Is(err, geocode.ErrRateLimited):
		writeError(w, r, http.StatusBadGateway, "GEOCODE_UNAVAILABLE", "location lookup is unavailable, try again")
	case isValidationError(err):
		writeError(w, r, http.StatusBadRequest, "INVALID_PREFERENCES", err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "could not create session")
		if logger, ok := r.Context().Value(loggerKey).(*zap.Logger); ok && logger != nil {
			logger.Error("create session failed", zap.Error(err))
		}
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		validation.ErrLocationEmpty,
		validation.ErrLocationTooLong,
		validation.ErrLocationInvalidChars,
		validation.ErrInvalidMood,
		validation.ErrBudgetEmpty,
		validation.ErrTimeEmpty,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// GetSession handles GET /api/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s, err := h.store.Get(id)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "SESSION_NOT_FOUND", "no such session")
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(id, s.Snapshot()))
}

// DeleteSession handles DELETE /api/sessions/{id}. Closes the session so any
// in-flight refinement result is dropped.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.store.Delete(id); err != nil {
		writeError(w, r, http.StatusNotFound, "SESSION_NOT_FOUND", "no such session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostMessage handles POST /api/sessions/{id}/messages. Runs one refinement
// turn; a turn already in flight is rejected with 409.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s, err := h.store.Get(id)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "SESSION_NOT_FOUND", "no such session")
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == "" {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "text is required")
		return
	}

	if err := s.Refine(r.Context(), body.Text); err != nil {
		switch {
		case errors.Is(err, session.ErrRefineInFlight):
			writeError(w, r, http.StatusConflict, "REFINE_IN_FLIGHT", "a refinement is already in progress")
		case errors.Is(err, session.ErrNotReady):
			writeError(w, r, http.StatusConflict, "NOT_READY", "session has no plan to refine yet")
		case errors.Is(err, session.ErrSessionClosed):
			writeError(w, r, http.StatusGone, "SESSION_CLOSED", "session is closed")
		default:
			writeError(w, r, http.StatusInternalServerError, "INTERNAL", "refinement failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(id, s.Snapshot()))
}

// RetrySession handles POST /api/sessions/{id}/retry after a failed
// generation.
func (h *Handler) RetrySession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s, err := h.store.Get(id)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "SESSION_NOT_FOUND", "no such session")
		return
	}
	if err := s.Retry(r.Context()); err != nil {
		switch {
		case errors.Is(err, session.ErrNotFailed):
			writeError(w, r, http.StatusConflict, "NOT_FAILED", "session has not failed")
		case errors.Is(err, session.ErrSessionClosed):
			writeError(w, r, http.StatusGone, "SESSION_CLOSED", "session is closed")
		default:
			writeError(w, r, http.StatusInternalServerError, "INTERNAL", "retry failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(id, s.Snapshot()))
}

// GetShareLink handles GET /api/sessions/{id}/share. Encodes the current plan
// into a self-contained URL.
func (h *Handler) GetShareLink(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s, err := h.store.Get(id)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "SESSION_NOT_FOUND", "no such session")
		return
	}
	url, err := s.ShareURL(h.shareBaseURL)
	if err != nil {
		if errors.Is(err, session.ErrNoPlan) {
			writeError(w, r, http.StatusConflict, "NO_PLAN", "no plan to share yet")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "could not build share link")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// GetSharedPlan handles GET /plan/{token}. The token is decoded locally; no
// backend or session state is consulted, so shared links work even for plans
// whose session is long gone.
func (h *Handler) GetSharedPlan(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	snap, err := sharecode.Decode(token)
	if err != nil {
		observability.ShareDecodesTotal.WithLabelValues("error").Inc()
		var decodeErr *sharecode.DecodeError
		if errors.As(err, &decodeErr) {
			writeError(w, r, http.StatusNotFound, "INVALID_LINK", decodeErr.Error())
			return
		}
		writeError(w, r, http.StatusNotFound, "INVALID_LINK", "invalid or corrupted link")
		return
	}
	observability.ShareDecodesTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, snap)
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	checks := make(map[string]string)
	if h.cachePing != nil {
		if h.cachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
	}
	resp := map[string]interface{}{
		"status":    status,
		"service":   "hangout-planner",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, statusCode, resp)
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code,
// message, and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value(correlationIDKey); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}
