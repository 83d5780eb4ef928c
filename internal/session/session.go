// Package session drives the planning flow: collect preferences, resolve
// coordinates, fetch weather context, generate a plan through the backend,
// then refine it over chat. One Session corresponds to one wizard run and
// one backend conversation.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanchar-ai/hangout-planner/internal/models"
	"github.com/sanchar-ai/hangout-planner/internal/observability"
	"github.com/sanchar-ai/hangout-planner/internal/planner"
	"github.com/sanchar-ai/hangout-planner/internal/sharecode"
	"github.com/sanchar-ai/hangout-planner/internal/validation"
	"github.com/sanchar-ai/hangout-planner/internal/weather"
)

// State is the session's position in the planning flow.
type State string

const (
	StateIdle            State = "idle"
	StateResolving       State = "resolving"
	StateFetchingContext State = "fetching_context"
	StateGenerating      State = "generating"
	StateReady           State = "ready"
	StateRefining        State = "refining"
	StateFailed          State = "failed"
)

var (
	// ErrSessionClosed means the owning view navigated away; the session
	// accepts no further work and late callbacks are dropped.
	ErrSessionClosed = errors.New("session closed")

	// ErrRefineInFlight means a refinement is already outstanding. Only one
	// may run at a time; the caller should block input until it resolves.
	ErrRefineInFlight = errors.New("refinement already in flight")

	// ErrNotReady means the session is not in a state that accepts
	// refinements (still generating, or failed).
	ErrNotReady = errors.New("session not ready")

	// ErrNoPlan means no plan exists to share yet.
	ErrNoPlan = errors.New("no plan to share")

	// ErrNotFailed means Retry was called on a session that has not failed.
	ErrNotFailed = errors.New("session has not failed")
)

// Fixed chat copy, mirrored from the product's conversational surface.
const (
	kickoffMessage  = "Generate initial optimized hangout plan"
	welcomeText     = "Hi! I'll help you refine this plan."
	planReadyText   = "Your plan is ready!"
	planUpdatedText = "Plan updated!"
	apologyText     = "Sorry, I couldn't update the plan. Please try again."
)

// Resolver resolves a place name to coordinates. Satisfied by
// geocode.CachedResolver and by the raw geocode client.
type Resolver interface {
	Resolve(ctx context.Context, place string) (models.Coordinates, error)
}

// Engine holds the collaborators shared by all sessions.
type Engine struct {
	resolver Resolver
	weather  weather.Client
	planner  planner.Client
	logger   *zap.Logger
}

// NewEngine creates an Engine over the three collaborators.
func NewEngine(resolver Resolver, weatherClient weather.Client, plannerClient planner.Client, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		resolver: resolver,
		weather:  weatherClient,
		planner:  plannerClient,
		logger:   logger,
	}
}

// Session is one wizard run. All exported methods are safe for concurrent
// use; internally a single mutex guards every mutation, and a closed flag
// makes mutations after Close no-ops so a late collaborator callback can
// never touch a torn-down session.
type Session struct {
	engine *Engine

	mu            sync.Mutex
	state         State
	prefs         models.Preferences
	coords        models.Coordinates
	weatherTarget models.Coordinates
	weatherCtx    weather.Context
	backendID     string
	plan          *models.Plan
	messages      []models.ChatMessage
	lastErr       error
	refining      bool
	closed        bool
}

// NewSession validates prefs and runs the flow up to the first plan.
// Validation and geocoding failures abort before any backend call and are
// returned directly (the user edits input and resubmits). A generation
// failure returns the session itself in StateFailed with Err set, so the
// caller can offer Retry.
func (e *Engine) NewSession(ctx context.Context, prefs models.Preferences) (*Session, error) {
	prefs, err := validation.ValidatePreferences(prefs)
	if err != nil {
		return nil, err
	}

	s := &Session{
		engine: e,
		state:  StateIdle,
		prefs:  prefs,
		messages: []models.ChatMessage{
			{Role: models.RoleAssistant, Text: welcomeText},
		},
	}

	if err := s.resolveCoordinates(ctx); err != nil {
		return nil, err
	}
	s.fetchContext(ctx)
	s.generate(ctx)
	return s, nil
}

// resolveCoordinates resolves the start location and, when given, the
// preferred location. Weather uses the preferred coordinates when present.
// Must complete before context fetch: the weather lookup depends on it.
func (s *Session) resolveCoordinates(ctx context.Context) error {
	s.setState(StateResolving)

	coords, err := s.engine.resolver.Resolve(ctx, s.prefs.StartLocation)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", s.prefs.StartLocation, err)
	}

	weatherCoords := coords
	if s.prefs.PreferredLocation != "" {
		preferred, err := s.engine.resolver.Resolve(ctx, s.prefs.PreferredLocation)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", s.prefs.PreferredLocation, err)
		}
		weatherCoords = preferred
	}

	s.mu.Lock()
	s.coords = coords
	s.weatherTarget = weatherCoords
	s.weatherCtx = weather.Context{Condition: weather.ConditionClear}
	s.mu.Unlock()
	return nil
}

// fetchContext fetches and classifies current weather. A failure here is
// non-fatal: the flow continues with the clear-condition default and the
// user only sees the difference in the narration.
func (s *Session) fetchContext(ctx context.Context) {
	s.setState(StateFetchingContext)

	wctx, err := s.engine.weather.CurrentWeather(ctx, s.weatherTarget)
	if err != nil {
		observability.WeatherFetchesTotal.WithLabelValues("fallback").Inc()
		s.engine.logger.Warn("weather unavailable, defaulting to clear", zap.Error(err))
		s.mu.Lock()
		if !s.closed {
			s.weatherCtx = weather.Context{Condition: weather.ConditionClear}
		}
		s.mu.Unlock()
		return
	}

	observability.WeatherFetchesTotal.WithLabelValues("success").Inc()
	s.mu.Lock()
	if !s.closed {
		s.weatherCtx = wctx
	}
	s.mu.Unlock()
}

// generate opens the backend session (once) and requests the initial plan.
// Failure is fatal for the run: state becomes Failed, the plan stays nil,
// and Retry is the recovery path. Session fields are read under the lock
// because a Retry caller may run this concurrently with snapshotting.
func (s *Session) generate(ctx context.Context) {
	s.setState(StateGenerating)

	s.mu.Lock()
	backendID := s.backendID
	req := planner.StartRequest{
		StartLat:      s.coords.Lat,
		StartLon:      s.coords.Lon,
		Mood:          s.prefs.Mood,
		Budget:        s.prefs.Budget,
		TimeAvailable: s.prefs.TimeAvailable,
		StartLocation: s.prefs.StartLocation,
		Weather:       s.weatherCtx.Condition,
	}
	s.mu.Unlock()

	if backendID == "" {
		id, err := s.engine.planner.StartSession(ctx, req)
		if err != nil {
			s.failGeneration(err)
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.backendID = id
		backendID = id
		s.mu.Unlock()
	}

	reply, err := s.engine.planner.Send(ctx, backendID, kickoffMessage)
	if err != nil {
		s.failGeneration(err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	plan := &models.Plan{Narration: reply.Narration}
	plan.SetItinerary(reply.OptimizedPlan)
	s.plan = plan
	s.lastErr = nil
	s.messages = append(s.messages, models.ChatMessage{Role: models.RoleAssistant, Text: planReadyText})
	if reply.Ask != "" {
		s.messages = append(s.messages, models.ChatMessage{Role: models.RoleAssistant, Text: reply.Ask})
	}
	s.state = StateReady
	observability.PlanGenerationsTotal.WithLabelValues("success").Inc()
}

func (s *Session) failGeneration(err error) {
	observability.PlanGenerationsTotal.WithLabelValues("error").Inc()
	s.engine.logger.Error("plan generation failed", zap.Error(err))
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state = StateFailed
	s.lastErr = err
}

// Retry re-runs generation after a fatal failure, reusing the already
// resolved coordinates and weather context. The transition to Generating
// happens inside the locked check so concurrent retries cannot both claim
// the failed state and open a second backend session.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != StateFailed {
		s.mu.Unlock()
		return ErrNotFailed
	}
	s.state = StateGenerating
	s.mu.Unlock()

	s.generate(ctx)
	return nil
}

// Refine runs one chat turn: the user message is appended optimistically
// with a typing placeholder, then reconciled against the backend reply. A
// plan-bearing reply replaces the itinerary wholesale (re-capped); an
// ask-only reply just appends the question; a transport failure removes the
// placeholder and appends an apology, leaving the session Ready so the user
// can simply send another message.
func (s *Session) Refine(ctx context.Context, text string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.refining {
		s.mu.Unlock()
		return ErrRefineInFlight
	}
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrNotReady
	}

	placeholderID := uuid.New().String()
	s.messages = append(s.messages,
		models.ChatMessage{Role: models.RoleUser, Text: text},
		models.ChatMessage{ID: placeholderID, Role: models.RoleAssistant, IsTyping: true},
	)
	s.refining = true
	s.state = StateRefining
	backendID := s.backendID
	s.mu.Unlock()

	reply, err := s.engine.planner.Send(ctx, backendID, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		// Owning view is gone; drop the result entirely.
		return ErrSessionClosed
	}
	s.removeMessage(placeholderID)
	s.refining = false
	s.state = StateReady

	if err != nil {
		observability.RefinementsTotal.WithLabelValues("error").Inc()
		s.engine.logger.Warn("refinement failed", zap.Error(err))
		s.messages = append(s.messages, models.ChatMessage{Role: models.RoleAssistant, Text: apologyText})
		return nil
	}

	switch {
	case reply.HasPlan():
		observability.RefinementsTotal.WithLabelValues("plan_update").Inc()
		plan := &models.Plan{Narration: reply.Narration}
		plan.SetItinerary(reply.OptimizedPlan)
		s.plan = plan
		s.messages = append(s.messages, models.ChatMessage{Role: models.RoleAssistant, Text: planUpdatedText})
	case reply.Ask != "":
		observability.RefinementsTotal.WithLabelValues("clarification").Inc()
		s.messages = append(s.messages, models.ChatMessage{Role: models.RoleAssistant, Text: reply.Ask})
	default:
		// Backend answered with neither shape; treat like a failed turn.
		observability.RefinementsTotal.WithLabelValues("error").Inc()
		s.messages = append(s.messages, models.ChatMessage{Role: models.RoleAssistant, Text: apologyText})
	}
	return nil
}

// removeMessage deletes the message with the given id. Caller holds s.mu.
func (s *Session) removeMessage(id string) {
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

// Close marks the session torn down. Any in-flight collaborator result is
// discarded instead of mutating state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// setState transitions the flow state unless the session is closed.
func (s *Session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state = st
}

// View is a point-in-time copy of the session for rendering.
type View struct {
	State       State
	Preferences models.Preferences
	Weather     weather.Context
	Plan        *models.Plan
	Messages    []models.ChatMessage
	Err         error
}

// Snapshot returns a copy of the observable session state. The plan and
// message slices are copied so rendering never races a refinement.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		State:       s.state,
		Preferences: s.prefs,
		Weather:     s.weatherCtx,
		Err:         s.lastErr,
		Messages:    make([]models.ChatMessage, len(s.messages)),
	}
	copy(v.Messages, s.messages)
	if s.plan != nil {
		planCopy := *s.plan
		planCopy.Itinerary = make([]models.PlanItem, len(s.plan.Itinerary))
		copy(planCopy.Itinerary, s.plan.Itinerary)
		v.Plan = &planCopy
	}
	return v
}

// SharePlan builds the shareable snapshot from the current plan.
func (s *Session) SharePlan() (sharecode.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan == nil {
		return sharecode.Snapshot{}, ErrNoPlan
	}
	return sharecode.Snapshot{
		Title:  "Hangout plan near " + s.prefs.StartLocation,
		Mood:   string(s.prefs.Mood),
		Budget: s.prefs.Budget,
		Places: models.CapItinerary(s.plan.Itinerary),
	}, nil
}

// ShareURL encodes the current plan and joins it onto base as a /plan/ path.
func (s *Session) ShareURL(base string) (string, error) {
	snap, err := s.SharePlan()
	if err != nil {
		return "", err
	}
	token, err := sharecode.Encode(snap)
	if err != nil {
		return "", err
	}
	observability.ShareEncodesTotal.Inc()
	return base + "/plan/" + token, nil
}
