package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"formchat-be/internal/pkg/logger"
	"formchat-be/pkg/agent/filler"
	"formchat-be/pkg/agent/predictor"
	"formchat-be/pkg/agent/prompt"
	"formchat-be/pkg/agent/reasoning"
	"formchat-be/pkg/agent/report"
	"formchat-be/pkg/agent/router"
	"formchat-be/pkg/events"
	"formchat-be/pkg/forms"
	"formchat-be/pkg/llm"
	"formchat-be/pkg/metrics"
	"formchat-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrInvalidInbound = errors.New("session_id, user_id are required")
	ErrSessionOwner   = errors.New("session belongs to another user")
)

const (
	msgTryAgain     = "Sorry, I'm having trouble right now. Please try again in a moment."
	msgSubmitFailed = "Sorry, I couldn't submit your form just now. Your answers are kept, so just say yes again in a moment."
	msgContextLost  = "Sorry, I lost track of the form we were working on, so we'll start over. What would you like to do?"
	msgGreeting     = "Hi! Tell me what you'd like to do and I'll find the right form."
	msgGeneralQuery = "I can help you fill out forms and report on the forms you've submitted. What would you like to do?"
)

type Inbound struct {
	SessionID string
	UserID    string
	Message   string
	// Audience selects how decisions are explained; defaults to user
	Audience reasoning.Audience
}

// Decision is one node's reasoning, rendered for the requested audience
type Decision struct {
	Node        string            `json:"node"`
	Result      string            `json:"result"`
	Confidence  float64           `json:"confidence"`
	Explanation string            `json:"explanation"`
	Chain       *reasoning.Sealed `json:"chain,omitempty"`
}

type Outbound struct {
	SessionID    string         `json:"session_id"`
	ResponseText string         `json:"response_text"`
	Session      *store.Session `json:"session_snapshot"`
	Intent       router.Intent  `json:"intent,omitempty"`
	StageFrom    store.Stage    `json:"stage_from"`
	StageTo      store.Stage    `json:"stage_to"`
	Decisions    []Decision     `json:"decisions,omitempty"`
	// Retryable is set when the turn was not applied because a provider or the response store failed
	Retryable bool                `json:"retryable,omitempty"`
	Submitted *forms.FormResponse `json:"submitted,omitempty"`
}

type Option func(*Orchestrator)

func WithPublisher(p events.Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// Orchestrator runs one conversation turn per Handle call: load the session,
// run the handler for its stage, and commit the result with a single Put.
type Orchestrator struct {
	sessions  store.Store
	templates forms.TemplateProvider
	responses forms.ResponseStore

	router    *router.Router
	predictor *predictor.Predictor
	filler    *filler.Filler
	reports   *report.Generator

	settings  Settings
	publisher events.Publisher
	logger    logger.ILogger
	tracer    trace.Tracer
	now       func() time.Time
}

func New(
	sessions store.Store,
	templates forms.TemplateProvider,
	responses forms.ResponseStore,
	client llm.Client,
	catalog *prompt.Catalog,
	settings Settings,
	logger logger.ILogger,
	opts ...Option,
) (*Orchestrator, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if settings.HistoryLimit <= 0 {
		settings.HistoryLimit = DefaultSettings().HistoryLimit
	}

	o := &Orchestrator{
		sessions:  sessions,
		templates: templates,
		responses: responses,
		router:    router.New(client, catalog, settings.RouterMinConfidence, logger),
		predictor: predictor.New(client, catalog, settings.Thresholds, settings.TopN, logger),
		filler:    filler.New(client, catalog, logger),
		reports:   report.NewGenerator(templates, responses),
		settings:  settings,
		publisher: events.NopPublisher{},
		logger:    logger,
		tracer:    otel.Tracer("formchat/orchestrator"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// turn is the working state of one Handle call
type turn struct {
	in        Inbound
	session   *store.Session // working copy, committed at the end
	from      store.Stage    // stage before the entry edge
	routedAt  store.Stage    // stage the decision transition starts from
	reset     bool
	retryable bool
	intent    router.Intent
	decisions []Decision
	submitted *forms.FormResponse
}

func (t *turn) record(node string, chain reasoning.Sealed) {
	d := Decision{
		Node:        node,
		Result:      chain.FinalResult,
		Confidence:  chain.FinalConfidence,
		Explanation: reasoning.Explain(chain, t.in.Audience),
	}
	if t.in.Audience == reasoning.AudienceDeveloper {
		c := chain
		d.Chain = &c
	}
	t.decisions = append(t.decisions, d)
}

// Handle processes exactly one inbound message. Version conflicts are returned
// wrapping store.ErrVersionConflict; provider failures are not errors but a
// retryable Outbound with no session write.
func (o *Orchestrator) Handle(ctx context.Context, in Inbound) (*Outbound, error) {
	if strings.TrimSpace(in.SessionID) == "" || strings.TrimSpace(in.UserID) == "" {
		return nil, ErrInvalidInbound
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.Handle", trace.WithAttributes(
		attribute.String("session.id", in.SessionID),
	))
	defer span.End()
	start := o.now()

	stored, expected, err := o.load(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load session")
		return nil, err
	}

	t := &turn{
		in:      in,
		session: stored.Clone(),
		from:    stored.Stage,
	}
	span.SetAttributes(attribute.String("stage.from", string(t.from)))

	// Empty input never changes anything; repeat the outstanding question
	if strings.TrimSpace(in.Message) == "" {
		text := stored.LastPrompt
		if text == "" {
			text = msgGreeting
		}
		metrics.TurnsTotal.WithLabelValues(string(t.from), "noop").Inc()
		return &Outbound{
			SessionID:    in.SessionID,
			ResponseText: text,
			Session:      stored,
			StageFrom:    t.from,
			StageTo:      t.from,
		}, nil
	}

	text, err := o.dispatch(ctx, t)
	if err != nil {
		var llmErr *llm.Error
		if !errors.As(err, &llmErr) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "dispatch")
			return nil, err
		}
		o.logger.Warn("ORCHESTRATOR", "Provider failure, turn not applied", map[string]interface{}{
			"session_id": in.SessionID,
			"stage":      string(t.from),
			"kind":       string(llmErr.Kind),
			"error":      llmErr.Error(),
		})
		metrics.TurnsTotal.WithLabelValues(string(t.from), "provider_error").Inc()
		return &Outbound{
			SessionID:    in.SessionID,
			ResponseText: msgTryAgain,
			Session:      stored,
			Intent:       t.intent,
			StageFrom:    t.from,
			StageTo:      t.from,
			Decisions:    t.decisions,
			Retryable:    true,
		}, nil
	}

	if err := checkTransition(t.routedAt, t.session.Stage, t.reset); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("turn for session %s: %w", in.SessionID, err)
	}

	// The response must exist before the session says it was submitted
	if t.submitted != nil {
		if err := o.responses.SaveResponse(ctx, t.submitted); err != nil {
			o.logger.Error("ORCHESTRATOR", "Failed to save form response, turn not applied", map[string]interface{}{
				"session_id":  in.SessionID,
				"response_id": t.submitted.ID,
				"error":       err.Error(),
			})
			span.RecordError(err)
			metrics.TurnsTotal.WithLabelValues(string(t.from), "save_error").Inc()
			return &Outbound{
				SessionID:    in.SessionID,
				ResponseText: msgSubmitFailed,
				Session:      stored,
				Intent:       t.intent,
				StageFrom:    t.from,
				StageTo:      t.from,
				Decisions:    t.decisions,
				Retryable:    true,
			}, nil
		}
	}

	if err := o.commit(ctx, t, text, expected); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			metrics.VersionConflicts.Inc()
			metrics.TurnsTotal.WithLabelValues(string(t.from), "conflict").Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit")
		return nil, err
	}

	o.afterCommit(ctx, t)

	to := t.session.Stage
	if to != t.from {
		metrics.StageTransitions.WithLabelValues(string(t.from), string(to)).Inc()
	}
	metrics.TurnsTotal.WithLabelValues(string(t.from), "ok").Inc()
	metrics.TurnDuration.WithLabelValues(string(t.from)).Observe(o.now().Sub(start).Seconds())
	span.SetAttributes(
		attribute.String("stage.to", string(to)),
		attribute.String("intent", string(t.intent)),
	)

	return &Outbound{
		SessionID:    in.SessionID,
		ResponseText: text,
		Session:      t.session.Clone(),
		Intent:       t.intent,
		StageFrom:    t.from,
		StageTo:      to,
		Decisions:    t.decisions,
		Submitted:    t.submitted,
	}, nil
}

func (o *Orchestrator) load(ctx context.Context, in Inbound) (*store.Session, int64, error) {
	s, err := o.sessions.Get(ctx, in.SessionID)
	if errors.Is(err, store.ErrSessionNotFound) {
		return store.New(in.SessionID, in.UserID, o.now()), 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load session %s: %w", in.SessionID, err)
	}
	if s.UserID != in.UserID {
		return nil, 0, ErrSessionOwner
	}
	return s, s.Version, nil
}

// dispatch runs the handler for the session's stage and returns the reply text
func (o *Orchestrator) dispatch(ctx context.Context, t *turn) (string, error) {
	s := t.session
	t.routedAt = s.Stage

	switch s.Stage {
	case store.StageIdle:
		o.enter(t)
		return o.handleSearching(ctx, t)
	case store.StageSubmitted:
		s.ClearForm()
		o.enter(t)
		return o.handleSearching(ctx, t)
	case store.StageSearching:
		return o.handleSearching(ctx, t)
	case store.StagePredicted:
		return o.handlePredicted(ctx, t)
	case store.StageFilling:
		return o.handleFilling(ctx, t)
	case store.StageConfirming:
		return o.handleConfirming(ctx, t)
	default:
		o.logger.Error("ORCHESTRATOR", "Session in unknown stage, resetting", map[string]interface{}{
			"session_id": s.ID,
			"stage":      string(s.Stage),
		})
		return o.resetContext(t), nil
	}
}

// enter takes the entry edge into searching. It is not a decision transition.
func (o *Orchestrator) enter(t *turn) {
	t.session.Stage = store.StageSearching
	t.routedAt = store.StageSearching
}

// resetContext handles a session that points at state that no longer exists
func (o *Orchestrator) resetContext(t *turn) string {
	s := t.session
	s.ClearForm()
	s.Stage = store.StageIdle
	t.reset = true
	return msgContextLost
}

func (o *Orchestrator) commit(ctx context.Context, t *turn, text string, expected int64) error {
	now := o.now()
	s := t.session
	s.LastPrompt = text
	s.LastActivity = now
	s.AppendTurn("user", t.in.Message, now, o.settings.HistoryLimit)
	s.AppendTurn("assistant", text, now, o.settings.HistoryLimit)

	// Nothing is written once the caller has gone away
	if err := ctx.Err(); err != nil {
		return err
	}
	return o.sessions.Put(ctx, s, expected)
}

func (o *Orchestrator) afterCommit(ctx context.Context, t *turn) {
	if t.submitted == nil {
		return
	}
	ev := events.FormSubmitted(t.submitted.ID, t.submitted.FormID, t.submitted.RespondentID, t.session.ID, t.submitted.CreatedAt)
	if err := o.publisher.Publish(ctx, ev); err != nil {
		o.logger.Warn("ORCHESTRATOR", "Failed to publish form submitted event", map[string]interface{}{
			"response_id": t.submitted.ID,
			"error":       err.Error(),
		})
	}
}
