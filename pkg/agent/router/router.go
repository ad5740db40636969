package router

import (
	"context"
	"fmt"
	"strings"

	"formchat-be/internal/pkg/logger"
	"formchat-be/pkg/agent/prompt"
	"formchat-be/pkg/agent/reasoning"
	"formchat-be/pkg/llm"
	"formchat-be/pkg/metrics"
	"formchat-be/pkg/store"

	"github.com/google/uuid"
)

type Intent string

const (
	IntentFormFilling         Intent = "form_filling"
	IntentReportGeneration    Intent = "report_generation"
	IntentGeneralQuery        Intent = "general_query"
	IntentClarificationNeeded Intent = "clarification_needed"
)

func (i Intent) Valid() bool {
	switch i {
	case IntentFormFilling, IntentReportGeneration, IntentGeneralQuery, IntentClarificationNeeded:
		return true
	}
	return false
}

const DefaultMinConfidence = 0.5

var Schema = llm.Schema{
	Name:     "intent_classification",
	Required: []string{"intent", "confidence"},
}

// Context is what the router sees of the conversation besides the message
type Context struct {
	Stage       store.Stage
	CurrentForm string
	History     []store.Turn
}

type Result struct {
	Intent     Intent
	Confidence float64
	Chain      reasoning.Sealed
}

type classification struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Router classifies a message into an Intent. When unsure it answers
// clarification_needed rather than guessing.
type Router struct {
	client        llm.Client
	catalog       *prompt.Catalog
	minConfidence float64
	logger        logger.ILogger
}

func New(client llm.Client, catalog *prompt.Catalog, minConfidence float64, logger logger.ILogger) *Router {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Router{
		client:        client,
		catalog:       catalog,
		minConfidence: minConfidence,
		logger:        logger,
	}
}

// Classify never returns the provider error; failures become
// clarification_needed with the cause recorded as evidence.
func (r *Router) Classify(ctx context.Context, message string, rc Context) Result {
	chain := reasoning.Start(uuid.NewString(), "intent_classification", message)

	text, err := r.catalog.Render(prompt.Router, prompt.RouterData{
		Message:     message,
		Stage:       rc.Stage,
		CurrentForm: rc.CurrentForm,
		History:     rc.History,
	})
	if err != nil {
		return r.fallback(chain, "prompt rendering failed", err)
	}

	var out classification
	if err := r.client.Complete(ctx, text, Schema, &out); err != nil {
		r.logger.Warn("ROUTER", "Classification failed, asking for clarification", map[string]interface{}{
			"kind":  string(llm.KindOf(err)),
			"error": err.Error(),
		})
		return r.fallback(chain, "classification unavailable", err)
	}

	confidence := reasoning.Clamp(out.Confidence)
	intent := Intent(strings.ToLower(strings.TrimSpace(out.Intent)))
	chain.Record("llm_classification", message, string(intent), confidence, out.Reasoning)

	switch {
	case !intent.Valid():
		chain.Record("validation", string(intent), string(IntentClarificationNeeded), 0,
			"model returned an unknown intent", fmt.Sprintf("label: %q", out.Intent))
		intent = IntentClarificationNeeded
	case confidence < r.minConfidence && intent != IntentClarificationNeeded:
		chain.Record("threshold", string(intent), string(IntentClarificationNeeded), confidence,
			"confidence below routing threshold",
			fmt.Sprintf("confidence %.2f < %.2f", confidence, r.minConfidence))
		intent = IntentClarificationNeeded
	}

	metrics.Decisions.WithLabelValues("router", string(intent)).Inc()
	return Result{
		Intent:     intent,
		Confidence: confidence,
		Chain:      chain.Seal(string(intent)),
	}
}

func (r *Router) fallback(chain *reasoning.Chain, rationale string, err error) Result {
	evidence := []string{fmt.Sprintf("llm_error: %s", llm.KindOf(err))}
	chain.Record("fallback", chain.Input, string(IntentClarificationNeeded), 0, rationale, evidence...)
	metrics.Decisions.WithLabelValues("router", "fallback").Inc()
	return Result{
		Intent:     IntentClarificationNeeded,
		Confidence: 0,
		Chain:      chain.Seal(string(IntentClarificationNeeded)),
	}
}
