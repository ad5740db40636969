package predictor

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"formchat-be/internal/pkg/logger"
	"formchat-be/pkg/agent/prompt"
	"formchat-be/pkg/agent/reasoning"
	"formchat-be/pkg/forms"
	"formchat-be/pkg/llm"
	"formchat-be/pkg/metrics"

	"github.com/google/uuid"
)

type Band string

const (
	BandHigh   Band = "high"   // assign directly
	BandMedium Band = "medium" // assign after confirmation
	BandLow    Band = "low"    // clarify with candidates
)

const (
	DefaultHigh = 0.80
	DefaultLow  = 0.50
	DefaultTopN = 3
)

var Schema = llm.Schema{
	Name:     "form_prediction",
	Required: []string{"scores"},
}

// Thresholds splits confidence into bands: c > High is BandHigh,
// Low <= c <= High is BandMedium, anything lower is BandLow.
type Thresholds struct {
	High float64
	Low  float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{High: DefaultHigh, Low: DefaultLow}
}

func (t Thresholds) BandOf(confidence float64) Band {
	switch {
	case confidence > t.High:
		return BandHigh
	case confidence >= t.Low:
		return BandMedium
	default:
		return BandLow
	}
}

type Candidate struct {
	FormID     string  `json:"form_id"`
	Title      string  `json:"title"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

type Prediction struct {
	FormID     string
	Title      string
	Confidence float64
	Rationale  string
	Band       Band
	// Candidates holds the top N ranked forms
	Candidates []Candidate
	Chain      reasoning.Sealed
}

type scoreReply struct {
	Scores []struct {
		FormID     string  `json:"form_id"`
		Confidence float64 `json:"confidence"`
		Reason     string  `json:"reason"`
	} `json:"scores"`
}

type Predictor struct {
	client     llm.Client
	catalog    *prompt.Catalog
	thresholds Thresholds
	topN       int
	logger     logger.ILogger
}

func New(client llm.Client, catalog *prompt.Catalog, thresholds Thresholds, topN int, logger logger.ILogger) *Predictor {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Predictor{
		client:     client,
		catalog:    catalog,
		thresholds: thresholds,
		topN:       topN,
		logger:     logger,
	}
}

// Predict scores every available form against the message. Malformed model
// output scores every form 0; other LLM failures are returned as *llm.Error.
func (p *Predictor) Predict(ctx context.Context, message string, available []forms.FormTemplate) (*Prediction, error) {
	chain := reasoning.Start(uuid.NewString(), "form_prediction", message)

	// Earliest created first so the stable sort below breaks ties by creation order
	ordered := append([]forms.FormTemplate(nil), available...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	if len(ordered) == 0 {
		chain.Record("catalog", "", "", 0, "no forms are available")
		return &Prediction{Band: BandLow, Chain: chain.Seal("")}, nil
	}

	text, err := p.catalog.Render(prompt.Predictor, prompt.PredictorData{Message: message, Forms: ordered})
	if err != nil {
		return nil, err
	}

	var reply scoreReply
	err = p.client.Complete(ctx, text, Schema, &reply)
	switch {
	case err == nil:
	case llm.KindOf(err) == llm.KindMalformedOutput:
		p.logger.Warn("PREDICTOR", "Malformed scoring output, treating as no match", map[string]interface{}{
			"error": err.Error(),
		})
		chain.Record("scoring", message, "malformed", 0, "model output could not be read",
			"llm_error: malformed_output")
	default:
		var llmErr *llm.Error
		if !errors.As(err, &llmErr) {
			llmErr = llm.NewError(llm.KindOf(err), "", err)
		}
		return nil, llmErr
	}

	known := make(map[string]int, len(ordered))
	for i, f := range ordered {
		known[f.ID] = i
	}

	ranked := make([]Candidate, len(ordered))
	for i, f := range ordered {
		ranked[i] = Candidate{FormID: f.ID, Title: f.Title}
	}

	for _, s := range reply.Scores {
		idx, ok := known[s.FormID]
		if !ok {
			chain.Record("filter", s.FormID, "dropped", 0, "model scored an unknown form",
				fmt.Sprintf("form_id: %q", s.FormID))
			continue
		}
		c := reasoning.Clamp(s.Confidence)
		if c >= ranked[idx].Confidence {
			ranked[idx].Confidence = c
			ranked[idx].Reason = s.Reason
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	top := ranked[0]
	band := p.thresholds.BandOf(top.Confidence)

	evidence := make([]string, 0, len(ranked))
	for _, c := range ranked {
		evidence = append(evidence, fmt.Sprintf("%s=%.2f", c.FormID, c.Confidence))
	}
	chain.Record("ranking", message, top.FormID, top.Confidence, rationaleFor(top, band), evidence...)

	n := p.topN
	if n > len(ranked) {
		n = len(ranked)
	}

	metrics.Decisions.WithLabelValues("predictor", string(band)).Inc()

	pred := &Prediction{
		Confidence: top.Confidence,
		Rationale:  top.Reason,
		Band:       band,
		Candidates: append([]Candidate(nil), ranked[:n]...),
	}
	if band != BandLow {
		pred.FormID = top.FormID
		pred.Title = top.Title
	}
	pred.Chain = chain.Seal(pred.FormID)
	return pred, nil
}

// FullList returns every form as a candidate in creation order
func FullList(available []forms.FormTemplate) []Candidate {
	ordered := append([]forms.FormTemplate(nil), available...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	out := make([]Candidate, len(ordered))
	for i, f := range ordered {
		out[i] = Candidate{FormID: f.ID, Title: f.Title}
	}
	return out
}

func rationaleFor(top Candidate, band Band) string {
	switch band {
	case BandHigh:
		if top.Reason != "" {
			return top.Reason
		}
		return fmt.Sprintf("%s is a clear match", top.Title)
	case BandMedium:
		return fmt.Sprintf("%s is a likely match that needs confirmation", top.Title)
	default:
		return "no form matched confidently"
	}
}
