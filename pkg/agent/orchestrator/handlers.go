package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"formchat-be/pkg/agent/clarify"
	"formchat-be/pkg/agent/filler"
	"formchat-be/pkg/agent/predictor"
	"formchat-be/pkg/agent/reasoning"
	"formchat-be/pkg/agent/router"
	"formchat-be/pkg/forms"
	"formchat-be/pkg/store"

	"github.com/google/uuid"
)

var submissionNamespace = uuid.MustParse("6f1d3c1e-4b0a-4c55-9a57-3f0c2b8e1d42")

// errStaleForm marks a session that references a template that is gone
var errStaleForm = errors.New("session references unknown form")

func (o *Orchestrator) handleSearching(ctx context.Context, t *turn) (string, error) {
	s := t.session
	msg := t.in.Message

	if s.IntentChoice {
		if idx, ok := clarify.ParseSelection(msg, len(clarify.Intents())); ok {
			s.IntentChoice = false
			return o.routeIntent(ctx, t, router.Intent(clarify.Intents()[idx].ID), true)
		}
	}

	if len(s.Candidates) > 0 {
		if idx, ok := clarify.ParseSelection(msg, len(s.Candidates)); ok {
			return o.selectCandidate(ctx, t, s.Candidates[idx])
		}
	}

	res := o.router.Classify(ctx, msg, router.Context{
		Stage:       s.Stage,
		CurrentForm: s.CurrentFormID,
		History:     s.History,
	})
	t.record("router", res.Chain)

	return o.routeIntent(ctx, t, res.Intent, false)
}

// routeIntent acts on a classified intent. fromMenu is set when the user
// picked the intent from the clarification menu, so there is no form
// description to predict from yet.
func (o *Orchestrator) routeIntent(ctx context.Context, t *turn, intent router.Intent, fromMenu bool) (string, error) {
	t.intent = intent
	s := t.session

	switch intent {
	case router.IntentFormFilling:
		available, err := o.templates.ListTemplates(ctx, forms.Filter{UserID: s.UserID})
		if err != nil {
			return "", fmt.Errorf("list templates: %w", err)
		}
		if fromMenu {
			return o.showFullList(t, available), nil
		}
		return o.predict(ctx, t, available)

	case router.IntentReportGeneration:
		s.IntentChoice = false
		s.Candidates = nil
		text, err := o.reports.Generate(ctx, s.UserID, t.in.Message)
		if err != nil {
			return "", err
		}
		return text, nil

	case router.IntentGeneralQuery:
		s.IntentChoice = false
		return msgGeneralQuery, nil

	case router.IntentClarificationNeeded:
		if o.overReprompted(s) {
			available, err := o.templates.ListTemplates(ctx, forms.Filter{UserID: s.UserID})
			if err != nil {
				return "", fmt.Errorf("list templates: %w", err)
			}
			return o.showFullList(t, available), nil
		}
		s.Candidates = nil
		s.IntentChoice = true
		return clarify.Clarify(clarify.Intents(), t.in.Message), nil

	default:
		return "", fmt.Errorf("unhandled intent %q", intent)
	}
}

func (o *Orchestrator) predict(ctx context.Context, t *turn, available []forms.FormTemplate) (string, error) {
	s := t.session

	pred, err := o.predictor.Predict(ctx, t.in.Message, available)
	if err != nil {
		return "", err
	}
	t.record("predictor", pred.Chain)

	switch pred.Band {
	case predictor.BandHigh:
		tmpl, err := o.template(ctx, pred.FormID)
		if errors.Is(err, errStaleForm) {
			return o.resetContext(t), nil
		}
		if err != nil {
			return "", err
		}
		return o.startFilling(t, tmpl), nil

	case predictor.BandMedium:
		s.PendingFormID = pred.FormID
		s.PendingConfidence = pred.Confidence
		s.Candidates = nil
		s.IntentChoice = false
		s.RepromptCount = 0
		s.Stage = store.StagePredicted
		return fmt.Sprintf("It sounds like you want to fill out %s. Is that right? (yes/no)", pred.Title), nil

	case predictor.BandLow:
		if o.overReprompted(s) {
			return o.showFullList(t, available), nil
		}
		s.Candidates = toCandidates(pred.Candidates)
		s.IntentChoice = false
		options := make([]clarify.Option, len(pred.Candidates))
		for i, c := range pred.Candidates {
			options[i] = clarify.Option{ID: c.FormID, Title: c.Title}
		}
		return clarify.Clarify(options, t.in.Message), nil

	default:
		return "", fmt.Errorf("unhandled band %q", pred.Band)
	}
}

// overReprompted counts one more clarification and reports whether the
// limit has been passed, resetting the counter when it has
func (o *Orchestrator) overReprompted(s *store.Session) bool {
	s.RepromptCount++
	if s.RepromptCount > o.settings.MaxReprompts {
		s.RepromptCount = 0
		return true
	}
	return false
}

func (o *Orchestrator) showFullList(t *turn, available []forms.FormTemplate) string {
	s := t.session
	all := predictor.FullList(available)
	s.Candidates = toCandidates(all)
	s.IntentChoice = false

	options := make([]clarify.Option, len(all))
	for i, c := range all {
		options[i] = clarify.Option{ID: c.FormID, Title: c.Title}
	}
	if len(options) == 0 {
		return "There are no forms available right now."
	}
	return clarify.FullList(options, t.in.Message)
}

func (o *Orchestrator) selectCandidate(ctx context.Context, t *turn, c store.Candidate) (string, error) {
	tmpl, err := o.template(ctx, c.FormID)
	if errors.Is(err, errStaleForm) {
		return o.resetContext(t), nil
	}
	if err != nil {
		return "", err
	}

	chain := reasoning.Start(uuid.NewString(), "candidate_selection", t.in.Message)
	chain.Record("selection", t.in.Message, c.FormID, 1, fmt.Sprintf("You picked %s from the list", tmpl.Title))
	t.record("clarification", chain.Seal(c.FormID))
	t.intent = router.IntentFormFilling

	return o.startFilling(t, tmpl), nil
}

func (o *Orchestrator) startFilling(t *turn, tmpl *forms.FormTemplate) string {
	s := t.session
	s.PendingFormID = ""
	s.PendingConfidence = 0
	s.Candidates = nil
	s.IntentChoice = false
	s.RepromptCount = 0
	s.Stage = store.StageFilling
	return o.filler.Begin(s, tmpl)
}

func (o *Orchestrator) handlePredicted(ctx context.Context, t *turn) (string, error) {
	s := t.session

	tmpl, err := o.template(ctx, s.PendingFormID)
	if errors.Is(err, errStaleForm) {
		return o.resetContext(t), nil
	}
	if err != nil {
		return "", err
	}

	switch classifyReply(t.in.Message) {
	case replyConfirm:
		t.intent = router.IntentFormFilling
		return o.startFilling(t, tmpl), nil
	case replyDecline, replyEdit:
		s.PendingFormID = ""
		s.PendingConfidence = 0
		s.Stage = store.StageSearching
		return "No problem. Which form are you looking for? Tell me a bit more about what you need.", nil
	default:
		return fmt.Sprintf("Do you want to fill out %s? Please answer yes or no.", tmpl.Title), nil
	}
}

func (o *Orchestrator) handleFilling(ctx context.Context, t *turn) (string, error) {
	s := t.session

	tmpl, err := o.template(ctx, s.CurrentFormID)
	if errors.Is(err, errStaleForm) {
		return o.resetContext(t), nil
	}
	if err != nil {
		return "", err
	}

	t.intent = router.IntentFormFilling
	res, err := o.filler.ExtractAndAdvance(ctx, t.in.Message, s, tmpl)
	if err != nil {
		return "", err
	}
	t.record("filler", res.Chain)

	if !res.IsComplete {
		return res.NextPrompt, nil
	}

	s.Stage = store.StageConfirming
	summary := filler.Summary(s, tmpl)
	if res.NextPrompt == "" {
		return summary, nil
	}
	return res.NextPrompt + "\n" + summary, nil
}

func (o *Orchestrator) handleConfirming(ctx context.Context, t *turn) (string, error) {
	s := t.session

	tmpl, err := o.template(ctx, s.CurrentFormID)
	if errors.Is(err, errStaleForm) {
		return o.resetContext(t), nil
	}
	if err != nil {
		return "", err
	}

	t.intent = router.IntentFormFilling
	switch classifyReply(t.in.Message) {
	case replyConfirm:
		now := o.now()
		responses := make(map[string]string, len(s.FilledFields))
		for k, v := range s.FilledFields {
			responses[k] = v
		}
		t.submitted = &forms.FormResponse{
			ID:           submissionID(s),
			FormID:       tmpl.ID,
			RespondentID: s.UserID,
			SessionID:    s.ID,
			Responses:    responses,
			Status:       forms.StatusComplete,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		s.CurrentField = ""
		s.Stage = store.StageSubmitted
		return fmt.Sprintf("Your %s has been submitted. Is there anything else I can help you with?", tmpl.Title), nil

	case replyEdit, replyDecline:
		s.CurrentField = ""
		s.Stage = store.StageFilling
		return "Sure. Tell me which field you want to change and its new value.", nil

	default:
		return filler.Summary(s, tmpl), nil
	}
}

// template resolves a form the session points at
func (o *Orchestrator) template(ctx context.Context, formID string) (*forms.FormTemplate, error) {
	if formID == "" {
		return nil, errStaleForm
	}
	tmpl, err := o.templates.GetTemplate(ctx, formID)
	if errors.Is(err, forms.ErrTemplateNotFound) {
		o.logger.Warn("ORCHESTRATOR", "Session references a missing form", map[string]interface{}{
			"form_id": formID,
		})
		return nil, errStaleForm
	}
	if err != nil {
		return nil, fmt.Errorf("get template %s: %w", formID, err)
	}
	return tmpl, nil
}

// submissionID is stable for a given session version, so a submit that is
// retried after a failed commit saves the same response again
func submissionID(s *store.Session) string {
	return uuid.NewSHA1(submissionNamespace, []byte(s.ID+":"+strconv.FormatInt(s.Version, 10))).String()
}

func toCandidates(cs []predictor.Candidate) []store.Candidate {
	out := make([]store.Candidate, len(cs))
	for i, c := range cs {
		out[i] = store.Candidate{FormID: c.FormID, Title: c.Title, Confidence: c.Confidence}
	}
	return out
}
