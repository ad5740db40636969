package filler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"formchat-be/internal/pkg/logger"
	"formchat-be/pkg/agent/prompt"
	"formchat-be/pkg/agent/reasoning"
	"formchat-be/pkg/forms"
	"formchat-be/pkg/llm"
	"formchat-be/pkg/metrics"
	"formchat-be/pkg/store"

	"github.com/google/uuid"
)

var Schema = llm.Schema{
	Name:     "field_extraction",
	Required: []string{"fields"},
}

var skipTokens = map[string]bool{
	"skip": true, "none": true, "n/a": true, "pular": true, "nenhum": true,
}

// IsSkip reports whether the message asks to leave the current field blank
func IsSkip(message string) bool {
	return skipTokens[strings.ToLower(strings.Trim(message, " .!"))]
}

type Result struct {
	// UpdatedFields holds the values accepted this turn, normalized
	UpdatedFields map[string]string
	// Rejected maps field id to the reason its value was refused
	Rejected   map[string]string
	Skipped    []string
	NextField  string
	NextPrompt string
	IsComplete bool
	// Unchanged is set when the message was empty and nothing was touched
	Unchanged bool
	Chain     reasoning.Sealed
}

type extractionReply struct {
	Fields     map[string]interface{} `json:"fields"`
	Confidence float64                `json:"confidence"`
}

type Filler struct {
	client    llm.Client
	catalog   *prompt.Catalog
	validator *Validator
	logger    logger.ILogger
}

func New(client llm.Client, catalog *prompt.Catalog, logger logger.ILogger) *Filler {
	return &Filler{
		client:    client,
		catalog:   catalog,
		validator: NewValidator(logger),
		logger:    logger,
	}
}

// Begin points the session at tmpl with nothing filled and returns the first question
func (f *Filler) Begin(s *store.Session, tmpl *forms.FormTemplate) string {
	s.CurrentFormID = tmpl.ID
	s.FilledFields = map[string]string{}
	s.UnfilledRequiredFields = tmpl.RequiredFieldIDs()
	s.SkippedFields = nil
	s.CurrentField = firstOpen(s, tmpl)

	if s.CurrentField == "" {
		return fmt.Sprintf("Let's fill out %s.", tmpl.Title)
	}
	field, _ := tmpl.Field(s.CurrentField)
	return fmt.Sprintf("Let's fill out %s. %s", tmpl.Title, Question(field))
}

// ExtractAndAdvance applies one user message to the working copy s. Only
// provider failures are returned as errors, and s is untouched when they are.
func (f *Filler) ExtractAndAdvance(ctx context.Context, message string, s *store.Session, tmpl *forms.FormTemplate) (*Result, error) {
	chain := reasoning.Start(uuid.NewString(), "field_extraction", message)

	if strings.TrimSpace(message) == "" {
		chain.Record("input", "", "", 0, "empty message, repeating the question")
		next := s.LastPrompt
		if next == "" {
			next = f.questionFor(s.CurrentField, tmpl)
		}
		return &Result{
			NextField:  s.CurrentField,
			NextPrompt: next,
			IsComplete: len(s.UnfilledRequiredFields) == 0,
			Unchanged:  true,
			Chain:      chain.Seal(""),
		}, nil
	}

	res := &Result{
		UpdatedFields: map[string]string{},
		Rejected:      map[string]string{},
	}

	if IsSkip(message) && s.CurrentField != "" {
		f.skip(s, tmpl, res, chain)
	} else {
		extracted, err := f.extract(ctx, message, s, tmpl, chain)
		if err != nil {
			return nil, err
		}
		f.apply(s, tmpl, extracted, res, chain)
	}

	s.CurrentField = nextField(s, tmpl)
	res.NextField = s.CurrentField
	res.IsComplete = len(s.UnfilledRequiredFields) == 0
	res.NextPrompt = f.compose(tmpl, res)

	metrics.Decisions.WithLabelValues("filler", outcome(res)).Inc()
	res.Chain = chain.Seal(strings.Join(sortedKeys(res.UpdatedFields), ","))
	return res, nil
}

func (f *Filler) skip(s *store.Session, tmpl *forms.FormTemplate, res *Result, chain *reasoning.Chain) {
	field, ok := tmpl.Field(s.CurrentField)
	if !ok {
		return
	}
	if field.Required {
		res.Rejected[field.ID] = "is required and can't be skipped"
		chain.Record("skip", field.ID, "rejected", 1, "required fields cannot be skipped")
		return
	}
	if !s.IsSkipped(field.ID) {
		s.SkippedFields = append(s.SkippedFields, field.ID)
	}
	res.Skipped = append(res.Skipped, field.ID)
	chain.Record("skip", field.ID, "skipped", 1, "optional field skipped on request")
}

// extract returns raw candidate values keyed by field id
func (f *Filler) extract(ctx context.Context, message string, s *store.Session, tmpl *forms.FormTemplate, chain *reasoning.Chain) (map[string]string, error) {
	text, err := f.catalog.Render(prompt.Extraction, prompt.ExtractionData{
		Message:      message,
		Form:         *tmpl,
		CurrentField: s.CurrentField,
		LastPrompt:   s.LastPrompt,
	})
	if err != nil {
		return nil, err
	}

	var reply extractionReply
	err = f.client.Complete(ctx, text, Schema, &reply)
	switch {
	case err == nil:
	case llm.KindOf(err) == llm.KindMalformedOutput:
		f.logger.Warn("FILLER", "Malformed extraction output, using message as direct answer", map[string]interface{}{
			"field": s.CurrentField,
			"error": err.Error(),
		})
		chain.Record("extraction", message, "malformed", 0, "model output could not be read",
			"llm_error: malformed_output")
		return directAnswer(s, message), nil
	default:
		var llmErr *llm.Error
		if !errors.As(err, &llmErr) {
			llmErr = llm.NewError(llm.KindOf(err), "", err)
		}
		return nil, llmErr
	}

	out := make(map[string]string, len(reply.Fields))
	for id, v := range reply.Fields {
		if v == nil {
			continue
		}
		out[id] = strings.TrimSpace(fmt.Sprint(v))
	}

	if len(out) == 0 {
		chain.Record("extraction", message, "", reasoning.Clamp(reply.Confidence),
			"no fields recognised, treating message as the answer")
		return directAnswer(s, message), nil
	}

	chain.Record("extraction", message, strings.Join(sortedKeys(out), ","),
		reasoning.Clamp(reply.Confidence), "fields extracted from message")
	return out, nil
}

func (f *Filler) apply(s *store.Session, tmpl *forms.FormTemplate, extracted map[string]string, res *Result, chain *reasoning.Chain) {
	var evidence []string
	for id := range extracted {
		if _, ok := tmpl.Field(id); !ok {
			evidence = append(evidence, fmt.Sprintf("unknown field %q ignored", id))
		}
	}

	// Template order keeps the outcome independent of map iteration
	for _, field := range tmpl.Fields {
		raw, ok := extracted[field.ID]
		if !ok {
			continue
		}
		value, err := f.validator.Validate(field, raw)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				res.Rejected[field.ID] = verr.Reason
			} else {
				res.Rejected[field.ID] = "is not valid"
			}
			evidence = append(evidence, fmt.Sprintf("%s rejected: %v", field.ID, err))
			continue
		}

		s.FilledFields[field.ID] = value
		s.UnfilledRequiredFields = remove(s.UnfilledRequiredFields, field.ID)
		s.SkippedFields = remove(s.SkippedFields, field.ID)
		res.UpdatedFields[field.ID] = value
		evidence = append(evidence, fmt.Sprintf("%s accepted", field.ID))
	}

	total := len(res.UpdatedFields) + len(res.Rejected)
	confidence := 1.0
	if total > 0 {
		confidence = float64(len(res.UpdatedFields)) / float64(total)
	}
	chain.Record("validation", strings.Join(sortedKeys(extracted), ","),
		strings.Join(sortedKeys(res.UpdatedFields), ","), confidence, "values checked against field types", evidence...)
}

func (f *Filler) compose(tmpl *forms.FormTemplate, res *Result) string {
	var parts []string

	for _, field := range tmpl.Fields {
		if reason, ok := res.Rejected[field.ID]; ok {
			parts = append(parts, fmt.Sprintf("%s %s.", labelOf(field), reason))
		}
	}

	if len(res.UpdatedFields) > 0 {
		var got []string
		for _, field := range tmpl.Fields {
			if v, ok := res.UpdatedFields[field.ID]; ok {
				got = append(got, fmt.Sprintf("%s: %s", labelOf(field), v))
			}
		}
		parts = append(parts, fmt.Sprintf("Got it (%s).", strings.Join(got, "; ")))
	}

	if res.IsComplete {
		return strings.Join(parts, " ")
	}
	parts = append(parts, f.questionFor(res.NextField, tmpl))
	return strings.Join(parts, " ")
}

func (f *Filler) questionFor(fieldID string, tmpl *forms.FormTemplate) string {
	field, ok := tmpl.Field(fieldID)
	if !ok {
		return ""
	}
	return Question(field)
}

// Question is the prompt asking for one field
func Question(field forms.Field) string {
	var hint string
	switch field.Type {
	case forms.FieldDate:
		hint = " (YYYY-MM-DD)"
	case forms.FieldBoolean:
		hint = " (yes/no)"
	case forms.FieldSelect:
		hint = fmt.Sprintf(" (options: %s)", strings.Join(field.Options, ", "))
	}
	q := fmt.Sprintf("What is the %s?%s", strings.ToLower(labelOf(field)), hint)
	if !field.Required {
		q += " You can say \"skip\" to leave it blank."
	}
	return q
}

// Summary renders the collected values for the confirmation step
func Summary(s *store.Session, tmpl *forms.FormTemplate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is your %s:\n", tmpl.Title)
	for _, field := range tmpl.Fields {
		v, ok := s.FilledFields[field.ID]
		if !ok {
			v = "(not provided)"
		}
		fmt.Fprintf(&b, "- %s: %s\n", labelOf(field), v)
	}
	b.WriteString("Shall I submit it? Reply yes to submit or edit to change something.")
	return b.String()
}

// nextField is the field to ask next; none once every required field is filled
func nextField(s *store.Session, tmpl *forms.FormTemplate) string {
	if len(s.UnfilledRequiredFields) == 0 {
		return ""
	}
	return firstOpen(s, tmpl)
}

// firstOpen is the first template field neither filled nor skipped
func firstOpen(s *store.Session, tmpl *forms.FormTemplate) string {
	for _, field := range tmpl.Fields {
		if _, filled := s.FilledFields[field.ID]; filled {
			continue
		}
		if s.IsSkipped(field.ID) {
			continue
		}
		return field.ID
	}
	return ""
}

func directAnswer(s *store.Session, message string) map[string]string {
	if s.CurrentField == "" {
		return map[string]string{}
	}
	return map[string]string{s.CurrentField: strings.TrimSpace(message)}
}

func labelOf(field forms.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.ID
}

func remove(list []string, id string) []string {
	out := list[:0:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func outcome(res *Result) string {
	switch {
	case res.IsComplete:
		return "complete"
	case len(res.Rejected) > 0:
		return "rejected"
	case len(res.UpdatedFields) > 0:
		return "progress"
	default:
		return "no_change"
	}
}
