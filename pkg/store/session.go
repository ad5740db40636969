package store

import (
	"context"
	"errors"
	"time"
)

// Stage is the position of a session in the form-filling state machine
type Stage string

const (
	StageIdle       Stage = "idle"
	StageSearching  Stage = "searching"
	StagePredicted  Stage = "predicted"
	StageFilling    Stage = "filling"
	StageConfirming Stage = "confirming"
	StageSubmitted  Stage = "submitted"
)

// Valid reports whether s is one of the known stages
func (s Stage) Valid() bool {
	switch s {
	case StageIdle, StageSearching, StagePredicted, StageFilling, StageConfirming, StageSubmitted:
		return true
	}
	return false
}

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrVersionConflict = errors.New("session version conflict")
)

// Candidate is a form shown to the user during clarification
type Candidate struct {
	FormID     string  `json:"form_id"`
	Title      string  `json:"title"`
	Confidence float64 `json:"confidence"`
}

// Turn is one entry of the conversation history kept with the session
type Turn struct {
	Role string    `json:"role"` // "user" | "assistant"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session represents the per-conversation form progress
type Session struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Stage  Stage  `json:"stage"`

	// THE WORKBENCH (form currently being filled, empty when none)
	CurrentFormID          string            `json:"current_form_id,omitempty"`
	FilledFields           map[string]string `json:"filled_fields"`
	UnfilledRequiredFields []string          `json:"unfilled_required_fields"`
	SkippedFields          []string          `json:"skipped_fields,omitempty"`
	CurrentField           string            `json:"current_field,omitempty"`

	// THE WAITING ROOM (prediction awaiting confirmation, or clarification candidates)
	PendingFormID     string      `json:"pending_form_id,omitempty"`
	PendingConfidence float64     `json:"pending_confidence,omitempty"`
	Candidates        []Candidate `json:"candidates,omitempty"`
	IntentChoice      bool        `json:"intent_choice,omitempty"` // last prompt offered the intent menu
	RepromptCount     int         `json:"reprompt_count"`

	LastPrompt   string    `json:"last_prompt,omitempty"`
	History      []Turn    `json:"history,omitempty"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`

	// Version is bumped by the store on every successful Put
	Version int64 `json:"version"`
}

// New returns a fresh idle session
func New(id, userID string, now time.Time) *Session {
	return &Session{
		ID:           id,
		UserID:       userID,
		Stage:        StageIdle,
		FilledFields: map[string]string{},
		LastActivity: now,
		CreatedAt:    now,
	}
}

// Clone returns a deep copy so a turn can mutate it without touching the stored value
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.FilledFields = make(map[string]string, len(s.FilledFields))
	for k, v := range s.FilledFields {
		c.FilledFields[k] = v
	}
	c.UnfilledRequiredFields = append([]string(nil), s.UnfilledRequiredFields...)
	c.SkippedFields = append([]string(nil), s.SkippedFields...)
	c.Candidates = append([]Candidate(nil), s.Candidates...)
	c.History = append([]Turn(nil), s.History...)
	return &c
}

// ClearForm drops all per-form progress, keeping identity and history
func (s *Session) ClearForm() {
	s.CurrentFormID = ""
	s.FilledFields = map[string]string{}
	s.UnfilledRequiredFields = nil
	s.SkippedFields = nil
	s.CurrentField = ""
	s.PendingFormID = ""
	s.PendingConfidence = 0
	s.Candidates = nil
	s.IntentChoice = false
	s.RepromptCount = 0
}

// IsSkipped reports whether fieldID was explicitly skipped
func (s *Session) IsSkipped(fieldID string) bool {
	for _, f := range s.SkippedFields {
		if f == fieldID {
			return true
		}
	}
	return false
}

// AppendTurn records a history entry and keeps at most limit entries
func (s *Session) AppendTurn(role, text string, at time.Time, limit int) {
	s.History = append(s.History, Turn{Role: role, Text: text, At: at})
	if limit > 0 && len(s.History) > limit {
		s.History = append([]Turn(nil), s.History[len(s.History)-limit:]...)
	}
}

// Store is the single source of truth for session state.
// Put succeeds only when the stored version equals expectedVersion
// (0 for a session that does not exist yet) and sets session.Version to expectedVersion+1.
type Store interface {
	Get(ctx context.Context, sessionID string) (*Session, error)
	Put(ctx context.Context, session *Session, expectedVersion int64) error
	Archive(ctx context.Context, sessionID string) error
}
