package dto

import (
	"time"

	"formchat-be/pkg/agent/orchestrator"
	"formchat-be/pkg/store"
)

type SendMessageRequest struct {
	SessionId string `json:"session_id" validate:"required,max=64"`
	Message   string `json:"message" validate:"max=4000"`
	// Explain is "user" (default) or "developer"
	Explain string `json:"explain" validate:"omitempty,oneof=user developer"`
}

type SendMessageResponse struct {
	SessionId    string                  `json:"session_id"`
	ResponseText string                  `json:"response_text"`
	Intent       string                  `json:"intent,omitempty"`
	StageFrom    store.Stage             `json:"stage_from"`
	StageTo      store.Stage             `json:"stage_to"`
	Retryable    bool                    `json:"retryable,omitempty"`
	SubmittedId  string                  `json:"submitted_response_id,omitempty"`
	Session      *SessionResponse        `json:"session_snapshot"`
	Decisions    []orchestrator.Decision `json:"decisions,omitempty"`
}

type SessionResponse struct {
	SessionId              string            `json:"session_id"`
	Stage                  store.Stage       `json:"stage"`
	CurrentFormId          string            `json:"current_form_id,omitempty"`
	FilledFields           map[string]string `json:"filled_fields"`
	UnfilledRequiredFields []string          `json:"unfilled_required_fields"`
	CurrentField           string            `json:"current_field,omitempty"`
	PendingFormId          string            `json:"pending_form_id,omitempty"`
	Candidates             []store.Candidate `json:"candidates,omitempty"`
	LastPrompt             string            `json:"last_prompt,omitempty"`
	LastActivity           time.Time         `json:"last_activity"`
	Version                int64             `json:"version"`
}

type ConversationLogResponse struct {
	StageFrom   string    `json:"stage_from"`
	StageTo     string    `json:"stage_to"`
	Intent      string    `json:"intent,omitempty"`
	UserMessage string    `json:"user_message"`
	Response    string    `json:"response"`
	CreatedAt   time.Time `json:"created_at"`
}

// PublishTurnMessage is the watermill payload for one handled message
type PublishTurnMessage struct {
	SessionId   string    `json:"session_id"`
	UserId      string    `json:"user_id"`
	StageFrom   string    `json:"stage_from"`
	StageTo     string    `json:"stage_to"`
	Intent      string    `json:"intent"`
	UserMessage string    `json:"user_message"`
	Response    string    `json:"response"`
	OccurredAt  time.Time `json:"occurred_at"`
}
