package forms

import (
	"context"
	"errors"
	"time"
)

// FieldType is the declared type of a template field
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldBoolean  FieldType = "boolean"
	FieldSelect   FieldType = "select"

	// Extended types with their own validation rules
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldURL      FieldType = "url"
	FieldCurrency FieldType = "currency"
)

// Valid reports whether t is a known field type
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldTextarea, FieldNumber, FieldDate, FieldBoolean, FieldSelect,
		FieldEmail, FieldPhone, FieldURL, FieldCurrency:
		return true
	}
	return false
}

type Field struct {
	ID          string    `json:"field_id"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty"`
	Description string    `json:"description,omitempty"`
	MinLength   int       `json:"min_length,omitempty"`
	MaxLength   int       `json:"max_length,omitempty"`
	Pattern     string    `json:"pattern,omitempty"`
}

type TemplateStatus string

const (
	TemplateActive   TemplateStatus = "active"
	TemplateArchived TemplateStatus = "archived"
)

// FormTemplate is the read-only schema of a fillable form
type FormTemplate struct {
	ID          string         `json:"form_id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Keywords    []string       `json:"keywords,omitempty"`
	Fields      []Field        `json:"fields"`
	Status      TemplateStatus `json:"status"`
	CreatedBy   string         `json:"created_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Field looks up a field by id
func (t *FormTemplate) Field(id string) (Field, bool) {
	for _, f := range t.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredFieldIDs returns the required field ids in declared order
func (t *FormTemplate) RequiredFieldIDs() []string {
	ids := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		if f.Required {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

type ResponseStatus string

const (
	StatusIncomplete    ResponseStatus = "incomplete"
	StatusComplete      ResponseStatus = "complete"
	StatusPendingReview ResponseStatus = "pending_review"
	StatusApproved      ResponseStatus = "approved"
	StatusRejected      ResponseStatus = "rejected"
)

// Valid reports whether s is a known response status
func (s ResponseStatus) Valid() bool {
	switch s {
	case StatusIncomplete, StatusComplete, StatusPendingReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

var reviewEdges = map[ResponseStatus][]ResponseStatus{
	StatusIncomplete:    {StatusComplete},
	StatusComplete:      {StatusPendingReview, StatusApproved, StatusRejected},
	StatusPendingReview: {StatusApproved, StatusRejected},
}

// CanMoveTo reports whether a response in status s may be moved to next.
// Approved and rejected are final.
func (s ResponseStatus) CanMoveTo(next ResponseStatus) bool {
	for _, to := range reviewEdges[s] {
		if to == next {
			return true
		}
	}
	return false
}

// FormResponse is a submitted set of answers for one template
type FormResponse struct {
	ID           string            `json:"response_id"`
	FormID       string            `json:"form_id"`
	RespondentID string            `json:"respondent_id"`
	SessionID    string            `json:"session_id,omitempty"`
	Responses    map[string]string `json:"responses"`
	Status       ResponseStatus    `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

var (
	ErrTemplateNotFound = errors.New("form template not found")
	ErrResponseNotFound = errors.New("form response not found")
)

// Filter narrows ListTemplates. Zero value lists every active template.
type Filter struct {
	UserID          string
	IncludeArchived bool
}

// TemplateProvider serves templates ordered by creation time, earliest first
type TemplateProvider interface {
	GetTemplate(ctx context.Context, formID string) (*FormTemplate, error)
	ListTemplates(ctx context.Context, filter Filter) ([]FormTemplate, error)
}

type ResponseFilter struct {
	RespondentID string
	FormIDs      []string
	Status       ResponseStatus
	Limit        int
}

// ResponseStore persists submitted responses
type ResponseStore interface {
	SaveResponse(ctx context.Context, response *FormResponse) error
	ListResponses(ctx context.Context, filter ResponseFilter) ([]FormResponse, error)
}
