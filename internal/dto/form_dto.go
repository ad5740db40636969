package dto

import (
	"time"

	"formchat-be/pkg/forms"

	"github.com/google/uuid"
)

type FormFieldRequest struct {
	FieldId     string   `json:"field_id" validate:"required,max=64"`
	Label       string   `json:"label" validate:"required"`
	Type        string   `json:"type" validate:"required,oneof=text textarea number date boolean select email phone url currency"`
	Required    bool     `json:"required"`
	Options     []string `json:"options" validate:"required_if=Type select"`
	Description string   `json:"description"`
	MinLength   int      `json:"min_length" validate:"gte=0"`
	MaxLength   int      `json:"max_length" validate:"gte=0"`
	Pattern     string   `json:"pattern"`
}

type CreateFormTemplateRequest struct {
	Title       string             `json:"title" validate:"required,max=200"`
	Description string             `json:"description"`
	Keywords    []string           `json:"keywords"`
	Shared      bool               `json:"shared"` // visible to every user
	Fields      []FormFieldRequest `json:"fields" validate:"required,min=1,dive"`
}

type CreateFormTemplateResponse struct {
	Id uuid.UUID `json:"id"`
}

type FormTemplateResponse struct {
	Id          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Keywords    []string      `json:"keywords,omitempty"`
	Fields      []forms.Field `json:"fields"`
	Status      string        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

type ListFormResponsesRequest struct {
	FormId string `query:"form_id" validate:"omitempty,uuid"`
	Status string `query:"status" validate:"omitempty,oneof=incomplete complete pending_review approved rejected"`
	Limit  int    `query:"limit" validate:"gte=0,lte=100"`
}

type FormResponseResponse struct {
	Id         string            `json:"id"`
	FormId     string            `json:"form_id"`
	FormTitle  string            `json:"form_title,omitempty"`
	SessionId  string            `json:"session_id,omitempty"`
	Responses  map[string]string `json:"responses"`
	Status     string            `json:"status"`
	ReviewNote string            `json:"review_note,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  *time.Time        `json:"updated_at,omitempty"`
}

type UpdateResponseStatusRequest struct {
	Id     uuid.UUID
	Status string `json:"status" validate:"required,oneof=pending_review approved rejected"`
	Note   string `json:"note" validate:"max=1000"`
}
