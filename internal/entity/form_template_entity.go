package entity

import (
	"time"

	"formchat-be/pkg/forms"

	"github.com/google/uuid"
)

type FormTemplate struct {
	Id          uuid.UUID
	Title       string
	Description string
	Keywords    []string
	Fields      []forms.Field
	Status      forms.TemplateStatus
	CreatedBy   *uuid.UUID // nil for shared templates
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}
