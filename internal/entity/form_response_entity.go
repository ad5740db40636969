package entity

import (
	"time"

	"formchat-be/pkg/forms"

	"github.com/google/uuid"
)

type FormResponse struct {
	Id             uuid.UUID
	FormTemplateId uuid.UUID
	RespondentId   uuid.UUID
	SessionId      string
	Responses      map[string]string
	Status         forms.ResponseStatus
	ReviewNote     string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
