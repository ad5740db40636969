package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type FormResponse struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FormTemplateId uuid.UUID      `gorm:"type:uuid;not null;index"`
	RespondentId   uuid.UUID      `gorm:"type:uuid;not null;index"`
	SessionId      string         `gorm:"type:varchar(64);index"`
	Responses      datatypes.JSON `gorm:"type:jsonb;not null"`
	Status         string         `gorm:"type:varchar(20);not null;default:'complete';index"`
	ReviewNote     string         `gorm:"type:text"`
	CreatedAt      time.Time      `gorm:"autoCreateTime;index"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`

	FormTemplate FormTemplate `gorm:"foreignKey:FormTemplateId"`
}

func (FormResponse) TableName() string {
	return "form_responses"
}
