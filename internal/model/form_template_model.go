package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FormTemplate struct {
	Id          uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string                      `gorm:"type:text;not null"`
	Description string                      `gorm:"type:text"`
	Keywords    datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Fields      datatypes.JSON              `gorm:"type:jsonb;not null"`
	Status      string                      `gorm:"type:varchar(20);not null;default:'active';index"`
	CreatedBy   *uuid.UUID                  `gorm:"type:uuid;index"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt              `gorm:"index"`
}

func (FormTemplate) TableName() string {
	return "form_templates"
}
