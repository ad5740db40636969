package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByTemplateStatus struct {
	Status string
}

func (s ByTemplateStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// VisibleTo keeps shared templates (no creator) and the ones the user created
type VisibleTo struct {
	UserID *uuid.UUID
}

func (s VisibleTo) Apply(db *gorm.DB) *gorm.DB {
	if s.UserID == nil {
		return db.Where("created_by IS NULL")
	}
	return db.Where("created_by IS NULL OR created_by = ?", *s.UserID)
}

type ByRespondent struct {
	RespondentID uuid.UUID
}

func (s ByRespondent) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("respondent_id = ?", s.RespondentID)
}

type ByFormTemplateIDs struct {
	IDs []uuid.UUID
}

func (s ByFormTemplateIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("form_template_id IN ?", s.IDs)
}

type ByResponseStatus struct {
	Status string
}

func (s ByResponseStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}
