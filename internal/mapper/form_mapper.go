package mapper

import (
	"encoding/json"
	"fmt"
	"time"

	"formchat-be/internal/entity"
	"formchat-be/internal/model"
	"formchat-be/pkg/forms"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FormMapper struct{}

func NewFormMapper() *FormMapper {
	return &FormMapper{}
}

// Template Mappers

func (m *FormMapper) TemplateToEntity(t *model.FormTemplate) (*entity.FormTemplate, error) {
	if t == nil {
		return nil, nil
	}

	var fields []forms.Field
	if len(t.Fields) > 0 {
		if err := json.Unmarshal(t.Fields, &fields); err != nil {
			return nil, fmt.Errorf("decode fields of template %s: %w", t.Id, err)
		}
	}

	var deletedAt *time.Time
	if t.DeletedAt.Valid {
		dt := t.DeletedAt.Time
		deletedAt = &dt
	}

	var updatedAt *time.Time
	if !t.UpdatedAt.IsZero() {
		ut := t.UpdatedAt
		updatedAt = &ut
	}

	return &entity.FormTemplate{
		Id:          t.Id,
		Title:       t.Title,
		Description: t.Description,
		Keywords:    []string(t.Keywords),
		Fields:      fields,
		Status:      forms.TemplateStatus(t.Status),
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
		IsDeleted:   t.DeletedAt.Valid,
	}, nil
}

func (m *FormMapper) TemplateToModel(t *entity.FormTemplate) (*model.FormTemplate, error) {
	if t == nil {
		return nil, nil
	}

	fields, err := json.Marshal(t.Fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields of template %s: %w", t.Id, err)
	}

	var deletedAt gorm.DeletedAt
	if t.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *t.DeletedAt, Valid: true}
	} else if t.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if t.UpdatedAt != nil {
		updatedAt = *t.UpdatedAt
	}

	status := t.Status
	if status == "" {
		status = forms.TemplateActive
	}

	return &model.FormTemplate{
		Id:          t.Id,
		Title:       t.Title,
		Description: t.Description,
		Keywords:    datatypes.JSONSlice[string](t.Keywords),
		Fields:      datatypes.JSON(fields),
		Status:      string(status),
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
	}, nil
}

// Response Mappers

func (m *FormMapper) ResponseToEntity(r *model.FormResponse) (*entity.FormResponse, error) {
	if r == nil {
		return nil, nil
	}

	responses := map[string]string{}
	if len(r.Responses) > 0 {
		if err := json.Unmarshal(r.Responses, &responses); err != nil {
			return nil, fmt.Errorf("decode response %s: %w", r.Id, err)
		}
	}

	var updatedAt *time.Time
	if !r.UpdatedAt.IsZero() {
		ut := r.UpdatedAt
		updatedAt = &ut
	}

	return &entity.FormResponse{
		Id:             r.Id,
		FormTemplateId: r.FormTemplateId,
		RespondentId:   r.RespondentId,
		SessionId:      r.SessionId,
		Responses:      responses,
		Status:         forms.ResponseStatus(r.Status),
		ReviewNote:     r.ReviewNote,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      updatedAt,
	}, nil
}

func (m *FormMapper) ResponseToModel(r *entity.FormResponse) (*model.FormResponse, error) {
	if r == nil {
		return nil, nil
	}

	responses, err := json.Marshal(r.Responses)
	if err != nil {
		return nil, fmt.Errorf("encode response %s: %w", r.Id, err)
	}

	var updatedAt time.Time
	if r.UpdatedAt != nil {
		updatedAt = *r.UpdatedAt
	}

	return &model.FormResponse{
		Id:             r.Id,
		FormTemplateId: r.FormTemplateId,
		RespondentId:   r.RespondentId,
		SessionId:      r.SessionId,
		Responses:      datatypes.JSON(responses),
		Status:         string(r.Status),
		ReviewNote:     r.ReviewNote,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      updatedAt,
	}, nil
}
