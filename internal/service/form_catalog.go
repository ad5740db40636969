package service

import (
	"context"
	"fmt"
	"time"

	"formchat-be/internal/entity"
	"formchat-be/internal/repository/specification"
	"formchat-be/internal/repository/unitofwork"
	"formchat-be/pkg/forms"

	"github.com/google/uuid"
)

// FormCatalog serves templates and stores responses from the database for the
// conversation flow
type FormCatalog struct {
	uowFactory unitofwork.RepositoryFactory
}

var (
	_ forms.TemplateProvider = (*FormCatalog)(nil)
	_ forms.ResponseStore    = (*FormCatalog)(nil)
)

func NewFormCatalog(uowFactory unitofwork.RepositoryFactory) *FormCatalog {
	return &FormCatalog{uowFactory: uowFactory}
}

func (c *FormCatalog) GetTemplate(ctx context.Context, formID string) (*forms.FormTemplate, error) {
	id, err := uuid.Parse(formID)
	if err != nil {
		return nil, forms.ErrTemplateNotFound
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	t, err := uow.FormTemplateRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, fmt.Errorf("find template %s: %w", formID, err)
	}
	if t == nil {
		return nil, forms.ErrTemplateNotFound
	}
	out := templateFromEntity(t)
	return &out, nil
}

func (c *FormCatalog) ListTemplates(ctx context.Context, filter forms.Filter) ([]forms.FormTemplate, error) {
	specs := []specification.Specification{
		specification.OrderBy{Field: "created_at"},
		specification.OrderBy{Field: "id"},
	}
	if !filter.IncludeArchived {
		specs = append(specs, specification.ByTemplateStatus{Status: string(forms.TemplateActive)})
	}
	if filter.UserID != "" {
		if userID, err := uuid.Parse(filter.UserID); err == nil {
			specs = append(specs, specification.VisibleTo{UserID: &userID})
		} else {
			specs = append(specs, specification.VisibleTo{})
		}
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	templates, err := uow.FormTemplateRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	out := make([]forms.FormTemplate, len(templates))
	for i, t := range templates {
		out[i] = templateFromEntity(t)
	}
	return out, nil
}

func (c *FormCatalog) SaveResponse(ctx context.Context, response *forms.FormResponse) error {
	id, err := uuid.Parse(response.ID)
	if err != nil {
		return fmt.Errorf("response id %q: %w", response.ID, err)
	}
	formID, err := uuid.Parse(response.FormID)
	if err != nil {
		return fmt.Errorf("form id %q: %w", response.FormID, err)
	}
	respondentID, err := uuid.Parse(response.RespondentID)
	if err != nil {
		return fmt.Errorf("respondent id %q: %w", response.RespondentID, err)
	}

	updatedAt := response.UpdatedAt
	uow := c.uowFactory.NewUnitOfWork(ctx)
	return uow.FormResponseRepository().Create(ctx, &entity.FormResponse{
		Id:             id,
		FormTemplateId: formID,
		RespondentId:   respondentID,
		SessionId:      response.SessionID,
		Responses:      response.Responses,
		Status:         response.Status,
		CreatedAt:      response.CreatedAt,
		UpdatedAt:      &updatedAt,
	})
}

func (c *FormCatalog) ListResponses(ctx context.Context, filter forms.ResponseFilter) ([]forms.FormResponse, error) {
	specs := []specification.Specification{specification.OrderBy{Field: "created_at", Desc: true}}

	if filter.RespondentID != "" {
		respondentID, err := uuid.Parse(filter.RespondentID)
		if err != nil {
			return []forms.FormResponse{}, nil
		}
		specs = append(specs, specification.ByRespondent{RespondentID: respondentID})
	}
	if len(filter.FormIDs) > 0 {
		ids := make([]uuid.UUID, 0, len(filter.FormIDs))
		for _, raw := range filter.FormIDs {
			if id, err := uuid.Parse(raw); err == nil {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return []forms.FormResponse{}, nil
		}
		specs = append(specs, specification.ByFormTemplateIDs{IDs: ids})
	}
	if filter.Status != "" {
		specs = append(specs, specification.ByResponseStatus{Status: string(filter.Status)})
	}
	if filter.Limit > 0 {
		specs = append(specs, specification.Pagination{Limit: filter.Limit})
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	responses, err := uow.FormResponseRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	out := make([]forms.FormResponse, len(responses))
	for i, r := range responses {
		out[i] = responseFromEntity(r)
	}
	return out, nil
}

func templateFromEntity(t *entity.FormTemplate) forms.FormTemplate {
	var createdBy string
	if t.CreatedBy != nil {
		createdBy = t.CreatedBy.String()
	}
	return forms.FormTemplate{
		ID:          t.Id.String(),
		Title:       t.Title,
		Description: t.Description,
		Keywords:    t.Keywords,
		Fields:      t.Fields,
		Status:      t.Status,
		CreatedBy:   createdBy,
		CreatedAt:   t.CreatedAt,
	}
}

func responseFromEntity(r *entity.FormResponse) forms.FormResponse {
	var updatedAt time.Time
	if r.UpdatedAt != nil {
		updatedAt = *r.UpdatedAt
	}
	return forms.FormResponse{
		ID:           r.Id.String(),
		FormID:       r.FormTemplateId.String(),
		RespondentID: r.RespondentId.String(),
		SessionID:    r.SessionId,
		Responses:    r.Responses,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}
