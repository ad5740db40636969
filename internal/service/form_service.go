package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"formchat-be/internal/dto"
	"formchat-be/internal/entity"
	"formchat-be/internal/pkg/logger"
	"formchat-be/internal/pkg/serverutils"
	"formchat-be/internal/repository/specification"
	"formchat-be/internal/repository/unitofwork"
	"formchat-be/pkg/forms"

	"github.com/google/uuid"
)

type IFormService interface {
	CreateTemplate(ctx context.Context, userId uuid.UUID, req *dto.CreateFormTemplateRequest) (*dto.CreateFormTemplateResponse, error)
	ListTemplates(ctx context.Context, userId uuid.UUID) ([]*dto.FormTemplateResponse, error)
	ShowTemplate(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.FormTemplateResponse, error)
	ArchiveTemplate(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
	ListResponses(ctx context.Context, userId uuid.UUID, req *dto.ListFormResponsesRequest) ([]*dto.FormResponseResponse, error)
	UpdateResponseStatus(ctx context.Context, userId uuid.UUID, req *dto.UpdateResponseStatusRequest) (*dto.FormResponseResponse, error)
	MarkPendingReview(ctx context.Context, responseId uuid.UUID) error
}

// TemplateCache is implemented by forms.CachedProvider
type TemplateCache interface {
	forms.TemplateProvider
	Invalidate()
}

type formService struct {
	uowFactory unitofwork.RepositoryFactory
	templates  TemplateCache
	responses  forms.ResponseStore
	notifier   Notifier
	logger     logger.ILogger
}

func NewFormService(
	uowFactory unitofwork.RepositoryFactory,
	templates TemplateCache,
	responses forms.ResponseStore,
	notifier Notifier,
	logger logger.ILogger,
) IFormService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &formService{
		uowFactory: uowFactory,
		templates:  templates,
		responses:  responses,
		notifier:   notifier,
		logger:     logger,
	}
}

func (s *formService) CreateTemplate(ctx context.Context, userId uuid.UUID, req *dto.CreateFormTemplateRequest) (*dto.CreateFormTemplateResponse, error) {
	fields, err := buildFields(req.Fields)
	if err != nil {
		return nil, serverutils.NewBadRequestError(err.Error())
	}

	template := entity.FormTemplate{
		Id:          uuid.New(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Keywords:    req.Keywords,
		Fields:      fields,
		Status:      forms.TemplateActive,
		CreatedAt:   time.Now(),
	}
	if !req.Shared {
		template.CreatedBy = &userId
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.FormTemplateRepository().Create(ctx, &template); err != nil {
		return nil, err
	}
	s.templates.Invalidate()

	s.logger.Info("FORM", "Template created", map[string]interface{}{
		"template_id": template.Id.String(),
		"user_id":     userId.String(),
		"fields":      len(fields),
	})

	return &dto.CreateFormTemplateResponse{Id: template.Id}, nil
}

// buildFields checks what struct tags cannot: unique ids, select options and patterns
func buildFields(reqs []dto.FormFieldRequest) ([]forms.Field, error) {
	seen := make(map[string]bool, len(reqs))
	fields := make([]forms.Field, 0, len(reqs))
	for _, f := range reqs {
		if seen[f.FieldId] {
			return nil, fmt.Errorf("duplicate field_id %q", f.FieldId)
		}
		seen[f.FieldId] = true

		fieldType := forms.FieldType(f.Type)
		if !fieldType.Valid() {
			return nil, fmt.Errorf("field %q has unknown type %q", f.FieldId, f.Type)
		}
		if fieldType == forms.FieldSelect && len(f.Options) == 0 {
			return nil, fmt.Errorf("select field %q needs options", f.FieldId)
		}
		if f.MaxLength > 0 && f.MinLength > f.MaxLength {
			return nil, fmt.Errorf("field %q has min_length above max_length", f.FieldId)
		}
		if f.Pattern != "" {
			if _, err := regexp.Compile(f.Pattern); err != nil {
				return nil, fmt.Errorf("field %q has an invalid pattern", f.FieldId)
			}
		}

		fields = append(fields, forms.Field{
			ID:          f.FieldId,
			Label:       f.Label,
			Type:        fieldType,
			Required:    f.Required,
			Options:     f.Options,
			Description: f.Description,
			MinLength:   f.MinLength,
			MaxLength:   f.MaxLength,
			Pattern:     f.Pattern,
		})
	}
	return fields, nil
}

func (s *formService) ListTemplates(ctx context.Context, userId uuid.UUID) ([]*dto.FormTemplateResponse, error) {
	templates, err := s.templates.ListTemplates(ctx, forms.Filter{UserID: userId.String()})
	if err != nil {
		return nil, err
	}

	result := make([]*dto.FormTemplateResponse, 0, len(templates))
	for i := range templates {
		result = append(result, toTemplateResponse(&templates[i]))
	}
	return result, nil
}

func (s *formService) ShowTemplate(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.FormTemplateResponse, error) {
	template, err := s.templates.GetTemplate(ctx, id.String())
	if errors.Is(err, forms.ErrTemplateNotFound) {
		return nil, serverutils.NewNotFoundError("Form not found")
	}
	if err != nil {
		return nil, err
	}
	if template.CreatedBy != "" && template.CreatedBy != userId.String() {
		return nil, serverutils.NewNotFoundError("Form not found")
	}
	return toTemplateResponse(template), nil
}

func (s *formService) ArchiveTemplate(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	template, err := uow.FormTemplateRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if template == nil || template.CreatedBy == nil || *template.CreatedBy != userId {
		return serverutils.NewNotFoundError("Form not found")
	}
	if template.Status == forms.TemplateArchived {
		return nil
	}

	template.Status = forms.TemplateArchived
	if err := uow.FormTemplateRepository().Update(ctx, template); err != nil {
		return err
	}
	s.templates.Invalidate()
	return nil
}

func (s *formService) ListResponses(ctx context.Context, userId uuid.UUID, req *dto.ListFormResponsesRequest) ([]*dto.FormResponseResponse, error) {
	filter := forms.ResponseFilter{
		RespondentID: userId.String(),
		Status:       forms.ResponseStatus(req.Status),
		Limit:        req.Limit,
	}
	if req.FormId != "" {
		filter.FormIDs = []string{req.FormId}
	}

	responses, err := s.responses.ListResponses(ctx, filter)
	if err != nil {
		return nil, err
	}

	titles := map[string]string{}
	result := make([]*dto.FormResponseResponse, 0, len(responses))
	for _, r := range responses {
		title, ok := titles[r.FormID]
		if !ok {
			if t, err := s.templates.GetTemplate(ctx, r.FormID); err == nil {
				title = t.Title
			}
			titles[r.FormID] = title
		}
		updatedAt := r.UpdatedAt
		result = append(result, &dto.FormResponseResponse{
			Id:        r.ID,
			FormId:    r.FormID,
			FormTitle: title,
			SessionId: r.SessionID,
			Responses: r.Responses,
			Status:    string(r.Status),
			CreatedAt: r.CreatedAt,
			UpdatedAt: &updatedAt,
		})
	}
	return result, nil
}

// UpdateResponseStatus lets the creator of a form review the responses to it
func (s *formService) UpdateResponseStatus(ctx context.Context, userId uuid.UUID, req *dto.UpdateResponseStatusRequest) (*dto.FormResponseResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	response, err := uow.FormResponseRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, serverutils.NewNotFoundError("Response not found")
	}

	template, err := uow.FormTemplateRepository().FindOne(ctx, specification.ByID{ID: response.FormTemplateId})
	if err != nil {
		return nil, err
	}
	if template == nil || template.CreatedBy == nil || *template.CreatedBy != userId {
		return nil, serverutils.NewForbiddenError("Only the form owner can review responses")
	}

	next := forms.ResponseStatus(req.Status)
	if !response.Status.CanMoveTo(next) {
		return nil, serverutils.NewBadRequestError(fmt.Sprintf("Cannot move a %s response to %s", response.Status, next))
	}

	now := time.Now()
	response.Status = next
	response.ReviewNote = req.Note
	response.UpdatedAt = &now
	if err := uow.FormResponseRepository().Update(ctx, response); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	result := &dto.FormResponseResponse{
		Id:         response.Id.String(),
		FormId:     response.FormTemplateId.String(),
		FormTitle:  template.Title,
		SessionId:  response.SessionId,
		Responses:  response.Responses,
		Status:     string(response.Status),
		ReviewNote: response.ReviewNote,
		CreatedAt:  response.CreatedAt,
		UpdatedAt:  response.UpdatedAt,
	}
	s.notifier.Notify(response.RespondentId, NotifyResponseStatus, result)

	return result, nil
}

// MarkPendingReview queues a freshly submitted response for its form owner.
// Responses already past complete are left alone so redelivery is harmless.
func (s *formService) MarkPendingReview(ctx context.Context, responseId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	response, err := uow.FormResponseRepository().FindOne(ctx, specification.ByID{ID: responseId})
	if err != nil {
		return err
	}
	if response == nil {
		return fmt.Errorf("response %s not found", responseId)
	}
	if response.Status != forms.StatusComplete {
		return nil
	}

	now := time.Now()
	response.Status = forms.StatusPendingReview
	response.UpdatedAt = &now
	return uow.FormResponseRepository().Update(ctx, response)
}

func toTemplateResponse(t *forms.FormTemplate) *dto.FormTemplateResponse {
	return &dto.FormTemplateResponse{
		Id:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Keywords:    t.Keywords,
		Fields:      t.Fields,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
	}
}
