package implementation

import (
	"context"
	"errors"

	"formchat-be/internal/entity"
	"formchat-be/internal/mapper"
	"formchat-be/internal/model"
	"formchat-be/internal/repository/contract"
	"formchat-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FormTemplateRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FormMapper
}

func NewFormTemplateRepository(db *gorm.DB) contract.FormTemplateRepository {
	return &FormTemplateRepositoryImpl{
		db:     db,
		mapper: mapper.NewFormMapper(),
	}
}

func (r *FormTemplateRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *FormTemplateRepositoryImpl) Create(ctx context.Context, template *entity.FormTemplate) error {
	m, err := r.mapper.TemplateToModel(template)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	created, err := r.mapper.TemplateToEntity(m)
	if err != nil {
		return err
	}
	*template = *created
	return nil
}

func (r *FormTemplateRepositoryImpl) Update(ctx context.Context, template *entity.FormTemplate) error {
	m, err := r.mapper.TemplateToModel(template)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	updated, err := r.mapper.TemplateToEntity(m)
	if err != nil {
		return err
	}
	*template = *updated
	return nil
}

func (r *FormTemplateRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.FormTemplate{}, id).Error
}

func (r *FormTemplateRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FormTemplate, error) {
	var m model.FormTemplate
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.TemplateToEntity(&m)
}

func (r *FormTemplateRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FormTemplate, error) {
	var models []*model.FormTemplate
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.FormTemplate, 0, len(models))
	for _, m := range models {
		e, err := r.mapper.TemplateToEntity(m)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func (r *FormTemplateRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.FormTemplate{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
