package implementation

import (
	"context"
	"errors"

	"formchat-be/internal/entity"
	"formchat-be/internal/mapper"
	"formchat-be/internal/model"
	"formchat-be/internal/repository/contract"
	"formchat-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FormResponseRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FormMapper
}

func NewFormResponseRepository(db *gorm.DB) contract.FormResponseRepository {
	return &FormResponseRepositoryImpl{
		db:     db,
		mapper: mapper.NewFormMapper(),
	}
}

func (r *FormResponseRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *FormResponseRepositoryImpl) Create(ctx context.Context, response *entity.FormResponse) error {
	m, err := r.mapper.ResponseToModel(response)
	if err != nil {
		return err
	}
	// Saving the same submission twice keeps the first row
	return r.db.WithContext(ctx).Omit("FormTemplate").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(m).Error
}

func (r *FormResponseRepositoryImpl) Update(ctx context.Context, response *entity.FormResponse) error {
	m, err := r.mapper.ResponseToModel(response)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Omit("FormTemplate").Save(m).Error
}

func (r *FormResponseRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FormResponse, error) {
	var m model.FormResponse
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ResponseToEntity(&m)
}

func (r *FormResponseRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FormResponse, error) {
	var models []*model.FormResponse
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.FormResponse, 0, len(models))
	for _, m := range models {
		e, err := r.mapper.ResponseToEntity(m)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func (r *FormResponseRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.FormResponse{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
