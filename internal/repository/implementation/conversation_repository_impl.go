package implementation

import (
	"context"
	"errors"

	"formchat-be/internal/entity"
	"formchat-be/internal/mapper"
	"formchat-be/internal/model"
	"formchat-be/internal/repository/contract"
	"formchat-be/internal/repository/scope"
	"formchat-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewConversationSessionRepository(db *gorm.DB) contract.ConversationSessionRepository {
	return &ConversationSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func (r *ConversationSessionRepositoryImpl) Upsert(ctx context.Context, session *entity.ConversationSession) error {
	m, err := r.mapper.SessionToModel(session)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"stage", "current_form_id", "snapshot", "archived_at"}),
	}).Create(m).Error
}

func (r *ConversationSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConversationSession, error) {
	var m model.ConversationSession
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m)
}

func (r *ConversationSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationSession, error) {
	var models []*model.ConversationSession
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Scopes(scope.OrderByArchivedDesc).Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ConversationSession, 0, len(models))
	for _, m := range models {
		e, err := r.mapper.SessionToEntity(m)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

type ConversationLogRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewConversationLogRepository(db *gorm.DB) contract.ConversationLogRepository {
	return &ConversationLogRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func (r *ConversationLogRepositoryImpl) Create(ctx context.Context, log *entity.ConversationLog) error {
	return r.db.WithContext(ctx).Create(r.mapper.LogToModel(log)).Error
}

func (r *ConversationLogRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationLog, error) {
	var models []*model.ConversationLog
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Scopes(scope.OrderByCreatedAsc).Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ConversationLog, len(models))
	for i, m := range models {
		entities[i] = r.mapper.LogToEntity(m)
	}
	return entities, nil
}

func (r *ConversationLogRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.ConversationLog{})
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
