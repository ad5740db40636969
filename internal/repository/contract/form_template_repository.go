package contract

import (
	"context"

	"formchat-be/internal/entity"
	"formchat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type FormTemplateRepository interface {
	Create(ctx context.Context, template *entity.FormTemplate) error
	Update(ctx context.Context, template *entity.FormTemplate) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FormTemplate, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FormTemplate, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
