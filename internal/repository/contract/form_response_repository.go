package contract

import (
	"context"

	"formchat-be/internal/entity"
	"formchat-be/internal/repository/specification"
)

type FormResponseRepository interface {
	Create(ctx context.Context, response *entity.FormResponse) error
	Update(ctx context.Context, response *entity.FormResponse) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FormResponse, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FormResponse, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
