package contract

import (
	"context"

	"formchat-be/internal/entity"
	"formchat-be/internal/repository/specification"
)

type ConversationSessionRepository interface {
	// Upsert stores the archived snapshot, replacing an earlier archive of the same session
	Upsert(ctx context.Context, session *entity.ConversationSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConversationSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationSession, error)
}

type ConversationLogRepository interface {
	Create(ctx context.Context, log *entity.ConversationLog) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationLog, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
