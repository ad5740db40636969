package unitofwork

import (
	"context"

	"formchat-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	FormTemplateRepository() contract.FormTemplateRepository
	FormResponseRepository() contract.FormResponseRepository
	ConversationSessionRepository() contract.ConversationSessionRepository
	ConversationLogRepository() contract.ConversationLogRepository
}
