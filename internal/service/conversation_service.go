package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"formchat-be/internal/dto"
	"formchat-be/internal/entity"
	"formchat-be/internal/pkg/logger"
	"formchat-be/internal/pkg/serverutils"
	"formchat-be/internal/repository/specification"
	"formchat-be/internal/repository/unitofwork"
	"formchat-be/pkg/agent/orchestrator"
	"formchat-be/pkg/agent/reasoning"
	"formchat-be/pkg/events"
	"formchat-be/pkg/store"

	"github.com/google/uuid"
)

type IConversationService interface {
	SendMessage(ctx context.Context, userId string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	GetSession(ctx context.Context, userId string, sessionId string) (*dto.SessionResponse, error)
	EndSession(ctx context.Context, userId string, sessionId string) error
	History(ctx context.Context, userId string, sessionId string) ([]*dto.ConversationLogResponse, error)
}

// TurnHandler runs one conversation turn; implemented by orchestrator.Orchestrator
type TurnHandler interface {
	Handle(ctx context.Context, in orchestrator.Inbound) (*orchestrator.Outbound, error)
}

type conversationService struct {
	handler          TurnHandler
	sessions         store.Store
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   events.Publisher
	conflictRetries  int
	logger           logger.ILogger
}

func NewConversationService(
	handler TurnHandler,
	sessions store.Store,
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher events.Publisher,
	conflictRetries int,
	logger logger.ILogger,
) IConversationService {
	if conflictRetries < 0 {
		conflictRetries = 0
	}
	return &conversationService{
		handler:          handler,
		sessions:         sessions,
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		conflictRetries:  conflictRetries,
		logger:           logger,
	}
}

func (s *conversationService) SendMessage(ctx context.Context, userId string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	in := orchestrator.Inbound{
		SessionID: req.SessionId,
		UserID:    userId,
		Message:   req.Message,
		Audience:  reasoning.ParseAudience(req.Explain),
	}

	var out *orchestrator.Outbound
	var err error
	for attempt := 0; ; attempt++ {
		out, err = s.handler.Handle(ctx, in)
		if !errors.Is(err, store.ErrVersionConflict) || attempt >= s.conflictRetries {
			break
		}
		// Another request for the same session won; re-read and run the turn again
		s.logger.Warn("CONVERSATION", "Session version conflict, retrying turn", map[string]interface{}{
			"session_id": req.SessionId,
			"attempt":    attempt + 1,
		})
	}

	switch {
	case errors.Is(err, store.ErrVersionConflict):
		return nil, serverutils.NewConflictError("The conversation was updated by another request, please resend your message", err)
	case errors.Is(err, orchestrator.ErrSessionOwner):
		return nil, serverutils.NewNotFoundError("Session not found")
	case errors.Is(err, orchestrator.ErrInvalidInbound):
		return nil, serverutils.NewBadRequestError("session_id is required")
	case err != nil:
		return nil, err
	}

	if !out.Retryable && strings.TrimSpace(req.Message) != "" {
		s.publishTurn(ctx, userId, req.Message, out)
	}

	return toSendMessageResponse(out), nil
}

// publishTurn hands the turn to the conversation log consumer. The turn is
// already committed, so failures are only logged.
func (s *conversationService) publishTurn(ctx context.Context, userId, message string, out *orchestrator.Outbound) {
	payload, err := json.Marshal(dto.PublishTurnMessage{
		SessionId:   out.SessionID,
		UserId:      userId,
		StageFrom:   string(out.StageFrom),
		StageTo:     string(out.StageTo),
		Intent:      string(out.Intent),
		UserMessage: message,
		Response:    out.ResponseText,
		OccurredAt:  time.Now(),
	})
	if err == nil {
		err = s.publisherService.Publish(ctx, payload)
	}
	if err != nil {
		s.logger.Warn("CONVERSATION", "Failed to publish turn log", map[string]interface{}{
			"session_id": out.SessionID,
			"error":      err.Error(),
		})
	}
}

func (s *conversationService) GetSession(ctx context.Context, userId string, sessionId string) (*dto.SessionResponse, error) {
	session, err := s.ownedSession(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session), nil
}

// EndSession stores the final snapshot in the database, then removes the live session
func (s *conversationService) EndSession(ctx context.Context, userId string, sessionId string) error {
	session, err := s.ownedSession(ctx, userId, sessionId)
	if err != nil {
		return err
	}

	userUUID, err := uuid.Parse(userId)
	if err != nil {
		return serverutils.NewBadRequestError("Invalid user")
	}

	now := time.Now()
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ConversationSessionRepository().Upsert(ctx, &entity.ConversationSession{
		Id:            session.ID,
		UserId:        userUUID,
		Stage:         session.Stage,
		CurrentFormId: session.CurrentFormID,
		Snapshot:      session,
		ArchivedAt:    now,
		CreatedAt:     session.CreatedAt,
	}); err != nil {
		return err
	}

	if err := s.sessions.Archive(ctx, sessionId); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return serverutils.NewNotFoundError("Session not found")
		}
		return err
	}

	if err := s.eventPublisher.Publish(ctx, events.SessionArchived(sessionId, userId, now)); err != nil {
		s.logger.Warn("CONVERSATION", "Failed to publish session archived event", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}
	return nil
}

func (s *conversationService) History(ctx context.Context, userId string, sessionId string) ([]*dto.ConversationLogResponse, error) {
	userUUID, err := uuid.Parse(userId)
	if err != nil {
		return nil, serverutils.NewBadRequestError("Invalid user")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	logs, err := uow.ConversationLogRepository().FindAll(ctx,
		specification.BySessionKey{SessionID: sessionId},
		specification.UserOwnedBy{UserID: userUUID},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.ConversationLogResponse, 0, len(logs))
	for _, l := range logs {
		result = append(result, &dto.ConversationLogResponse{
			StageFrom:   string(l.StageFrom),
			StageTo:     string(l.StageTo),
			Intent:      l.Intent,
			UserMessage: l.UserMessage,
			Response:    l.Response,
			CreatedAt:   l.CreatedAt,
		})
	}
	return result, nil
}

func (s *conversationService) ownedSession(ctx context.Context, userId, sessionId string) (*store.Session, error) {
	session, err := s.sessions.Get(ctx, sessionId)
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil, serverutils.NewNotFoundError("Session not found")
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != userId {
		return nil, serverutils.NewNotFoundError("Session not found")
	}
	return session, nil
}

func toSendMessageResponse(out *orchestrator.Outbound) *dto.SendMessageResponse {
	res := &dto.SendMessageResponse{
		SessionId:    out.SessionID,
		ResponseText: out.ResponseText,
		Intent:       string(out.Intent),
		StageFrom:    out.StageFrom,
		StageTo:      out.StageTo,
		Retryable:    out.Retryable,
		Session:      toSessionResponse(out.Session),
		Decisions:    out.Decisions,
	}
	if out.Submitted != nil {
		res.SubmittedId = out.Submitted.ID
	}
	return res
}

func toSessionResponse(s *store.Session) *dto.SessionResponse {
	if s == nil {
		return nil
	}
	filled := s.FilledFields
	if filled == nil {
		filled = map[string]string{}
	}
	unfilled := s.UnfilledRequiredFields
	if unfilled == nil {
		unfilled = []string{}
	}
	return &dto.SessionResponse{
		SessionId:              s.ID,
		Stage:                  s.Stage,
		CurrentFormId:          s.CurrentFormID,
		FilledFields:           filled,
		UnfilledRequiredFields: unfilled,
		CurrentField:           s.CurrentField,
		PendingFormId:          s.PendingFormID,
		Candidates:             s.Candidates,
		LastPrompt:             s.LastPrompt,
		LastActivity:           s.LastActivity,
		Version:                s.Version,
	}
}
