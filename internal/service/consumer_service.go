package service

import (
	"context"
	"encoding/json"

	"formchat-be/internal/dto"
	"formchat-be/internal/entity"
	"formchat-be/internal/pkg/logger"
	"formchat-be/internal/repository/unitofwork"
	"formchat-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService persists conversation turns published by the conversation
// service and mirrors them to the audit log file
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	audit      logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	logger logger.ILogger,
	audit logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		logger:     logger,
		audit:      audit,
	}
}

// Consume subscribes and processes messages in the background until ctx is done
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishTurnMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal turn message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	userId, err := uuid.Parse(payload.UserId)
	if err != nil {
		cs.logger.Error("CONSUMER", "Turn message has invalid user id", map[string]interface{}{
			"session_id": payload.SessionId,
			"user_id":    payload.UserId,
		})
		msg.Ack()
		return
	}

	cs.audit.Info("AUDIT", "Conversation turn", map[string]interface{}{
		"session_id":   payload.SessionId,
		"user_id":      payload.UserId,
		"stage_from":   payload.StageFrom,
		"stage_to":     payload.StageTo,
		"intent":       payload.Intent,
		"user_message": payload.UserMessage,
		"response":     payload.Response,
		"occurred_at":  payload.OccurredAt,
	})

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	err = uow.ConversationLogRepository().Create(ctx, &entity.ConversationLog{
		Id:          uuid.New(),
		SessionId:   payload.SessionId,
		UserId:      userId,
		StageFrom:   store.Stage(payload.StageFrom),
		StageTo:     store.Stage(payload.StageTo),
		Intent:      payload.Intent,
		UserMessage: payload.UserMessage,
		Response:    payload.Response,
		CreatedAt:   payload.OccurredAt,
	})
	if err != nil {
		cs.logger.Error("CONSUMER", "Failed to persist conversation log", map[string]interface{}{
			"session_id": payload.SessionId,
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}

	msg.Ack()
}
