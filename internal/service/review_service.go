package service

import (
	"context"
	"fmt"

	"formchat-be/internal/pkg/logger"
	"formchat-be/pkg/events"
	pktNats "formchat-be/pkg/nats"

	"github.com/google/uuid"
)

const reviewDurable = "form-review-queue"

// EventSubscriber is implemented by pkg/nats.Subscriber
type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType, durableName string, handler pktNats.EventHandler) error
}

type IReviewService interface {
	Start(ctx context.Context) error
	HandleSubmitted(ctx context.Context, event events.Event) error
}

// reviewService moves submitted responses into the owner's review queue
type reviewService struct {
	subscriber  EventSubscriber
	formService IFormService
	notifier    Notifier
	logger      logger.ILogger
}

func NewReviewService(subscriber EventSubscriber, formService IFormService, notifier Notifier, logger logger.ILogger) IReviewService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &reviewService{
		subscriber:  subscriber,
		formService: formService,
		notifier:    notifier,
		logger:      logger,
	}
}

func (s *reviewService) Start(ctx context.Context) error {
	return s.subscriber.Subscribe(ctx, events.TypeFormSubmitted, reviewDurable, s.HandleSubmitted)
}

func (s *reviewService) HandleSubmitted(ctx context.Context, event events.Event) error {
	raw, _ := event.Payload()["response_id"].(string)
	responseId, err := uuid.Parse(raw)
	if err != nil {
		// Not retryable; acknowledge and move on
		s.logger.Error("REVIEW", "Submitted event without a valid response id", map[string]interface{}{
			"response_id": raw,
		})
		return nil
	}

	if err := s.formService.MarkPendingReview(ctx, responseId); err != nil {
		return fmt.Errorf("queue response %s for review: %w", responseId, err)
	}

	s.logger.Info("REVIEW", "Response queued for review", map[string]interface{}{
		"response_id": responseId.String(),
		"form_id":     event.Payload()["form_id"],
	})

	raw, _ = event.Payload()["user_id"].(string)
	if respondent, err := uuid.Parse(raw); err == nil {
		s.notifier.Notify(respondent, NotifyResponseQueued, map[string]interface{}{
			"response_id": responseId.String(),
			"form_id":     event.Payload()["form_id"],
		})
	}
	return nil
}
