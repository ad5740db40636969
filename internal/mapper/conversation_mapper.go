package mapper

import (
	"encoding/json"
	"fmt"

	"formchat-be/internal/entity"
	"formchat-be/internal/model"
	"formchat-be/pkg/store"

	"gorm.io/datatypes"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

// Session Mappers

func (m *ConversationMapper) SessionToEntity(s *model.ConversationSession) (*entity.ConversationSession, error) {
	if s == nil {
		return nil, nil
	}

	var snapshot store.Session
	if err := json.Unmarshal(s.Snapshot, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot of session %s: %w", s.Id, err)
	}

	return &entity.ConversationSession{
		Id:            s.Id,
		UserId:        s.UserId,
		Stage:         store.Stage(s.Stage),
		CurrentFormId: s.CurrentFormId,
		Snapshot:      &snapshot,
		ArchivedAt:    s.ArchivedAt,
		CreatedAt:     s.CreatedAt,
	}, nil
}

func (m *ConversationMapper) SessionToModel(s *entity.ConversationSession) (*model.ConversationSession, error) {
	if s == nil {
		return nil, nil
	}

	snapshot, err := json.Marshal(s.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot of session %s: %w", s.Id, err)
	}

	return &model.ConversationSession{
		Id:            s.Id,
		UserId:        s.UserId,
		Stage:         string(s.Stage),
		CurrentFormId: s.CurrentFormId,
		Snapshot:      datatypes.JSON(snapshot),
		ArchivedAt:    s.ArchivedAt,
		CreatedAt:     s.CreatedAt,
	}, nil
}

// Log Mappers

func (m *ConversationMapper) LogToEntity(l *model.ConversationLog) *entity.ConversationLog {
	if l == nil {
		return nil
	}
	return &entity.ConversationLog{
		Id:          l.Id,
		SessionId:   l.SessionId,
		UserId:      l.UserId,
		StageFrom:   store.Stage(l.StageFrom),
		StageTo:     store.Stage(l.StageTo),
		Intent:      l.Intent,
		UserMessage: l.UserMessage,
		Response:    l.Response,
		CreatedAt:   l.CreatedAt,
	}
}

func (m *ConversationMapper) LogToModel(l *entity.ConversationLog) *model.ConversationLog {
	if l == nil {
		return nil
	}
	return &model.ConversationLog{
		Id:          l.Id,
		SessionId:   l.SessionId,
		UserId:      l.UserId,
		StageFrom:   string(l.StageFrom),
		StageTo:     string(l.StageTo),
		Intent:      l.Intent,
		UserMessage: l.UserMessage,
		Response:    l.Response,
		CreatedAt:   l.CreatedAt,
	}
}
