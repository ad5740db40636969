package entity

import (
	"time"

	"formchat-be/pkg/store"

	"github.com/google/uuid"
)

// ConversationSession is the archived snapshot of a finished conversation
type ConversationSession struct {
	Id            string
	UserId        uuid.UUID
	Stage         store.Stage
	CurrentFormId string
	Snapshot      *store.Session
	ArchivedAt    time.Time
	CreatedAt     time.Time
}

// ConversationLog is one handled message
type ConversationLog struct {
	Id          uuid.UUID
	SessionId   string
	UserId      uuid.UUID
	StageFrom   store.Stage
	StageTo     store.Stage
	Intent      string
	UserMessage string
	Response    string
	CreatedAt   time.Time
}
