package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ConversationSession struct {
	Id            string         `gorm:"type:varchar(64);primaryKey"`
	UserId        uuid.UUID      `gorm:"type:uuid;not null;index"`
	Stage         string         `gorm:"type:varchar(20);not null"`
	CurrentFormId string         `gorm:"type:varchar(64)"`
	Snapshot      datatypes.JSON `gorm:"type:jsonb;not null"`
	ArchivedAt    time.Time      `gorm:"not null;index"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
}

func (ConversationSession) TableName() string {
	return "conversation_sessions"
}

type ConversationLog struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId   string    `gorm:"type:varchar(64);not null;index"`
	UserId      uuid.UUID `gorm:"type:uuid;not null;index"`
	StageFrom   string    `gorm:"type:varchar(20)"`
	StageTo     string    `gorm:"type:varchar(20)"`
	Intent      string    `gorm:"type:varchar(40)"`
	UserMessage string    `gorm:"type:text"`
	Response    string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
}

func (ConversationLog) TableName() string {
	return "conversation_logs"
}
