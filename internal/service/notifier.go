package service

import "github.com/google/uuid"

const (
	NotifyResponseStatus = "response_status"
	NotifyResponseQueued = "response_queued"
)

// Notifier pushes live updates to a user's open sockets; implemented by websocket.Hub
type Notifier interface {
	Notify(userID uuid.UUID, kind string, data interface{})
}

type nopNotifier struct{}

func (nopNotifier) Notify(uuid.UUID, string, interface{}) {}
