package events

import "time"

const (
	TypeFormSubmitted   = "FORM_SUBMITTED"
	TypeSessionArchived = "SESSION_ARCHIVED"
	TypeTurnCompleted   = "TURN_COMPLETED"
)

func FormSubmitted(responseID, formID, userID, sessionID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeFormSubmitted,
		Data: map[string]interface{}{
			"response_id": responseID,
			"form_id":     formID,
			"user_id":     userID,
			"session_id":  sessionID,
		},
		OccurredAt: at,
	}
}

func SessionArchived(sessionID, userID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeSessionArchived,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"user_id":    userID,
		},
		OccurredAt: at,
	}
}

// TurnCompleted carries one handled message for the conversation log
func TurnCompleted(sessionID, userID, stageFrom, stageTo, intent, userMessage, response string, at time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeTurnCompleted,
		Data: map[string]interface{}{
			"session_id":   sessionID,
			"user_id":      userID,
			"stage_from":   stageFrom,
			"stage_to":     stageTo,
			"intent":       intent,
			"user_message": userMessage,
			"response":     response,
		},
		OccurredAt: at,
	}
}
