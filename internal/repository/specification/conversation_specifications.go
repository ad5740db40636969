package specification

import "gorm.io/gorm"

// BySessionKey filters by a conversation session id, which is client supplied and not a uuid
type BySessionKey struct {
	SessionID string
}

func (s BySessionKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

type BySessionPK struct {
	SessionID string
}

func (s BySessionPK) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.SessionID)
}
