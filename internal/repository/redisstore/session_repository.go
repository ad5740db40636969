package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"formchat-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const (
	liveKeyPrefix     = "formchat:session:"
	archivedKeyPrefix = "formchat:session:archived:"
)

// SessionRepository stores sessions as JSON documents in Redis.
// Writes use WATCH/MULTI so a writer holding a stale version loses.
type SessionRepository struct {
	rdb        *redis.Client
	ttl        time.Duration
	archiveTTL time.Duration
}

var _ store.Store = (*SessionRepository)(nil)

func NewSessionRepository(rdb *redis.Client, ttl, archiveTTL time.Duration) *SessionRepository {
	return &SessionRepository{rdb: rdb, ttl: ttl, archiveTTL: archiveTTL}
}

func liveKey(id string) string     { return liveKeyPrefix + id }
func archivedKey(id string) string { return archivedKeyPrefix + id }

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*store.Session, error) {
	raw, err := r.rdb.Get(ctx, liveKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var s store.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	if s.FilledFields == nil {
		s.FilledFields = map[string]string{}
	}
	return &s, nil
}

func (r *SessionRepository) Put(ctx context.Context, session *store.Session, expectedVersion int64) error {
	key := liveKey(session.ID)
	next := expectedVersion + 1

	txf := func(tx *redis.Tx) error {
		current, err := currentVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != expectedVersion {
			return fmt.Errorf("%w: session %s at version %d, expected %d",
				store.ErrVersionConflict, session.ID, current, expectedVersion)
		}

		doc := session.Clone()
		doc.Version = next
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			return nil
		})
		return err
	}

	err := r.rdb.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		// Key changed between WATCH and EXEC
		return fmt.Errorf("%w: session %s modified concurrently", store.ErrVersionConflict, session.ID)
	}
	if err != nil {
		return err
	}

	session.Version = next
	return nil
}

func (r *SessionRepository) Archive(ctx context.Context, sessionID string) error {
	key := liveKey(sessionID)

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return store.ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("redis get session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, archivedKey(sessionID), raw, r.archiveTTL)
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}

	err := r.rdb.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: session %s modified while archiving", store.ErrVersionConflict, sessionID)
	}
	return err
}

func currentVersion(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get session: %w", err)
	}
	var probe struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return 0, fmt.Errorf("decode session version: %w", err)
	}
	return probe.Version, nil
}
