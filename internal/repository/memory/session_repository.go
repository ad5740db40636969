package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"formchat-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository is an in-process session store backed by go-cache.
// Entries expire after the inactivity TTL; archived sessions are kept in a
// separate cache so they can still be inspected.
type SessionRepository struct {
	mu       sync.Mutex
	cache    *cache.Cache
	archived *cache.Cache
	ttl      time.Duration
}

var _ store.Store = (*SessionRepository)(nil)

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	// Purge expired items every 10 minutes
	return &SessionRepository{
		cache:    cache.New(ttl, 10*time.Minute),
		archived: cache.New(24*time.Hour, 10*time.Minute),
		ttl:      ttl,
	}
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*store.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session).Clone(), nil
	}
	return nil, store.ErrSessionNotFound
}

func (r *SessionRepository) Put(ctx context.Context, session *store.Session, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var current int64
	if x, found := r.cache.Get(session.ID); found {
		current = x.(*store.Session).Version
	}
	if current != expectedVersion {
		return fmt.Errorf("%w: session %s at version %d, expected %d",
			store.ErrVersionConflict, session.ID, current, expectedVersion)
	}

	session.Version = expectedVersion + 1
	r.cache.Set(session.ID, session.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Archive(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(sessionID)
	if !found {
		return store.ErrSessionNotFound
	}
	r.archived.Set(sessionID, x, cache.DefaultExpiration)
	r.cache.Delete(sessionID)
	return nil
}

// GetArchived returns an archived snapshot, if still retained
func (r *SessionRepository) GetArchived(sessionID string) (*store.Session, bool) {
	if x, found := r.archived.Get(sessionID); found {
		return x.(*store.Session).Clone(), true
	}
	return nil, false
}
