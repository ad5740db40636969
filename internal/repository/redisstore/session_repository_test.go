package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"formchat-be/pkg/store"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *SessionRepository {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping integration test: REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)

	rdb := redis.NewClient(opt)
	t.Cleanup(func() { _ = rdb.Close() })

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Skipping integration test: redis unreachable: %v", err)
	}
	return NewSessionRepository(rdb, time.Minute, time.Minute)
}

func TestSessionRepository_OptimisticVersioning(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	id := uuid.NewString()

	_, err := repo.Get(ctx, id)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	require.NoError(t, repo.Put(ctx, store.New(id, "u1", time.Now()), 0))

	first, err := repo.Get(ctx, id)
	require.NoError(t, err)
	second, err := repo.Get(ctx, id)
	require.NoError(t, err)

	first.FilledFields["name"] = "John"
	require.NoError(t, repo.Put(ctx, first, first.Version))

	second.FilledFields["name"] = "Jane"
	assert.ErrorIs(t, repo.Put(ctx, second, second.Version), store.ErrVersionConflict)

	stored, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "John", stored.FilledFields["name"])
	assert.Equal(t, int64(2), stored.Version)

	require.NoError(t, repo.Archive(ctx, id))
	_, err = repo.Get(ctx, id)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}
