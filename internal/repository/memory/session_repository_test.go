package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"formchat-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// go-cache runs a janitor goroutine per cache for the life of the process
	goleak.VerifyTestMain(m, goleak.IgnoreAnyFunction("github.com/patrickmn/go-cache.(*janitor).Run"))
}

func TestSessionRepository_PutAndGet(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	ctx := context.Background()

	_, err := repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	sess := store.New("s1", "u1", time.Now())
	require.NoError(t, repo.Put(ctx, sess, 0))
	assert.Equal(t, int64(1), sess.Version)

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, int64(1), got.Version)

	// Mutating the returned copy must not leak into the store
	got.FilledFields["name"] = "John"
	again, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, again.FilledFields)
}

func TestSessionRepository_StaleWriteConflicts(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, store.New("s1", "u1", time.Now()), 0))

	first, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	second, err := repo.Get(ctx, "s1")
	require.NoError(t, err)

	first.FilledFields["name"] = "John"
	require.NoError(t, repo.Put(ctx, first, first.Version))

	second.FilledFields["name"] = "Jane"
	err = repo.Put(ctx, second, second.Version)
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	stored, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "John", stored.FilledFields["name"])
	assert.Equal(t, int64(2), stored.Version)
}

func TestSessionRepository_ConcurrentWritersSerialize(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	ctx := context.Background()
	require.NoError(t, repo.Put(ctx, store.New("s1", "u1", time.Now()), 0))

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := store.New("s1", "u1", time.Now())
			err := repo.Put(ctx, s, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, store.ErrVersionConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, conflicts)
}

func TestSessionRepository_Archive(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Archive(ctx, "missing"), store.ErrSessionNotFound)

	require.NoError(t, repo.Put(ctx, store.New("s1", "u1", time.Now()), 0))
	require.NoError(t, repo.Archive(ctx, "s1"))

	_, err := repo.Get(ctx, "s1")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	archived, ok := repo.GetArchived("s1")
	require.True(t, ok)
	assert.Equal(t, "u1", archived.UserID)
}
