package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/verdan/authgate/internal/domain/auth"
	"github.com/verdan/authgate/internal/ports"
	"github.com/verdan/authgate/internal/testutil"
)

func TestSessionStore_SaveAndGet(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session := domainauth.Session{
		ID:          "test-session-1",
		UserID:      "user-123",
		Email:       "user@example.com",
		AccessToken: "token-abc",
		ExpiresAt:   time.Now().Add(30 * time.Minute),
	}

	require.NoError(t, store.Save(ctx, session))

	retrieved, err := store.Get(ctx, "test-session-1")
	require.NoError(t, err)
	assert.Equal(t, session.UserID, retrieved.UserID)
	assert.Equal(t, session.AccessToken, retrieved.AccessToken)
}

func TestSessionStore_GetNonExistent(t *testing.T) {
	store := NewSessionStore()

	_, err := store.Get(context.Background(), "non-existent")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_SaveEmptyID(t *testing.T) {
	store := NewSessionStore()

	err := store.Save(context.Background(), domainauth.Session{})
	assert.Error(t, err)
}

func TestSessionStore_SaveSupersedesExisting(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour)

	require.NoError(t, store.Save(ctx, domainauth.Session{ID: "s-1", UserID: "old", ExpiresAt: expiry}))
	require.NoError(t, store.Save(ctx, domainauth.Session{ID: "s-1", UserID: "new", ExpiresAt: expiry}))

	sess, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "new", sess.UserID)
	assert.Equal(t, 1, store.Len())
}

func TestSessionStore_ExpiredSessionIsGone(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	sess := domainauth.Session{ID: "s-1", UserID: "u-1", ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, store.Save(ctx, sess))

	// Move the store's clock past the expiry.
	store.now = testutil.FixedTimeFunc(time.Now().Add(2 * time.Minute))

	_, err := store.Get(ctx, "s-1")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestSessionStore_DeleteIsIdempotent(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domainauth.Session{ID: "s-1", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, store.Delete(ctx, "s-1"))
	require.NoError(t, store.Delete(ctx, "s-1"))
	require.NoError(t, store.Delete(ctx, ""))

	_, err := store.Get(ctx, "s-1")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_ConcurrentAccess(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n))
			_ = store.Save(ctx, domainauth.Session{ID: id, UserID: "u", ExpiresAt: expiry})
			_, _ = store.Get(ctx, id)
			_ = store.Delete(ctx, id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, store.Len())
}
