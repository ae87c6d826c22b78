package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medgate/pkg/domain"
	"medgate/pkg/platform/sentinel"
)

func TestStore(t *testing.T) {
	store := NewStore(func() *Manager { return NewManager(nil) })

	id, m := store.Create()
	require.NotNil(t, m)
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(id)
	require.NoError(t, err)
	assert.Same(t, m, got)

	_, err = store.Get(domain.NewSessionID())
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))

	store.Delete(id)
	store.Delete(id)
	_, err = store.Get(id)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestStore_Expiry(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	now := base
	store := NewStore(func() *Manager { return NewManager(nil) },
		WithSessionTTL(time.Hour),
		WithStoreClock(func() time.Time { return now }),
	)

	stale, _ := store.Create()
	now = base.Add(30 * time.Minute)
	fresh, _ := store.Create()

	t.Run("expired sessions are not returned", func(t *testing.T) {
		now = base.Add(time.Hour + time.Minute)
		_, err := store.Get(stale)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, store.Refresh(stale), sentinel.ErrNotFound)

		_, err = store.Get(fresh)
		require.NoError(t, err)
	})

	t.Run("sweep drops only expired sessions", func(t *testing.T) {
		assert.Equal(t, 1, store.DeleteExpired(now))
		assert.Equal(t, 1, store.Len())
		assert.Equal(t, 0, store.DeleteExpired(now))
	})

	t.Run("refresh extends the window", func(t *testing.T) {
		require.NoError(t, store.Refresh(fresh))
		now = base.Add(2 * time.Hour)
		_, err := store.Get(fresh)
		require.NoError(t, err)

		assert.Equal(t, 1, store.DeleteExpired(base.Add(3*time.Hour)))
		assert.Equal(t, 0, store.Len())
	})
}

func TestStore_WithoutTTLNeverExpires(t *testing.T) {
	store := NewStore(func() *Manager { return NewManager(nil) })
	id, _ := store.Create()

	assert.Equal(t, 0, store.DeleteExpired(time.Now().Add(24*365*time.Hour)))
	_, err := store.Get(id)
	require.NoError(t, err)
}
