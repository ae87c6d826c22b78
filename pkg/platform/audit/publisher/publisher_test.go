package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medgate/pkg/domain"
	audit "medgate/pkg/platform/audit"
	"medgate/pkg/platform/audit/store/memory"
	"medgate/pkg/platform/sentinel"
	"medgate/pkg/requestcontext"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	identityID := domain.NewIdentityID()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ctx := requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), fixed), "req-42")

	err := pub.Emit(ctx, audit.Event{
		IdentityID: identityID,
		Action:     string(audit.EventLoginSucceeded),
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), identityID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventLoginSucceeded), events[0].Action)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
	assert.Equal(t, fixed, events[0].Timestamp)
	assert.Equal(t, "req-42", events[0].RequestID)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))

	identityID := domain.NewIdentityID()
	err := pub.Emit(context.Background(), audit.Event{
		IdentityID: identityID,
		Action:     string(audit.EventAlertTriggered),
	})
	require.NoError(t, err)

	pub.Close()

	events, err := pub.List(context.Background(), identityID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategoryClinical, events[0].Category)
}

func TestPublisher_AsyncConcurrentEmits(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1000))

	identityID := domain.NewIdentityID()
	const goroutines = 20
	const perGoroutine = 10

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range perGoroutine {
				assert.NoError(t, pub.Emit(context.Background(), audit.Event{
					IdentityID: identityID,
					Action:     string(audit.EventLogout),
				}))
			}
		}()
	}
	wg.Wait()
	pub.Close()
	pub.Close()

	events, err := pub.List(context.Background(), identityID)
	require.NoError(t, err)
	assert.Len(t, events, goroutines*perGoroutine)
}

type blockingStore struct {
	release chan struct{}
	*memory.InMemoryStore
}

func (b *blockingStore) Append(ctx context.Context, event audit.Event) error {
	<-b.release
	return b.InMemoryStore.Append(ctx, event)
}

func TestPublisher_AsyncBufferFull(t *testing.T) {
	store := &blockingStore{release: make(chan struct{}), InMemoryStore: memory.NewInMemoryStore()}
	pub := NewPublisher(store, WithAsyncBuffer(1))

	ctx := context.Background()
	var lastErr error
	for range 5 {
		if err := pub.Emit(ctx, audit.Event{Action: string(audit.EventLogout)}); err != nil {
			lastErr = err
		}
	}
	require.Error(t, lastErr)
	assert.ErrorIs(t, lastErr, sentinel.ErrUnavailable)

	close(store.release)
	pub.Close()
}

func TestPublisher_EmitAfterClose(t *testing.T) {
	t.Run("async mode rejects instead of sending on the closed buffer", func(t *testing.T) {
		pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(4))
		pub.Close()

		var err error
		assert.NotPanics(t, func() {
			err = pub.Emit(context.Background(), audit.Event{IdentityID: domain.NewIdentityID(), Action: string(audit.EventLoginSucceeded)})
		})
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})

	t.Run("sync mode rejects after close", func(t *testing.T) {
		store := memory.NewInMemoryStore()
		pub := NewPublisher(store)
		pub.Close()

		identityID := domain.NewIdentityID()
		err := pub.Emit(context.Background(), audit.Event{IdentityID: identityID, Action: string(audit.EventLoginSucceeded)})
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		events, err := store.ListByIdentity(context.Background(), identityID)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("emits racing close never panic", func(t *testing.T) {
		pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(16))
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 50 {
					_ = pub.Emit(context.Background(), audit.Event{IdentityID: domain.NewIdentityID(), Action: string(audit.EventLoginSucceeded)})
				}
			}()
		}
		pub.Close()
		wg.Wait()
	})
}

func TestInMemoryStore_ListRecent(t *testing.T) {
	store := memory.NewInMemoryStore()
	ctx := context.Background()
	for _, action := range []audit.AuditEvent{audit.EventLoginSucceeded, audit.EventAlertTriggered, audit.EventLogout} {
		require.NoError(t, store.Append(ctx, audit.Event{Action: string(action)}))
	}

	recent, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, string(audit.EventLogout), recent[0].Action)
	assert.Equal(t, string(audit.EventAlertTriggered), recent[1].Action)
}
