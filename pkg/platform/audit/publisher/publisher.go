package publisher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medgate/pkg/domain"
	audit "medgate/pkg/platform/audit"
	"medgate/pkg/platform/audit/worker"
	"medgate/pkg/platform/sentinel"
	"medgate/pkg/requestcontext"
)

// Publisher captures structured audit events. It is append-only; in async
// mode events are buffered and persisted by a background worker.
type Publisher struct {
	store   audit.Store
	inbox   chan audit.Event
	done    chan struct{}
	cancel  context.CancelFunc
	onError func(audit.Event, error)

	// mu guards closed against the inbox close; Emit holds it shared.
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer enables async mode with a buffer of the given size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan audit.Event, size)
		}
	}
}

// WithErrorHandler receives store failures from the async worker.
func WithErrorHandler(fn func(audit.Event, error)) Option {
	return func(p *Publisher) {
		p.onError = fn
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		ctx, cancel := context.WithCancel(context.Background())
		p.cancel = cancel
		p.done = make(chan struct{})
		w := worker.NewWorker(store, p.inbox)
		go func() {
			defer close(p.done)
			_ = w.Run(ctx, p.onError)
		}()
	}
	return p
}

// Emit stamps the event and stores or enqueues it. In async mode a full
// buffer drops the event and returns an error wrapping sentinel.ErrUnavailable,
// as does any Emit after Close.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("audit publisher closed: %w", sentinel.ErrUnavailable)
	}
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		return fmt.Errorf("audit buffer full: %w", sentinel.ErrUnavailable)
	}
}

func (p *Publisher) List(ctx context.Context, identityID domain.IdentityID) ([]audit.Event, error) {
	return p.store.ListByIdentity(ctx, identityID)
}

// Close flushes buffered events and stops the worker. Safe to call twice.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		if p.inbox != nil {
			close(p.inbox)
		}
		p.mu.Unlock()
		if p.inbox == nil {
			return
		}
		select {
		case <-p.done:
		case <-time.After(5 * time.Second):
			p.cancel()
			<-p.done
		}
		p.cancel()
	})
}
