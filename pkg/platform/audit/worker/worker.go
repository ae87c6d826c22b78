package worker

import (
	"context"

	audit "medgate/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them until the
// inbox is closed or ctx is done.
type Worker struct {
	store audit.Store
	inbox <-chan audit.Event
}

func NewWorker(store audit.Store, inbox <-chan audit.Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

// Run drains the inbox. Store errors are reported through onError and do not
// stop the loop.
func (w *Worker) Run(ctx context.Context, onError func(audit.Event, error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil && onError != nil {
				onError(event, err)
			}
		}
	}
}
