package notification

import (
	"sync"

	"medgate/pkg/domain"
)

// Inboxes maps identities to their feeds, creating them on first use.
type Inboxes struct {
	mu    sync.Mutex
	feeds map[domain.IdentityID]*Registry
	opts  []Option
}

// NewInboxes applies opts to every registry it creates.
func NewInboxes(opts ...Option) *Inboxes {
	return &Inboxes{feeds: make(map[domain.IdentityID]*Registry), opts: opts}
}

func (i *Inboxes) For(identityID domain.IdentityID) *Registry {
	i.mu.Lock()
	defer i.mu.Unlock()
	r, ok := i.feeds[identityID]
	if !ok {
		r = NewRegistry(i.opts...)
		i.feeds[identityID] = r
	}
	return r
}
