// Package directory is the in-memory credential verifier behind the session
// manager. It stands in for a real identity provider: users are seeded at
// startup, passwords are bcrypt hashes and each lookup waits a configurable
// latency so the loading state is observable.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"medgate/internal/session/models"
	"medgate/pkg/domain"
	"medgate/pkg/email"
)

// ErrDuplicateEmail is returned by Register for an email already on file.
var ErrDuplicateEmail = errors.New("email already registered")

type user struct {
	identity     models.Identity
	passwordHash []byte
}

// Directory verifies credentials against registered users.
type Directory struct {
	mu      sync.RWMutex
	users   map[string]*user
	latency time.Duration
	cost    int
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Directory)

// WithLatency delays every Verify call, honoring context cancellation.
func WithLatency(d time.Duration) Option {
	return func(dir *Directory) {
		dir.latency = d
	}
}

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(dir *Directory) {
		dir.cost = cost
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(dir *Directory) {
		dir.logger = logger
	}
}

func New(opts ...Option) *Directory {
	d := &Directory{
		users: make(map[string]*user),
		cost:  bcrypt.DefaultCost,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds a user. A missing profile name is derived from the email.
func (d *Directory) Register(identity models.Identity, password string) (*models.Identity, error) {
	identity.Email = email.Normalize(identity.Email)
	if identity.Email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}
	if !identity.Role.IsValid() {
		return nil, fmt.Errorf("invalid role %q", identity.Role)
	}
	if identity.ID.IsNil() {
		identity.ID = domain.NewIdentityID()
	}
	if identity.Profile.Name == "" {
		identity.Profile.Name = email.DeriveName(identity.Email)
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = d.now()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.users[identity.Email]; exists {
		return nil, ErrDuplicateEmail
	}
	d.users[identity.Email] = &user{identity: identity, passwordHash: hash}
	out := identity
	return &out, nil
}

// Verify implements the session credential verifier. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (d *Directory) Verify(ctx context.Context, address, password string) (*models.Identity, error) {
	if d.latency > 0 {
		timer := time.NewTimer(d.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, models.NewAuthError(models.NetworkError, ctx.Err())
		case <-timer.C:
		}
	}

	d.mu.RLock()
	u, ok := d.users[email.Normalize(address)]
	d.mu.RUnlock()
	if !ok {
		return nil, models.NewAuthError(models.InvalidCredentials, nil)
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		if d.logger != nil {
			d.logger.DebugContext(ctx, "password mismatch", "identity_id", u.identity.ID.String())
		}
		return nil, models.NewAuthError(models.InvalidCredentials, nil)
	}
	out := u.identity
	return &out, nil
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}
