package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"medgate/internal/session/models"
	"medgate/pkg/domain"
)

func newSeeded(t *testing.T, opts ...Option) *Directory {
	t.Helper()
	d := New(append([]Option{WithCost(bcrypt.MinCost)}, opts...)...)
	require.NoError(t, d.Seed(DemoUsers(), "password123"))
	return d
}

func TestVerify(t *testing.T) {
	d := newSeeded(t)
	ctx := context.Background()

	t.Run("valid credentials return the identity", func(t *testing.T) {
		identity, err := d.Verify(ctx, "Doctor@Hospital.org", "password123")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleDoctor, identity.Role)
		assert.Equal(t, "Dr. Meredith Grey", identity.Profile.Name)
		assert.False(t, identity.ID.IsNil())
	})

	t.Run("wrong password and unknown email both fail as invalid credentials", func(t *testing.T) {
		_, err := d.Verify(ctx, "doctor@hospital.org", "wrong")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)

		_, err = d.Verify(ctx, "x@y.com", "wrong")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("missing profile name is derived from email", func(t *testing.T) {
		identity, err := d.Verify(ctx, "billing.office@hospital.org", "password123")
		require.NoError(t, err)
		assert.Equal(t, "Billing Office", identity.Profile.Name)
	})
}

func TestVerify_LatencyHonorsContext(t *testing.T) {
	d := newSeeded(t, WithLatency(time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := d.Verify(ctx, "doctor@hospital.org", "password123")
	assert.ErrorIs(t, err, models.ErrNetwork)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRegister(t *testing.T) {
	d := newSeeded(t)
	assert.Equal(t, len(DemoUsers()), d.Len())

	_, err := d.Register(models.Identity{Role: domain.RoleDoctor, Email: "DOCTOR@hospital.org"}, "x")
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = d.Register(models.Identity{Role: "janitor", Email: "j@hospital.org"}, "x")
	assert.Error(t, err)

	_, err = d.Register(models.Identity{Role: domain.RolePatient}, "x")
	assert.Error(t, err)
}
