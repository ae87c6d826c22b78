package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "medgate/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseIdentityID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseIdentityID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseIdentityID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseIdentityID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, IdentityID(validUUID), id)
	})
}

func TestParseID_Boundaries(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAlertID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestAllIDTypes_ConsistentBehavior ensures all ID types share one parsing rule.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errIdentity := ParseIdentityID(validUUID)
		_, errAlert := ParseAlertID(validUUID)
		_, errNotification := ParseNotificationID(validUUID)
		_, errSession := ParseSessionID(validUUID)

		require.NoError(t, errIdentity)
		require.NoError(t, errAlert)
		require.NoError(t, errNotification)
		require.NoError(t, errSession)
	})

	for _, input := range []string{"", "invalid", uuid.Nil.String()} {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errIdentity := ParseIdentityID(input)
			_, errAlert := ParseAlertID(input)
			_, errNotification := ParseNotificationID(input)
			_, errSession := ParseSessionID(input)

			require.Error(t, errIdentity)
			require.Error(t, errAlert)
			require.Error(t, errNotification)
			require.Error(t, errSession)
		})
	}
}

func TestIDs_MarshalAsPlainUUID(t *testing.T) {
	u := uuid.New()
	text, err := AlertID(u).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, u.String(), string(text))
	assert.True(t, IdentityID{}.IsNil())
	assert.False(t, NewIdentityID().IsNil())
}

func TestParseRole(t *testing.T) {
	for _, r := range AllRoles() {
		got, err := ParseRole(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	_, err := ParseRole("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = ParseRole("surgeon")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	assert.False(t, Role("Doctor").IsValid(), "roles are case sensitive")
}
