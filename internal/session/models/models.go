package models

import (
	"strings"
	"time"

	"medgate/pkg/domain"
	"medgate/pkg/email"
)

// Profile is the presentational part of an identity.
type Profile struct {
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
	Address string `json:"address,omitempty"`
}

// Identity is the authenticated user record held by a session.
type Identity struct {
	ID          domain.IdentityID `json:"id"`
	Role        domain.Role       `json:"role"`
	Profile     Profile           `json:"profile"`
	Email       string            `json:"email"`
	CreatedAt   time.Time         `json:"created_at"`
	LastLoginAt time.Time         `json:"last_login_at"`
}

// DisplayName returns the profile name, derived from the email when unset.
func (i Identity) DisplayName() string {
	if name := strings.TrimSpace(i.Profile.Name); name != "" {
		return name
	}
	return email.DeriveName(i.Email)
}

// Credentials are what a user submits to log in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize trims and lowercases the email. The password is left untouched.
func (c Credentials) Normalize() Credentials {
	c.Email = email.Normalize(c.Email)
	return c
}

// Snapshot is an immutable view of a session at one instant.
type Snapshot struct {
	Identity *Identity `json:"identity"`
	Loading  bool      `json:"loading"`
}

// IsAuthenticated is derived, never stored: identity present means authenticated.
func (s Snapshot) IsAuthenticated() bool {
	return s.Identity != nil
}

// Role returns the identity's role, or "" for an anonymous session.
func (s Snapshot) Role() domain.Role {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Role
}
