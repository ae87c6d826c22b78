package models

import (
	"errors"
	"fmt"
)

// AuthErrorKind enumerates the ways a login can fail.
type AuthErrorKind string

const (
	InvalidCredentials AuthErrorKind = "invalid_credentials"
	NetworkError       AuthErrorKind = "network_error"
)

// AuthError is the only error Login surfaces for a failed verification.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

// Kind-only values for errors.Is comparisons.
var (
	ErrInvalidCredentials = &AuthError{Kind: InvalidCredentials}
	ErrNetwork            = &AuthError{Kind: NetworkError}
)

func NewAuthError(kind AuthErrorKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches any AuthError of the same kind.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

// AsAuthError extracts an AuthError from err's chain.
func AsAuthError(err error) (*AuthError, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
