package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outer code", func(t *testing.T) {
		err := New(CodeConflict, "already active")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches code through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("trigger: %w", New(CodeBadRequest, "identity required"))
		assert.True(t, HasCode(err, CodeBadRequest))
	})

	t.Run("matches inner code of nested domain errors", func(t *testing.T) {
		inner := New(CodeTimeout, "verifier timed out")
		err := Wrap(inner, CodeInternal, "login failed")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeTimeout))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))

	cause := errors.New("disk gone")
	err := Wrap(cause, CodeInternal, "failed to save")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to save: disk gone", err.Error())
	assert.Equal(t, "failed to save", MessageOf(err))
}

func TestToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ToHTTPStatus(CodeBadRequest))
	assert.Equal(t, http.StatusUnauthorized, ToHTTPStatus(CodeUnauthorized))
	assert.Equal(t, http.StatusConflict, ToHTTPStatus(CodeConflict))
	assert.Equal(t, http.StatusServiceUnavailable, ToHTTPStatus(CodeUnavailable))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus(Code("unknown")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}
