package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("signup: %w", New(KindConflict, "User already exists"))

	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "User already exists", As(err).Message)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("token is expired")
	err := Wrap(KindTokenExpired, ErrTokenExpired.Message, cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Contains(t, err.Error(), "token is expired")
}

func TestForeignErrorsAreInternal(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, KindInternal, KindOf(err))
	e := As(err)
	assert.Equal(t, KindInternal, e.Kind)
	assert.Equal(t, "internal server error", e.Message)
	assert.ErrorIs(t, e, err)
}

func TestValidationFields(t *testing.T) {
	err := Validation("All fields are required", FieldError{Field: "email", Message: "email is required"})

	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, err.Fields, 1)
	assert.Equal(t, "validation", err.Kind.String())
}
