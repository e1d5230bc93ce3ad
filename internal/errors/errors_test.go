package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, ErrCodeInternal, "store write failed")

	assert.Equal(t, "store write failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "plain", NotFound("plain").Error())
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "x"))
}

func TestWrapf(t *testing.T) {
	err := Wrapf(errors.New("x"), ErrCodeValidation, "bad %s", "path")
	assert.Equal(t, "bad path", err.Message)
	assert.True(t, IsValidation(err))
}

func TestIsHelpers(t *testing.T) {
	wrapped := fmt.Errorf("load: %w", NotFound("missing"))

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.True(t, IsValidation(ValidationField("path", "too long")))
	assert.True(t, IsInternal(Internal("x")))
	assert.Equal(t, ErrCodeNotFound, GetCode(wrapped))
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
}
