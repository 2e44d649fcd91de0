package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToDomainErrorKeepsTaggedErrors(t *testing.T) {
	wrapped := fmt.Errorf("create post: %w", NewSlugConflict("hello", nil))

	de := ToDomainError(wrapped)
	assert.Equal(t, CodeSlugConflict, de.Code)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
	assert.Equal(t, "hello", de.Details["slug"])
	assert.True(t, HasCode(wrapped, CodeSlugConflict))
}

func TestToDomainErrorDefaultsToInternal(t *testing.T) {
	cause := errors.New("connection refused")

	de := ToDomainError(cause)
	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.ErrorIs(t, de, cause)
	assert.Nil(t, ToDomainError(nil))
}

func TestConstructorsStatus(t *testing.T) {
	cases := map[int]error{
		http.StatusBadRequest:      NewValidationError("bad", nil),
		http.StatusUnauthorized:    NewUnauthorized("no"),
		http.StatusForbidden:       NewForbidden("no"),
		http.StatusNotFound:        NewNotFound("post", nil),
		http.StatusTooManyRequests: NewTooManyRequests("slow down"),
	}
	for status, err := range cases {
		assert.Equal(t, status, ToDomainError(err).HTTPStatus)
	}
	assert.Equal(t, "post not found", NewNotFound("post", nil).Error())
}
