package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:   http.StatusBadRequest,
		KindUnauthorized: http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
		KindNotFound:     http.StatusNotFound,
		KindConflict:     http.StatusConflict,
		KindInternal:     http.StatusInternalServerError,
		Kind(99):         http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.Status(), kind.String())
	}
}

func TestAsFindsWrappedError(t *testing.T) {
	err := fmt.Errorf("login: %w", Unauthorized("invalid email or password"))

	got := As(err)
	assert.Equal(t, KindUnauthorized, got.Kind)
	assert.Equal(t, "invalid email or password", got.Message)
	assert.True(t, Is(err, KindUnauthorized))
}

func TestForeignErrorIsInternal(t *testing.T) {
	err := errors.New("connection reset")

	got := As(err)
	assert.Equal(t, KindInternal, got.Kind)
	assert.ErrorIs(t, got, err)
	assert.Equal(t, "internal", got.Detail())
	assert.False(t, Is(nil, KindInternal))
}

func TestDetail(t *testing.T) {
	assert.Equal(t, "unauthorized", Unauthorized("no token").Detail())
	assert.Equal(t, "token is expired", Wrap(KindUnauthorized, "invalid token", errors.New("token is expired")).Detail())
}
