package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("create rent: %w", ErrDuplicatePeriod)

	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, errors.Is(err, ErrDuplicatePeriod))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(Validation("amount is required"), ErrDuplicatePeriod))
}

func TestDependencyUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Dependency("load tenant", cause)

	assert.True(t, errors.Is(err, ErrDependencyFailure))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "load tenant: connection refused", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("rent %s not found", "x"), http.StatusNotFound},
		{"unauthorized", Unauthorized("not yours"), http.StatusUnauthorized},
		{"validation", Validation("amount is required"), http.StatusBadRequest},
		{"period kind", ErrInvalidPeriodKind, http.StatusBadRequest},
		{"dependency", Dependency("db", errors.New("down")), http.StatusServiceUnavailable},
		{"wrapped duplicate", fmt.Errorf("x: %w", ErrDuplicatePeriod), http.StatusBadRequest},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
