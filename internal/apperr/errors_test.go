package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Validation("title is required"), http.StatusBadRequest},
		{"conflict", Conflict("User already exists"), http.StatusBadRequest},
		{"unauthenticated", Unauthenticated("no token"), http.StatusUnauthorized},
		{"forbidden", Forbidden("Not authorized"), http.StatusForbidden},
		{"not found", NotFound("Project not found"), http.StatusNotFound},
		{"wrapped", fmt.Errorf("load project: %w", NotFound("Project not found")), http.StatusNotFound},
		{"bare sentinel", ErrForbidden, http.StatusForbidden},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Project not found", Message(fmt.Errorf("get: %w", NotFound("Project not found"))))
	assert.Equal(t, "forbidden", Message(ErrForbidden))
	assert.Equal(t, "Internal server error", Message(errors.New("dial tcp: refused")))
}

func TestErrorIsDistinguishable(t *testing.T) {
	err := Forbidden("Not authorized to access this project")
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrNotFound))
}
