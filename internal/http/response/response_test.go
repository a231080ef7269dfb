package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/speech-translator/internal/lib/errs"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("session.SignUp: %w", errs.Validation("email and password are required")), http.StatusUnprocessableEntity},
		{"auth", fmt.Errorf("op: %w", errs.ErrAuth), http.StatusUnauthorized},
		{"not found", fmt.Errorf("op: %w", errs.ErrNotFound), http.StatusNotFound},
		{"already exists", fmt.Errorf("op: %w", errs.ErrAlreadyExists), http.StatusConflict},
		{"in progress", fmt.Errorf("op: %w", errs.ErrOperationInProgress), http.StatusConflict},
		{"payment", fmt.Errorf("op: %w", errs.ErrUpstreamPaymentFailure), http.StatusPaymentRequired},
		{"unavailable", fmt.Errorf("op: %w", errs.ErrUpstreamUnavailable), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "validation message is exposed",
			err:      fmt.Errorf("session.SignUp: %w", errs.Validation("email and password are required")),
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  "email and password are required",
		},
		{
			name:     "duplicate email",
			err:      fmt.Errorf("repository.CreateUserWithAccount: %w", errs.ErrAlreadyExists),
			wantCode: http.StatusConflict,
			wantMsg:  "account already exists",
		},
		{
			name:     "internal details are hidden",
			err:      errors.New("pq: connection reset by peer"),
			wantCode: http.StatusInternalServerError,
			wantMsg:  "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()

			WriteError(rec, req, tt.err)

			require.Equal(t, tt.wantCode, rec.Code)
			var got ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, StatusError, got.Status)
			assert.Equal(t, tt.wantMsg, got.Error)
		})
	}
}

func TestValidationError(t *testing.T) {
	type request struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=6"`
	}

	err := validator.New().Struct(request{Email: "not-an-email", Password: "123"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))

	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Email must be a valid email")
	assert.Contains(t, resp.Error, "field Password must be at least 6 characters")
}
