package cancel

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/speech-translator/internal/models"
	"github.com/magabrotheeeer/speech-translator/internal/services/session/sessiontest"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestCancelHandler_EndsAccessImmediately(t *testing.T) {
	subEnd := time.Now().AddDate(0, 1, 0)
	fx := sessiontest.New(5)
	token := fx.SignedIn(models.Account{
		ID: "acc-1", Email: "user@example.com", TrialEndDate: time.Now().Add(-time.Hour),
		IsSubscribed: true, SubscriptionEndDate: &subEnd,
	})

	req := fx.Request(http.MethodDelete, "/api/v1/subscription", nil, token)
	rec := httptest.NewRecorder()
	New(newNoopLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Data Result `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

	assert.Equal(t, []int{0}, fx.Lifecycle.Months)
	assert.True(t, got.Data.Account.IsSubscribed)
	assert.Equal(t, models.AccessExpired, got.Data.Status.Decision)
	assert.False(t, got.Data.Status.HasAccess)
	assert.Contains(t, got.Data.Message, "access has ended")
}

func TestCancelHandler_DuringTrialKeepsTrial(t *testing.T) {
	fx := sessiontest.New(5)
	token := fx.SignedIn(models.Account{ID: "acc-1", Email: "user@example.com", TrialEndDate: time.Now().Add(48 * time.Hour)})

	req := fx.Request(http.MethodDelete, "/api/v1/subscription", nil, token)
	rec := httptest.NewRecorder()
	New(newNoopLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Data Result `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, models.AccessTrialActive, got.Data.Status.Decision)
}
