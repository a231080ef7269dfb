package middlewarectx_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/speech-translator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/speech-translator/internal/lib/errs"
	"github.com/magabrotheeeer/speech-translator/internal/models"
	"github.com/magabrotheeeer/speech-translator/internal/services/auth"
	"github.com/magabrotheeeer/speech-translator/internal/services/session"
)

// fakeIdentity сопоставляет токены пользователям.
type fakeIdentity struct {
	tokens map[string]string
	err    error
}

func (f *fakeIdentity) CreateAccount(context.Context, string, string, models.Account) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeIdentity) Verify(context.Context, string, string) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeIdentity) CurrentPrincipal(ctx context.Context) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	token, ok := auth.TokenFromContext(ctx)
	if !ok {
		return "", false, nil
	}
	id, ok := f.tokens[token]
	return id, ok, nil
}

func (f *fakeIdentity) SignOut(context.Context) error { return nil }

type fakeAccounts map[string]*models.Account

func (f fakeAccounts) Get(_ context.Context, id string) (*models.Account, error) {
	a, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("account.Get: %w", errs.ErrNotFound)
	}
	return a, nil
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newFactory(identity *fakeIdentity) *session.Factory {
	now := time.Now()
	accounts := fakeAccounts{
		"trial":   {ID: "trial", Email: "trial@example.com", TrialEndDate: now.Add(48 * time.Hour)},
		"expired": {ID: "expired", Email: "expired@example.com", TrialEndDate: now.Add(-48 * time.Hour)},
	}
	return session.NewFactory(identity, accounts, nil, 5, newNoopLogger())
}

func defaultIdentity() *fakeIdentity {
	return &fakeIdentity{tokens: map[string]string{
		"trial-token":   "trial",
		"expired-token": "expired",
		"orphan-token":  "missing",
	}}
}

func TestSessionMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		identity      *fakeIdentity
		authHeader    string
		wantCode      int
		wantState     session.State
		wantPrincipal string
	}{
		{
			name:      "no header gives anonymous session",
			identity:  defaultIdentity(),
			wantCode:  http.StatusOK,
			wantState: session.StateAnonymous,
		},
		{
			name:       "wrong scheme gives anonymous session",
			identity:   defaultIdentity(),
			authHeader: "Basic abc",
			wantCode:   http.StatusOK,
			wantState:  session.StateAnonymous,
		},
		{
			name:       "unknown token gives anonymous session",
			identity:   defaultIdentity(),
			authHeader: "Bearer nope",
			wantCode:   http.StatusOK,
			wantState:  session.StateAnonymous,
		},
		{
			name:          "valid token loads account",
			identity:      defaultIdentity(),
			authHeader:    "Bearer trial-token",
			wantCode:      http.StatusOK,
			wantState:     session.StateAuthenticated,
			wantPrincipal: "trial",
		},
		{
			name:       "missing account record stays anonymous",
			identity:   defaultIdentity(),
			authHeader: "Bearer orphan-token",
			wantCode:   http.StatusOK,
			wantState:  session.StateAnonymous,
		},
		{
			name:       "token store unavailable",
			identity:   &fakeIdentity{err: fmt.Errorf("auth.ValidateToken: %w", errs.ErrUpstreamUnavailable)},
			authHeader: "Bearer trial-token",
			wantCode:   http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *session.Session
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = session.FromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})
			h := middlewarectx.SessionMiddleware(newFactory(tt.identity), newNoopLogger())(next)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode != http.StatusOK {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantState, got.State())
			id, _ := got.PrincipalID()
			assert.Equal(t, tt.wantPrincipal, id)
		})
	}
}

func TestRequireSessionAndAccess(t *testing.T) {
	tests := []struct {
		name        string
		authHeader  string
		gate        func(*slog.Logger) func(http.Handler) http.Handler
		wantCode    int
		wantReached bool
	}{
		{"session required, anonymous", "", middlewarectx.RequireSession, http.StatusUnauthorized, false},
		{"session required, signed in", "Bearer expired-token", middlewarectx.RequireSession, http.StatusOK, true},
		{"access required, anonymous", "", middlewarectx.RequireAccess, http.StatusUnauthorized, false},
		{"access required, trial active", "Bearer trial-token", middlewarectx.RequireAccess, http.StatusOK, true},
		{"access required, expired", "Bearer expired-token", middlewarectx.RequireAccess, http.StatusForbidden, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				reached = true
				w.WriteHeader(http.StatusOK)
			})
			log := newNoopLogger()
			h := middlewarectx.SessionMiddleware(newFactory(defaultIdentity()), log)(tt.gate(log)(next))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantReached, reached)
		})
	}
}

func TestRateLimiter_PerPrincipal(t *testing.T) {
	log := newNoopLogger()
	limiter := middlewarectx.NewRateLimiter(0.001, 2)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := middlewarectx.SessionMiddleware(newFactory(defaultIdentity()), log)(limiter.Middleware(log)(next))

	do := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("trial-token"))
	assert.Equal(t, http.StatusOK, do("trial-token"))
	assert.Equal(t, http.StatusTooManyRequests, do("trial-token"))

	// Другой пользователь имеет собственный лимит.
	assert.Equal(t, http.StatusOK, do("expired-token"))
}
