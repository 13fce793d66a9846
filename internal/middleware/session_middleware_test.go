package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mzdss/sms-pin-auth/internal/config"
	"github.com/mzdss/sms-pin-auth/internal/models"
	"github.com/mzdss/sms-pin-auth/internal/sessions"
)

func middlewareConfig() *config.Config {
	return &config.Config{
		SessionMaxAge:           24 * time.Hour,
		SessionRenewalThreshold: 2 * time.Hour,
	}
}

func echoSession(t *testing.T, captured **models.Session) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = SessionFromContext(r)
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionResolverAnonymous(t *testing.T) {
	store := sessions.NewMemoryStore()
	defer store.Shutdown()

	var got *models.Session
	handler := SessionResolver(store, middlewareConfig())(echoSession(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, got)
}

func TestSessionResolverAttachesSession(t *testing.T) {
	store := sessions.NewMemoryStore()
	defer store.Shutdown()

	sess := &models.Session{
		SessionID: uuid.NewString(),
		UserID:    uuid.New(),
		Phone:     "+79991234567",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, store.Create(context.Background(), sess))

	var got *models.Session
	handler := SessionResolver(store, middlewareConfig())(echoSession(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.SessionID})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NotNil(t, got)
	require.Equal(t, sess.UserID, got.UserID)
	// Plenty of lifetime left, so no renewal cookie is issued.
	require.Empty(t, rec.Result().Cookies())
}

func TestSessionResolverClearsStaleCookie(t *testing.T) {
	store := sessions.NewMemoryStore()
	defer store.Shutdown()

	var got *models.Session
	handler := SessionResolver(store, middlewareConfig())(echoSession(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "gone"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Nil(t, got)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, SessionCookieName, cookies[0].Name)
	require.Equal(t, -1, cookies[0].MaxAge)
}

func TestSessionResolverRenewsNearExpiry(t *testing.T) {
	store := sessions.NewMemoryStore()
	defer store.Shutdown()
	cfg := middlewareConfig()

	sess := &models.Session{
		SessionID: uuid.NewString(),
		UserID:    uuid.New(),
		Phone:     "+79991234567",
		ExpiresAt: time.Now().Add(30 * time.Minute), // inside the renewal threshold
	}
	require.NoError(t, store.Create(context.Background(), sess))

	var got *models.Session
	handler := SessionResolver(store, cfg)(echoSession(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.SessionID})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.NotNil(t, got)
	require.True(t, got.ExpiresAt.After(time.Now().Add(23*time.Hour)), "session should be extended")

	// The refreshed cookie accompanies the renewal.
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, sess.SessionID, cookies[0].Value)

	// And the store carries the new expiry.
	stored, err := store.Get(context.Background(), sess.SessionID)
	require.NoError(t, err)
	require.True(t, stored.ExpiresAt.After(time.Now().Add(23*time.Hour)))
}

func TestSessionResolverExpiredSession(t *testing.T) {
	store := sessions.NewMemoryStore()
	defer store.Shutdown()

	sess := &models.Session{
		SessionID: uuid.NewString(),
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, store.Create(context.Background(), sess))

	var got *models.Session
	handler := SessionResolver(store, middlewareConfig())(echoSession(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.SessionID})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Nil(t, got, "expired session behaves like no session")
}
