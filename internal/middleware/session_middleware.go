// internal/middleware/session_middleware.go
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/mzdss/sms-pin-auth/internal/config"
	"github.com/mzdss/sms-pin-auth/internal/models"
	"github.com/mzdss/sms-pin-auth/internal/sessions"
	"github.com/mzdss/sms-pin-auth/internal/utils"
)

type contextKey string

// ContextKeySession holds the resolved *models.Session, or nothing for
// anonymous requests.
const ContextKeySession contextKey = "session"

// SessionCookieName is the cookie carrying the opaque session ID.
const SessionCookieName = "session_id"

// SessionFromContext returns the session attached by SessionResolver,
// or nil for anonymous requests.
func SessionFromContext(r *http.Request) *models.Session {
	sess, _ := r.Context().Value(ContextKeySession).(*models.Session)
	return sess
}

// SessionResolver loads the session referenced by the request cookie
// and attaches it to the context. It never rejects a request; handlers
// that require authentication check for a nil session themselves.
//
// Sessions close to expiry are renewed in place, so active users stay
// logged in while idle ones age out.
func SessionResolver(store sessions.SessionStore, cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := store.Get(r.Context(), cookie.Value)
			if err != nil {
				utils.Logger.Error("Session lookup failed: ", err)
				next.ServeHTTP(w, r)
				return
			}
			if sess == nil {
				// Absent or expired; drop the stale cookie.
				ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			if time.Until(sess.ExpiresAt) < cfg.SessionRenewalThreshold {
				renewed := *sess
				renewed.ExpiresAt = time.Now().Add(cfg.SessionMaxAge)
				if err := store.Update(r.Context(), &renewed); err != nil {
					utils.Logger.Warn("Session renewal failed: ", err)
				} else {
					sess = &renewed
					SetSessionCookie(w, sess.SessionID, cfg.SessionMaxAge)
				}
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetSessionCookie writes the session cookie with the hardening flags
// every auth response uses.
func SetSessionCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie expires the session cookie immediately.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
