// internal/middleware/security_headers.go
package middleware

import (
	"net/http"

	"github.com/mzdss/sms-pin-auth/internal/utils"
)

// SecurityHeaders stamps the standard hardening headers onto every
// response before the handler runs.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.AddSecurityHeaders(w)
		next.ServeHTTP(w, r)
	})
}
