// internal/controllers/helpers.go
package controllers

import (
	"net/http"
	"strings"
)

// clientIP extracts the caller's IP for audit logging. The first hop
// of X-Forwarded-For wins when a proxy set it.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}
