// Package middleware holds the HTTP middleware for the API surface
package middleware

import (
	"net"
	"net/http"

	"github.com/nwestbury/digitduel/internal/api/apierr"
	"github.com/nwestbury/digitduel/internal/services/auth"
)

// AdminKeyHeader carries the shared admin secret
const AdminKeyHeader = "X-Admin-Key"

// AdminAuth guards admin routes with the shared key. The caller identity
// for rate limiting is the remote address without the port.
func AdminAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := callerIdentity(r)
			if err := authService.Verify(caller, r.Header.Get(AdminKeyHeader)); err != nil {
				apierr.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerIdentity(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
