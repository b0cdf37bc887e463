package middleware

import (
	"crypto/subtle"
	"net/http"

	"steamprofile-rest-api/pkg/apierror"
)

// AdminKey returns a middleware that requires the X-Login-Key header to
// match key. An empty key disables the guarded routes.
func AdminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				apierror.Forbidden("Admin access is disabled").Write(w)
				return
			}

			provided := r.Header.Get("X-Login-Key")
			if provided == "" {
				apierror.Unauthorized("Authentication required. Use X-Login-Key header.").Write(w)
				return
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				apierror.Unauthorized("Invalid login key").Write(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
