package auth

import (
	"net/http"
)

// RequireSuperuser rejects callers that are not active superusers. It must
// run after Authenticate.
func RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		if !user.IsActive {
			writeError(w, http.StatusForbidden, "inactive user")
			return
		}

		if !user.IsSuperuser {
			writeError(w, http.StatusForbidden, "the user doesn't have enough privileges")
			return
		}

		next.ServeHTTP(w, r)
	})
}
