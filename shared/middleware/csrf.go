package middleware

import (
	"net/http"

	"github.com/itchan-dev/eventboard/shared/csrf"
	"github.com/itchan-dev/eventboard/shared/logger"
	"github.com/itchan-dev/eventboard/shared/utils"
)

// ValidateCSRFToken guards state-changing requests that authenticate with the
// access-token cookie. Requests carrying an Authorization header are not
// ambient-credentialed and pass through.
func ValidateCSRFToken() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if r.Header.Get("Authorization") != "" {
				next.ServeHTTP(w, r)
				return
			}
			if _, err := r.Cookie(AccessTokenCookie); err != nil {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(csrf.CookieName)
			if err != nil || !csrf.ValidateToken(cookie.Value, r.Header.Get(csrf.HeaderName)) {
				logger.Log.Warn("csrf token mismatch", "path", r.URL.Path)
				utils.WriteMessage(w, http.StatusForbidden, "CSRF token missing or invalid")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
