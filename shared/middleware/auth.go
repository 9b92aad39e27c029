package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/itchan-dev/eventboard/shared/domain"
	jwt_internal "github.com/itchan-dev/eventboard/shared/jwt"
	"github.com/itchan-dev/eventboard/shared/utils"
)

// AccessTokenCookie is set by login for browser clients.
const AccessTokenCookie = "accessToken"

// Key to store the user id in the request context
type key int

const UserIdKey key = 0

// Auth is the gate in front of mutating endpoints. It is stateless: a token
// stays valid until it expires.
type Auth struct {
	jwtService jwt_internal.JwtService
}

func NewAuth(jwtService jwt_internal.JwtService) *Auth {
	return &Auth{jwtService: jwtService}
}

// NeedAuth rejects requests without a valid token with 401.
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				utils.WriteMessage(w, http.StatusUnauthorized, "No token")
				return
			}

			uid, err := a.userId(tokenString)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserIdKey, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth populates the user id if the token is valid but never rejects.
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenString := extractToken(r); tokenString != "" {
				if uid, err := a.userId(tokenString); err == nil {
					ctx := context.WithValue(r.Context(), UserIdKey, uid)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *Auth) userId(tokenString string) (domain.UserId, error) {
	token, err := a.jwtService.DecodeToken(tokenString)
	if err != nil {
		return "", err
	}
	return jwt_internal.UserId(token)
}

// extractToken prefers the Authorization header (API clients) and falls back
// to the cookie set at login (browser clients).
func extractToken(r *http.Request) string {
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return strings.TrimSpace(token)
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// GetUserIdFromContext returns the subject of the verified token, or "".
func GetUserIdFromContext(r *http.Request) domain.UserId {
	uid, _ := r.Context().Value(UserIdKey).(domain.UserId)
	return uid
}
