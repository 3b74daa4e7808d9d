package middleware

import (
	"net/http"
	"strings"

	"github.com/Dune005/syfte/internal/ctxkeys"
	"github.com/Dune005/syfte/internal/render"
	"github.com/Dune005/syfte/internal/service"
)

// AuthMiddleware resolves the session from the auth cookie or a Bearer
// token and adds the user to the context if valid.
func AuthMiddleware(authService *service.AuthService, userService *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, fromCookie := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := authService.UserIDFromToken(token)
			if err != nil {
				if fromCookie {
					authService.ClearJWTCookie(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			user, err := userService.ByID(r.Context(), userID)
			if err != nil {
				// user deleted since the token was issued
				if fromCookie {
					authService.ClearJWTCookie(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			// Security: Remove password hash from context
			user.PasswordHash = nil

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionToken prefers the Authorization header over the cookie.
func sessionToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token), false
		}
	}

	cookie, err := r.Cookie(service.AuthCookieName)
	if err != nil {
		return "", false
	}
	return cookie.Value, true
}

// RequireAuth answers 401 unless a user is in the context.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) == nil {
			render.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	}
}

