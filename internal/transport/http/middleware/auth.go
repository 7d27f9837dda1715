package middleware

import (
	"context"
	"net/http"
	"strings"

	authtoken "ems/internal/auth"
	domauth "ems/internal/domain/auth"
)

// Auth parses the bearer token when present and stores the user context.
// Missing or invalid tokens pass through unauthenticated; the permission
// guards reject those requests.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := authtoken.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, domauth.UserContext{
				UserID:     claims.UserID,
				EmployeeID: claims.EmployeeID,
				RoleID:     claims.RoleID,
				RoleName:   claims.RoleName,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUser(ctx context.Context) (domauth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(domauth.UserContext)
	return user, ok
}

// WithUser is a test helper for handler tests that bypass the auth stack.
func WithUser(ctx context.Context, user domauth.UserContext) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}
