package auth

import (
	"context"
	"net/http"
	"strings"
)

type sessionKey struct{}

// Session is what RequireAuth places on the request context for handlers.
type Session struct {
	UserID      uint64
	DisplayName string
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// UserIDFromContext is the common case: just the authenticated user's id.
func UserIDFromContext(ctx context.Context) (uint64, bool) {
	s, ok := SessionFromContext(ctx)
	return s.UserID, ok
}

func RequireAuth(jwtSvc *JWT) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || scheme != "Bearer" || token == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := jwtSvc.Verify(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			uid, err := claims.UserID()
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			s := Session{UserID: uid, DisplayName: claims.DisplayName}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
		})
	}
}
