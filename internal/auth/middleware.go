// internal/auth/middleware.go
package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const participantKey contextKey = "participant_email"

// ParticipantFromContext returns the resolved participant email, if any.
func ParticipantFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(participantKey).(string)
	return email, ok
}

// ParticipantMiddleware resolves the participant identity from a bearer token
// into the request context. The attempt engine downstream only ever sees the
// resolved email string.
func ParticipantMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			bearerToken := strings.Split(authHeader, " ")
			if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
				http.Error(w, "Invalid token format", http.StatusUnauthorized)
				return
			}

			email, err := ParseToken(jwtSecret, bearerToken[1])
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), participantKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
