package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"carecoin/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the account it was
// issued for.
type TokenValidator interface {
	ValidateToken(tokenString string) (string, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller account in the request context. Every ledger operation reads its
// caller identity from there, never from the request body.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthenticated","error_description":"Missing bearer token"}`))
				return
			}

			account, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthenticated","error_description":"Invalid or expired token"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithCaller(ctx, account)))
		})
	}
}
