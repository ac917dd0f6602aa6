package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"smartpark/internal/service"
)

type contextKey struct{}

// OperatorFromContext returns the authenticated operator's name, if any.
func OperatorFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(contextKey{}).(string)
	return name, ok
}

// OperatorMiddleware requires a valid operator bearer token. When operator
// auth is not configured every request passes through.
func OperatorMiddleware(svc service.OperatorAuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !svc.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w)
				return
			}
			claims, err := svc.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), contextKey{}, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{"code": http.StatusUnauthorized, "error": "Unauthorized"})
}
