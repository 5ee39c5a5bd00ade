package middleware

import (
	"context"
	"encoding/json"
	"net/http"
)

type contextKey string

const ownerIDKey contextKey = "ownerID"

// RequireOwner extracts the calling user from the X-User-ID header that the
// edge proxy sets after validating the session, and rejects requests without
// one. Handlers read the owner back with OwnerFromContext.
func RequireOwner() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerID := r.Header.Get("X-User-ID")
			if ownerID == "" {
				respondUnauthorized(w, "Missing user context")
				return
			}

			ctx := context.WithValue(r.Context(), ownerIDKey, ownerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerFromContext returns the authenticated user set by RequireOwner
func OwnerFromContext(ctx context.Context) (string, bool) {
	ownerID, ok := ctx.Value(ownerIDKey).(string)
	return ownerID, ok && ownerID != ""
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    http.StatusUnauthorized,
	})
}
