package api

import (
	"context"
	"errors"
	"net/http"

	"storefront-service/internal/auth"
)

// AuthHeader carries the admin token on every admin request.
const AuthHeader = "x-auth-token"

type claimsContextKey struct{}

// RequireAdmin rejects the request before it reaches any handler unless it
// carries a valid token whose isAdmin claim is set.
func (h *HTTPHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(AuthHeader)
		if token == "" {
			h.respondWithError(w, http.StatusUnauthorized, "Access denied. No token provided.")
			return
		}

		claims, err := h.svc.Tokens.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				h.respondWithError(w, http.StatusUnauthorized, "Token has expired.")
				return
			}
			h.respondWithError(w, http.StatusUnauthorized, "Invalid token.")
			return
		}
		if !claims.IsAdmin {
			h.respondWithError(w, http.StatusForbidden, "Admin access required.")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext returns the verified token claims stored by RequireAdmin.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*auth.Claims)
	return claims, ok
}
