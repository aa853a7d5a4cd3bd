package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/fablesound/fable-server/internal/http/response"
	"github.com/fablesound/fable-server/internal/identity"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	contextKeyUserID contextKey = "user_id"
	contextKeyEmail  contextKey = "email"
)

// bearerToken pulls the token out of the Authorization header, or "" when
// the header is missing or malformed.
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// requireAuth validates the access token and attaches user context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			response.Unauthorized(w, "Missing or invalid authorization header", s.logger)
			return
		}

		claims, err := s.authService.VerifyAccessToken(r.Context(), token)
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token", s.logger)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, contextKeyEmail, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withIdentity gates the per-user state and player routes, which act on the
// active session identity rather than a per-request one.
//
// A valid bearer token makes its user the active identity (a no-op when it
// already is), so a fresh token after an account switch snaps the stores
// over. Unauthenticated requests are only allowed while the session itself
// is anonymous; they must not see another user's active slices.
func (s *Server) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if !identity.IsAnonymous(s.session.Current()) {
				response.Unauthorized(w, "Authentication required", s.logger)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		claims, err := s.authService.VerifyAccessToken(r.Context(), token)
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token", s.logger)
			return
		}
		s.session.Set(claims.UserID)

		ctx := context.WithValue(r.Context(), contextKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, contextKeyEmail, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// getUserID extracts the authenticated user ID from request context.
// Returns empty string if not authenticated.
func getUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(contextKeyUserID).(string); ok {
		return userID
	}
	return ""
}
