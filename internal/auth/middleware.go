package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// CookieName is the HttpOnly cookie that carries the session token.
const CookieName = "token"

// contextKey is unexported so no other package can read or shadow our values.
type contextKey string

const identityKey contextKey = "identity"

var errNoToken = errors.New("auth: no session token")

// RequireAuth is the session gate for protected routes.
//
// It reads the JWT from the "token" cookie, or from an
// "Authorization: Bearer <jwt>" header for non-browser clients, validates it
// and stores the Identity in the request context. Anything else ends the
// chain with 401 before the handler runs, so no protected operation can
// touch storage for an anonymous caller.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := extractIdentity(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthenticated","message":"valid authentication required"}` + "\n"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying the session identity.
// Handlers tests use it to skip token minting.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the authenticated session identity.
// ok is false for anonymous requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// UserIDFromContext is a shortcut for IdentityFromContext(ctx).UserID.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.UserID, ok
}

func extractIdentity(r *http.Request, tokens *TokenService) (Identity, error) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return tokens.Validate(cookie.Value)
	}

	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "Bearer") && token != "" {
			return tokens.Validate(strings.TrimSpace(token))
		}
	}

	return Identity{}, errNoToken
}
