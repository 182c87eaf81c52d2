package httpapi

import (
	"context"
	"net/http"
	"strings"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID string
}

// Authenticator resolves a request to an identity.
type Authenticator interface {
	Authenticate(r *http.Request) (Identity, bool)
}

type identityKey struct{}

// IdentityFrom returns the authenticated identity stored on the context.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// StaticTokenAuthenticator authenticates bearer tokens against a fixed
// token-to-user mapping, configured as "token:user_id" pairs.
type StaticTokenAuthenticator struct {
	users map[string]string
}

// NewStaticTokenAuthenticator builds an authenticator from "token:user_id"
// pairs. Malformed pairs are skipped.
func NewStaticTokenAuthenticator(pairs []string) *StaticTokenAuthenticator {
	users := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		token, userID, found := strings.Cut(pair, ":")
		if !found || token == "" || userID == "" {
			continue
		}
		users[token] = userID
	}
	return &StaticTokenAuthenticator{users: users}
}

// Authenticate resolves the Authorization bearer token.
func (a *StaticTokenAuthenticator) Authenticate(r *http.Request) (Identity, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return Identity{}, false
	}
	userID, ok := a.users[token]
	if !ok {
		return Identity{}, false
	}
	return Identity{UserID: userID}, true
}

// requireAuth rejects unauthenticated requests and stores the identity on
// the request context for handlers.
func requireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.Authenticate(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			ctx := context.WithValue(r.Context(), identityKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
