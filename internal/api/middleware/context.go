package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// contextKey is a private key type so no other package can collide with
// the values this package stores on a request context.
type contextKey struct {
	name string
}

func (k *contextKey) String() string { return "middleware context value " + k.name }

var principalKey = &contextKey{"principal"}

// Principal is the identity Authenticate resolves from an API key.
// KeyPrefix feeds the rate limiter, Scopes feed RequireScope, and
// TenantID scopes every store query the handlers make.
type Principal struct {
	TenantID  uuid.UUID
	KeyPrefix string
	Scopes    []string
}

// HasScope reports whether the key carries the given scope.
func (p Principal) HasScope(scope string) bool {
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom extracts the authenticated principal from a request.
func PrincipalFrom(r *http.Request) (Principal, bool) {
	p, ok := r.Context().Value(principalKey).(Principal)
	return p, ok
}

// SetTenantID returns a context whose principal carries only the tenant.
func SetTenantID(ctx context.Context, id uuid.UUID) context.Context {
	return WithPrincipal(ctx, Principal{TenantID: id})
}

// GetTenantID returns the tenant that owns the request's API key.
func GetTenantID(r *http.Request) (uuid.UUID, bool) {
	p, ok := PrincipalFrom(r)
	if !ok || p.TenantID == uuid.Nil {
		return uuid.Nil, false
	}
	return p.TenantID, true
}
