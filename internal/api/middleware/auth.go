package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/evalhunter/internal/api/response"
	"github.com/kiranshivaraju/evalhunter/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// API keys look like eh_<48 hex chars>. The first eight characters are
// stored in clear as a lookup prefix; the remainder only ever exists as
// a bcrypt hash.
const keyPrefixLen = 8

// KeyStore is the slice of the store Authenticate needs.
type KeyStore interface {
	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
}

// Auth authenticates requests against the API keys held in the store.
type Auth struct {
	store KeyStore
}

func NewAuth(s KeyStore) *Auth {
	return &Auth{store: s}
}

// Authenticate resolves the Bearer token to an API key and attaches the
// resulting Principal to the request context. Missing, malformed, and
// unknown keys all produce the same 401 so callers cannot probe which
// prefixes exist.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if len(raw) < keyPrefixLen {
			unauthorized(w, "Missing or invalid API key")
			return
		}

		prefix := raw[:keyPrefixLen]
		candidates, err := a.store.GetAPIKeyByPrefix(r.Context(), prefix)
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to validate API key", nil)
			return
		}

		key := matchKey(candidates, raw)
		if key == nil {
			unauthorized(w, "Invalid API key")
			return
		}

		// Request latency must not depend on the bookkeeping write.
		go a.store.UpdateAPIKeyLastUsed(context.Background(), key.ID)

		p := Principal{TenantID: key.TenantID, KeyPrefix: prefix, Scopes: key.Scopes}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// matchKey returns the candidate whose hash matches the raw key. The
// prefix is only eight characters, so collisions are possible and every
// candidate is checked.
func matchKey(candidates []*models.APIKey, raw string) *models.APIKey {
	for _, key := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(raw)) == nil {
			return key
		}
	}
	return nil
}

// RequireScope rejects requests whose key lacks the given scope.
func (a *Auth) RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r)
			if !ok || !p.HasScope(scope) {
				response.Error(w, http.StatusForbidden,
					"FORBIDDEN", "Insufficient permissions", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", msg, nil)
}

func bearerToken(r *http.Request) string {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
