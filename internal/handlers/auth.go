package handlers

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"

	"mediastore-bridge/internal/logging"

	"golang.org/x/crypto/bcrypt"
)

// TokenAuth guards /api/* with a bearer token checked against a bcrypt
// hash. Tokens that verified once are remembered by digest so bcrypt
// runs only on first use. An empty hash disables the check.
type TokenAuth struct {
	hash []byte

	mu       sync.RWMutex
	verified map[[sha256.Size]byte]struct{}
}

// NewTokenAuth creates token auth for a bcrypt hash.
func NewTokenAuth(hash string) *TokenAuth {
	return &TokenAuth{
		hash:     []byte(strings.TrimSpace(hash)),
		verified: make(map[[sha256.Size]byte]struct{}),
	}
}

// Enabled reports whether requests must carry a token.
func (a *TokenAuth) Enabled() bool {
	return a != nil && len(a.hash) > 0
}

// Verify checks a presented token.
func (a *TokenAuth) Verify(token string) bool {
	if !a.Enabled() {
		return true
	}
	if token == "" {
		return false
	}

	digest := sha256.Sum256([]byte(token))
	a.mu.RLock()
	_, ok := a.verified[digest]
	a.mu.RUnlock()
	if ok {
		return true
	}

	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(token)); err != nil {
		return false
	}

	a.mu.Lock()
	a.verified[digest] = struct{}{}
	a.mu.Unlock()
	return true
}

// Middleware rejects unauthenticated /api/* requests with 401.
func (a *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() || !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		if !a.Verify(bearerToken(r)) {
			logging.Debug("rejected unauthenticated request to %s from %s", r.URL.Path, r.RemoteAddr)
			w.Header().Set("WWW-Authenticate", `Bearer realm="mediastore-bridge"`)
			writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(header) < len(prefix) || subtle.ConstantTimeCompare([]byte(strings.ToLower(header[:len(prefix)])), []byte(prefix)) != 1 {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
