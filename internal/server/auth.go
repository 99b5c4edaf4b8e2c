package server

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrUnknownRefreshToken is returned when rotating a token that was never
// issued or was already used.
var ErrUnknownRefreshToken = errors.New("unknown refresh token")

// TokenPair is an access token and the refresh token that replaces it.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenStore keeps the bearer tokens of the reference server in memory.
// Refresh tokens are single use: rotating one revokes it together with the
// access token it was issued with.
type TokenStore struct {
	mu      sync.RWMutex
	access  map[string]struct{}
	refresh map[string]string // refresh -> access
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		access:  make(map[string]struct{}),
		refresh: make(map[string]string),
	}
}

// Issue creates and records a new pair.
func (s *TokenStore) Issue() TokenPair {
	pair := TokenPair{AccessToken: uuid.NewString(), RefreshToken: uuid.NewString()}
	s.Seed(pair)
	return pair
}

// Seed records an externally chosen pair.
func (s *TokenStore) Seed(pair TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pair.AccessToken != "" {
		s.access[pair.AccessToken] = struct{}{}
	}
	if pair.RefreshToken != "" {
		s.refresh[pair.RefreshToken] = pair.AccessToken
	}
}

// Valid reports whether token is a live access token.
func (s *TokenStore) Valid(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.access[token]
	return ok
}

// Revoke invalidates an access token.
func (s *TokenStore) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.access, token)
}

// Rotate exchanges a refresh token for a new pair.
func (s *TokenStore) Rotate(refreshToken string) (TokenPair, error) {
	s.mu.Lock()
	access, ok := s.refresh[refreshToken]
	if ok {
		delete(s.refresh, refreshToken)
		delete(s.access, access)
	}
	s.mu.Unlock()

	if !ok {
		return TokenPair{}, ErrUnknownRefreshToken
	}
	return s.Issue(), nil
}

// requireAuth rejects requests without a live bearer token.
func requireAuth(tokens *TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || !tokens.Valid(strings.TrimSpace(token)) {
			abort(c, http.StatusUnauthorized, CodeUnauthorized, "missing or expired access token")
			return
		}
		c.Next()
	}
}
