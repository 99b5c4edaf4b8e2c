package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fjacquet/ledger-import/internal/logging"
)

// ErrNoRefreshToken is returned when a refresh is needed but the session has
// no refresh token.
var ErrNoRefreshToken = errors.New("no refresh token")

const refreshKey = "refresh"

// RefreshTimeout bounds one shared refresh call.
var RefreshTimeout = 30 * time.Second

// TokenPair is the body returned by the auth refresh endpoint.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Session holds the tokens of one authenticated user. Concurrent callers
// that hit an expired access token share a single refresh call; a caller
// arriving after that call finished starts a new one.
type Session struct {
	mu      sync.RWMutex
	access  string
	refresh string

	refreshURL string
	http       *http.Client
	logger     logging.Logger
	group      singleflight.Group

	// OnAuthFailure is called after a failed refresh cleared the tokens.
	OnAuthFailure func()
}

// NewSession creates a session that refreshes against refreshURL.
func NewSession(refreshURL string, httpClient *http.Client, logger logging.Logger) *Session {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Session{refreshURL: refreshURL, http: httpClient, logger: logger}
}

// SetTokens replaces both tokens.
func (s *Session) SetTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh = access, refresh
}

// AccessToken returns the current access token.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// Clear forgets both tokens.
func (s *Session) Clear() {
	s.SetTokens("", "")
}

// Refresh obtains a new token pair. It returns the access token to use for
// the retry. The shared refresh runs detached from every caller's context,
// bounded by RefreshTimeout, so a caller that gives up returns ctx.Err()
// while the others keep waiting. The session is cleared and OnAuthFailure
// runs only when the backend rejects the refresh token.
func (s *Session) Refresh(ctx context.Context) (string, error) {
	ch := s.group.DoChan(refreshKey, func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RefreshTimeout)
		defer cancel()
		return s.doRefresh(rctx)
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("token refresh abandoned: %w", ctx.Err())
	case res := <-ch:
		if res.Shared {
			s.logger.Debug("Joined in-flight token refresh")
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (s *Session) doRefresh(ctx context.Context) (string, error) {
	refresh := s.RefreshToken()
	if refresh == "" {
		s.fail()
		return "", ErrNoRefreshToken
	}

	body, err := json.Marshal(map[string]string{"refresh_token": refresh})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.refreshURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		s.logger.WithError(err).Warn("Token refresh did not complete, keeping session")
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp)
		s.fail()
		return "", fmt.Errorf("token refresh failed: %w", apiErr)
	}

	var pair TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		s.fail()
		return "", fmt.Errorf("failed to decode refresh response: %w", err)
	}
	s.SetTokens(pair.AccessToken, pair.RefreshToken)
	s.logger.Info("Refreshed access token")
	return pair.AccessToken, nil
}

func (s *Session) fail() {
	s.Clear()
	s.logger.Warn("Session cleared after failed token refresh")
	if s.OnAuthFailure != nil {
		s.OnAuthFailure()
	}
}
