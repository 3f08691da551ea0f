package session

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"packmate/keystore"
	"packmate/models"
	"packmate/utils"

	"go.uber.org/zap"
)

// Store owns the session state: the persisted token pair and the identity
// decoded from it. It is the single process-wide holder of that state;
// callers keep a handle to the store, never copies of the session.
type Store struct {
	mu    sync.Mutex
	keys  *keystore.Store
	http  *http.Client
	now   func() time.Time
	state models.Session

	// onLogout is the navigation-reset hook fired whenever the session ends,
	// whether by explicit logout or expiry detection.
	onLogout func()
}

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient overrides the HTTP client used by AuthenticatedRequest.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.http = c }
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogoutHook registers the callback fired after the session is destroyed.
func WithLogoutHook(fn func()) Option {
	return func(s *Store) { s.onLogout = fn }
}

// NewStore creates a session store backed by the given keystore.
func NewStore(keys *keystore.Store, opts ...Option) *Store {
	s := &Store{
		keys: keys,
		http: &http.Client{Timeout: 15 * time.Second},
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize restores the session from the keystore at startup. An expired
// token is deleted and the store stays unauthenticated. Storage and decode
// problems are logged, never returned: startup must not crash on a bad token.
func (s *Store) Initialize(ctx context.Context) {
	logger := utils.GetLogger()

	access, err := s.keys.Get(keystore.KeyAccessToken)
	if err != nil {
		if err != keystore.ErrKeyNotFound {
			logger.Warn("session: failed to read stored token", zap.Error(err))
		}
		return
	}

	userID, expiresAt, err := decodeToken(access)
	if err != nil {
		logger.Warn("session: stored token is not decodable, discarding", zap.Error(err))
		s.deleteTokens()
		return
	}
	if expiresAt != nil && !expiresAt.After(s.now()) {
		logger.Info("session: stored token expired, discarding")
		s.deleteTokens()
		return
	}

	refresh, err := s.keys.Get(keystore.KeyRefreshToken)
	if err != nil && err != keystore.ErrKeyNotFound {
		logger.Warn("session: failed to read refresh token", zap.Error(err))
	}

	s.mu.Lock()
	s.state = models.Session{
		AccessToken:     access,
		RefreshToken:    refresh,
		IsAuthenticated: true,
		UserID:          userID,
	}
	s.mu.Unlock()
}

// SetSession stores the token pair and updates the in-memory state. The
// refresh token is kept for a future exchange flow; the backend exposes no
// refresh endpoint yet, so expiry still ends the session.
func (s *Store) SetSession(accessToken, refreshToken string) error {
	if err := s.keys.Set(keystore.KeyAccessToken, accessToken); err != nil {
		return err
	}
	if refreshToken != "" {
		if err := s.keys.Set(keystore.KeyRefreshToken, refreshToken); err != nil {
			return err
		}
	}

	userID, _, err := decodeToken(accessToken)
	if err != nil {
		utils.GetLogger().Warn("session: new token subject not decodable", zap.Error(err))
	}

	s.mu.Lock()
	s.state = models.Session{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		IsAuthenticated: accessToken != "",
		UserID:          userID,
	}
	s.mu.Unlock()
	return nil
}

// Logout deletes both tokens from the keystore, resets the in-memory state
// and fires the navigation-reset hook.
func (s *Store) Logout() {
	s.deleteTokens()

	s.mu.Lock()
	s.state = models.Session{}
	hook := s.onLogout
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
}

func (s *Store) deleteTokens() {
	logger := utils.GetLogger()
	if err := s.keys.Delete(keystore.KeyAccessToken); err != nil {
		logger.Warn("session: failed to delete access token", zap.Error(err))
	}
	if err := s.keys.Delete(keystore.KeyRefreshToken); err != nil {
		logger.Warn("session: failed to delete refresh token", zap.Error(err))
	}
}

// IsAuthenticated reports whether an access token is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsAuthenticated
}

// UserID returns the identity decoded from the access token, 0 when
// unauthenticated.
func (s *Store) UserID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.UserID
}

// Session returns a copy of the current session state.
func (s *Store) Session() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AuthenticatedRequest issues an HTTP request with the bearer token attached.
// It fails with ErrNoToken when unauthenticated. The token's expiry claim is
// checked locally first: an expired token logs the session out and fails with
// ErrTokenExpired before anything is dispatched. Caller headers are
// preserved; a JSON content type is applied only when the caller has not set
// its own (multipart and binary bodies carry theirs).
func (s *Store) AuthenticatedRequest(ctx context.Context, method, url string, body io.Reader, header http.Header) (*http.Response, error) {
	s.mu.Lock()
	token := s.state.AccessToken
	s.mu.Unlock()
	if token == "" {
		return nil, ErrNoToken
	}

	_, expiresAt, err := decodeToken(token)
	if err != nil {
		// Let the backend reject tokens the client cannot decode.
		utils.GetLogger().Warn("session: token expiry not decodable", zap.Error(err))
	} else if expiresAt != nil && !expiresAt.After(s.now()) {
		s.Logout()
		return nil, ErrTokenExpired
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	return s.http.Do(req)
}
