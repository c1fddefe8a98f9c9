package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quizgen-dev/quizgen/internal/api"
)

// Session represents the authenticated user of this client
type Session struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Key identifies the user for per-user state. It is the user id, or the
// email for a backend that sends no id.
func (s *Session) Key() string {
	if s.UserID != "" {
		return s.UserID
	}
	if s.Email != "" {
		return "email:" + strings.ToLower(s.Email)
	}
	return ""
}

func fromUser(u api.User) *Session {
	return &Session{
		UserID: string(u.ID),
		Name:   u.DisplayName(),
		Email:  u.Email,
	}
}

// AuthAPI is the part of the backend API the session lifecycle needs
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Register(ctx context.Context, username, email, password string) (*api.AuthResponse, error)
	Me(ctx context.Context) (*api.User, error)
}

// Manager owns the current session and its persisted token.
// Bootstrap, Login, Register, Logout and Invalidate are the only mutators.
type Manager struct {
	store  TokenStore
	auth   AuthAPI
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *Session
	ready   bool
}

// NewManager creates a manager. auth must send the token held by store.
func NewManager(store TokenStore, auth AuthAPI, logger zerolog.Logger) *Manager {
	return &Manager{
		store:  store,
		auth:   auth,
		logger: logger,
		now:    time.Now,
	}
}

// Bootstrap restores the session from the persisted token. Any failure to
// verify the token clears it. The manager is ready afterwards regardless of
// the outcome; the returned error is informational.
func (m *Manager) Bootstrap(ctx context.Context) error {
	defer m.markReady()

	token, err := m.store.LoadToken()
	if err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}
	if token == "" {
		return nil
	}

	if exp, ok := TokenExpiry(token); ok && !exp.After(m.now()) {
		m.logger.Debug().Time("expired_at", exp).Msg("Stored token has expired")
		m.clear()
		return ErrTokenExpired
	}

	user, err := m.auth.Me(ctx)
	if err != nil {
		m.logger.Debug().Err(err).Msg("Stored token was rejected")
		m.clear()
		return fmt.Errorf("failed to verify token: %w", err)
	}

	m.mu.Lock()
	m.current = fromUser(*user)
	m.mu.Unlock()
	return nil
}

func (m *Manager) markReady() {
	m.mu.Lock()
	m.ready = true
	m.mu.Unlock()
}

// Login authenticates with the backend. On failure the server error is
// returned unchanged and the existing session is left alone.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return m.establish(resp)
}

// Register creates an account and signs in with it. Same failure contract as
// Login.
func (m *Manager) Register(ctx context.Context, username, email, password string) (*Session, error) {
	resp, err := m.auth.Register(ctx, username, email, password)
	if err != nil {
		return nil, err
	}
	return m.establish(resp)
}

func (m *Manager) establish(resp *api.AuthResponse) (*Session, error) {
	if err := m.store.SaveToken(resp.Token); err != nil {
		return nil, fmt.Errorf("failed to save authentication token: %w", err)
	}

	s := fromUser(resp.User)
	m.mu.Lock()
	m.current = s
	m.ready = true
	m.mu.Unlock()

	m.logger.Info().Str("user_id", s.UserID).Msg("Session established")
	return s, nil
}

// Logout drops the session and the persisted token. No network call is made.
func (m *Manager) Logout() error {
	if err := m.store.DeleteToken(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	return nil
}

// Invalidate is called when the backend rejects the session. It reports
// whether there was anything to clear, so repeated 401s clear only once.
func (m *Manager) Invalidate() bool {
	token, _ := m.store.LoadToken()

	m.mu.Lock()
	hadSession := m.current != nil
	m.current = nil
	m.mu.Unlock()

	if token == "" && !hadSession {
		return false
	}
	if err := m.store.DeleteToken(); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to delete rejected token")
	}
	m.logger.Info().Msg("Session invalidated by backend")
	return true
}

func (m *Manager) clear() {
	if err := m.store.DeleteToken(); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to delete token")
	}
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
}

// Current returns the session, if any
func (m *Manager) Current() (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, false
	}
	s := *m.current
	return &s, true
}

// Ready reports whether Bootstrap (or a login) has completed
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

// Authenticated is true once ready with a session present
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready && m.current != nil
}

// Token returns the persisted token, or "" when there is none
func (m *Manager) Token() string {
	token, err := m.store.LoadToken()
	if err != nil {
		return ""
	}
	return token
}

// Expiry returns when the persisted token stops being accepted, if the token
// carries that information
func (m *Manager) Expiry() (time.Time, bool) {
	token, err := m.store.LoadToken()
	if err != nil || token == "" {
		return time.Time{}, false
	}
	return TokenExpiry(token)
}

// IsAuthError reports whether err means the user must sign in again
func IsAuthError(err error) bool {
	return errors.Is(err, api.ErrUnauthorized) || errors.Is(err, ErrTokenExpired)
}
