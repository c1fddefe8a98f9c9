package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zalando/go-keyring"
)

const (
	// TokenKey is the name the bearer token is persisted under
	TokenKey = "token"

	keyringService = "quizgen"
)

// ErrTokenExpired is returned by Bootstrap when the stored token's exp claim
// is already in the past
var ErrTokenExpired = errors.New("token expired")

// TokenStore persists the bearer token.
// LoadToken returns "" with a nil error when no token is stored.
type TokenStore interface {
	LoadToken() (string, error)
	SaveToken(token string) error
	DeleteToken() error
}

// KeyringStore keeps the token in the OS keychain/credential manager
type KeyringStore struct {
	Service string
	Key     string
}

// NewKeyringStore returns a store for the default service and key
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{Service: keyringService, Key: TokenKey}
}

// LoadToken retrieves the token from the keychain
func (k *KeyringStore) LoadToken() (string, error) {
	token, err := keyring.Get(k.Service, k.Key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// SaveToken persists the token in the keychain
func (k *KeyringStore) SaveToken(token string) error {
	if err := keyring.Set(k.Service, k.Key, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// DeleteToken removes the token from the keychain
func (k *KeyringStore) DeleteToken() error {
	if err := keyring.Delete(k.Service, k.Key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// MemoryStore holds the token for the lifetime of the process
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns a store seeded with token ("" for empty)
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (m *MemoryStore) LoadToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStore) SaveToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) DeleteToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The backend remains the authority; this only avoids sending a token that
// is known to be stale. Opaque tokens report ok=false.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
