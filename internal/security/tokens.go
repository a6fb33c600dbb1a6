package security

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Token is an opaque API key bound to one user.
type Token struct {
	Key       string    `json:"token"`
	Username  string    `json:"-"`
	CreatedAt time.Time `json:"-"`
	// ExpiresAt is zero for tokens that never expire.
	ExpiresAt time.Time `json:"-"`
}

func (t Token) expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// TokenStore keeps at most one live token per user in memory.
type TokenStore struct {
	mu     sync.RWMutex
	byKey  map[string]Token
	byUser map[string]string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenStore creates a store. A ttl of zero issues non-expiring tokens.
func NewTokenStore(ttl time.Duration) *TokenStore {
	return &TokenStore{
		byKey:  make(map[string]Token),
		byUser: make(map[string]string),
		ttl:    ttl,
		now:    time.Now,
	}
}

// GetOrCreate returns the user's live token, issuing a new one if there is none.
func (s *TokenStore) GetOrCreate(username string) Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if key, ok := s.byUser[username]; ok {
		if tok := s.byKey[key]; !tok.expired(now) {
			return tok
		}
		delete(s.byKey, key)
	}

	tok := Token{
		Key:       strings.ReplaceAll(uuid.NewString(), "-", ""),
		Username:  username,
		CreatedAt: now,
	}
	if s.ttl > 0 {
		tok.ExpiresAt = now.Add(s.ttl)
	}

	s.byKey[tok.Key] = tok
	s.byUser[username] = tok.Key
	return tok
}

// Validate resolves key to its username.
func (s *TokenStore) Validate(key string) (string, error) {
	s.mu.RLock()
	tok, ok := s.byKey[key]
	s.mu.RUnlock()

	if !ok || key == "" {
		return "", ErrInvalidToken
	}
	if tok.expired(s.now()) {
		s.Revoke(key)
		return "", ErrInvalidToken
	}
	return tok.Username, nil
}

// Revoke drops key. Unknown keys are ignored.
func (s *TokenStore) Revoke(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.byKey[key]
	if !ok {
		return
	}
	delete(s.byKey, key)
	if s.byUser[tok.Username] == key {
		delete(s.byUser, tok.Username)
	}
}
