// Package client holds the pieces an API consumer needs to keep a login
// session alive: local token persistence and an expiry watcher that tears
// the session down the moment the access token lapses.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/craftfolio/portfolio-server-go/internal/auth"
)

// ErrNoSession is returned when no tokens are stored locally.
var ErrNoSession = errors.New("no active session")

// Tokens is the credential pair handed out at login.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenStore persists the token pair between runs.
type TokenStore interface {
	Save(tokens Tokens) error
	Load() (Tokens, error)
	Clear() error
}

type fileTokenStore struct {
	path string
}

// NewFileTokenStore stores tokens as JSON at the given path. The file is
// written with 0600 since it holds live credentials.
func NewFileTokenStore(path string) TokenStore {
	return &fileTokenStore{path: path}
}

func (s *fileTokenStore) Save(tokens Tokens) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("marshal tokens: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write tokens: %w", err)
	}
	return nil
}

func (s *fileTokenStore) Load() (Tokens, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Tokens{}, ErrNoSession
		}
		return Tokens{}, fmt.Errorf("read tokens: %w", err)
	}
	var tokens Tokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		return Tokens{}, fmt.Errorf("unmarshal tokens: %w", err)
	}
	if tokens.AccessToken == "" {
		return Tokens{}, ErrNoSession
	}
	return tokens, nil
}

func (s *fileTokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove tokens: %w", err)
	}
	return nil
}

// SessionManager tracks the active session and fires OnExpire exactly when
// the access token's embedded expiry passes. Setting a new session cancels
// the previous watcher, so at most one timer is ever pending.
type SessionManager struct {
	store    TokenStore
	onExpire func()

	mu     sync.Mutex
	timer  *time.Timer
	tokens *Tokens
	closed bool

	// swappable for tests
	now func() time.Time
}

func NewSessionManager(store TokenStore, onExpire func()) *SessionManager {
	return &SessionManager{
		store:    store,
		onExpire: onExpire,
		now:      time.Now,
	}
}

// Restore loads a previously persisted session, if any, and arms the expiry
// watcher. An already expired token is cleared immediately.
func (m *SessionManager) Restore() error {
	tokens, err := m.store.Load()
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil
		}
		return err
	}
	return m.Set(tokens)
}

// Set installs a new session: persists the tokens and schedules teardown at
// the access token's expiry instant.
func (m *SessionManager) Set(tokens Tokens) error {
	expiresAt, err := auth.DecodeExpiry(tokens.AccessToken)
	if err != nil {
		return fmt.Errorf("decode access token: %w", err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.New("session manager closed")
	}
	m.cancelTimerLocked()

	remaining := expiresAt.Sub(m.now())
	if remaining <= 0 {
		m.tokens = nil
		m.mu.Unlock()
		m.clearStore()
		if m.onExpire != nil {
			m.onExpire()
		}
		return nil
	}

	if err := m.store.Save(tokens); err != nil {
		m.mu.Unlock()
		return err
	}

	t := tokens
	m.tokens = &t
	m.timer = time.AfterFunc(remaining, m.expire)
	m.mu.Unlock()
	return nil
}

// AccessToken returns the live access token, or ErrNoSession.
func (m *SessionManager) AccessToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		return "", ErrNoSession
	}
	return m.tokens.AccessToken, nil
}

// Clear drops the session without firing OnExpire. Used at logout.
func (m *SessionManager) Clear() error {
	m.mu.Lock()
	m.cancelTimerLocked()
	m.tokens = nil
	m.mu.Unlock()
	return m.store.Clear()
}

// Close stops the watcher. The session file is left in place so a later run
// can Restore it.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelTimerLocked()
	m.closed = true
}

func (m *SessionManager) expire() {
	m.mu.Lock()
	if m.closed || m.tokens == nil {
		m.mu.Unlock()
		return
	}
	m.tokens = nil
	m.timer = nil
	m.mu.Unlock()

	m.clearStore()
	if m.onExpire != nil {
		m.onExpire()
	}
}

// clearStore wipes persisted credentials on the expiry paths, where there
// is no caller to return the error to.
func (m *SessionManager) clearStore() {
	if err := m.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("failed to clear stored session")
	}
}

func (m *SessionManager) cancelTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
