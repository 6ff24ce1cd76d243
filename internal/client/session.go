package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"paperless/internal/model"
)

// State is what a session persists between runs.
type State struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// SessionStore persists session state.
type SessionStore interface {
	// Load returns nil without error when nothing is stored.
	Load() (*State, error)
	Save(state *State) error
	Clear() error
}

// Session is the single authentication context of the client.
type Session struct {
	mu    sync.RWMutex
	store SessionStore
	state *State
	now   func() time.Time
}

// NewSession creates an empty session backed by store. Call Init to
// restore a previous login.
func NewSession(store SessionStore) *Session {
	return &Session{store: store, now: time.Now}
}

// Init loads the stored session and discards it when the token is
// expired, unreadable or has no user attached.
func (s *Session) Init() error {
	state, err := s.store.Load()
	if err != nil {
		_ = s.store.Clear()
		return fmt.Errorf("load session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
	if state == nil {
		return nil
	}
	if state.User == nil || state.Token == "" {
		return s.store.Clear()
	}
	exp, err := TokenExpiry(state.Token)
	if err != nil || !s.now().Before(exp) {
		return s.store.Clear()
	}
	s.state = state
	return nil
}

// Establish replaces the session with a fresh login.
func (s *Session) Establish(token string, user *model.User) error {
	if token == "" || user == nil {
		return errors.New("invalid login response: missing token or user")
	}
	state := &State{Token: token, User: user}
	if err := s.store.Save(state); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

// SetUser stores a refreshed user record without touching the token.
func (s *Session) SetUser(user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return ErrLoginRequired
	}
	next := &State{Token: s.state.Token, User: user}
	if err := s.store.Save(next); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.state = next
	return nil
}

// Purge forgets the session locally and in the store.
func (s *Session) Purge() error {
	s.mu.Lock()
	s.state = nil
	s.mu.Unlock()
	return s.store.Clear()
}

// Token returns the bearer token or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return ""
	}
	return s.state.Token
}

// User returns a copy of the logged in user or nil.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil || s.state.User == nil {
		return nil
	}
	u := *s.state.User
	return &u
}

// Authenticated reports whether a user is logged in.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// TokenExpiry reads the exp claim without verifying the signature. The
// client cannot verify tokens; it only needs to know when to stop
// sending one.
func TokenExpiry(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no expiry")
	}
	return claims.ExpiresAt.Time, nil
}

// FileStore keeps the session in a JSON file readable only by its owner.
type FileStore struct {
	Path string
}

var _ SessionStore = (*FileStore)(nil)

// DefaultSessionPath is the session file under the user config dir.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "paperless", "session.json"), nil
}

func (f *FileStore) Load() (*State, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (f *FileStore) Save(state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}

func (f *FileStore) Clear() error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStore keeps the session in memory only.
type MemoryStore struct {
	mu    sync.Mutex
	state *State
}

var _ SessionStore = (*MemoryStore)(nil)

func (m *MemoryStore) Load() (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, nil
	}
	cp := *m.state
	return &cp, nil
}

func (m *MemoryStore) Save(state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	m.state = &cp
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = nil
	return nil
}
