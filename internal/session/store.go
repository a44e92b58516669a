// Package session owns the authenticated identity. The store is an explicit
// object injected into components that need it; persistence is a scoped side
// effect of login and logout, not ambient global state.
package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/storekeep/storekeep/internal/domain/account"
)

// ErrInvalidCredentials is returned when no account matches the supplied
// username and password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Session is the authenticated actor. A nil *Session means anonymous.
type Session struct {
	Username string       `json:"username"`
	Role     account.Role `json:"role"`
}

// IsAdmin reports whether the session may perform admin-only operations.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == account.RoleAdmin
}

// Store holds the current session and its durable copy on disk.
type Store struct {
	accounts account.Repository
	path     string
	lg       *zap.Logger

	mu      sync.RWMutex
	current *Session
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(lg *zap.Logger) Option {
	return func(s *Store) { s.lg = lg }
}

// NewStore creates a Store persisting to path and synchronously restores any
// previously persisted session. An absent or malformed file leaves the
// session anonymous; a malformed file is removed.
func NewStore(accounts account.Repository, path string, opts ...Option) *Store {
	s := &Store{
		accounts: accounts,
		path:     path,
		lg:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.restore()
	return s
}

// Current returns the active session, or nil when anonymous.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}

// Login fetches the full account list and performs a linear case-sensitive
// match on username and password. On match the session is stored and
// persisted; on mismatch it fails with ErrInvalidCredentials and the session
// is left untouched.
func (s *Store) Login(ctx context.Context, username, password string) (*Session, error) {
	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch accounts")
	}

	for _, a := range accounts {
		if a.Username == username && a.Password == password {
			sess := &Session{Username: a.Username, Role: a.Role}

			s.mu.Lock()
			s.current = sess
			s.mu.Unlock()

			if err := s.persist(sess); err != nil {
				s.lg.Warn("session persist failed", zap.Error(err))
			}
			s.lg.Info("logged in", zap.String("username", a.Username), zap.String("role", string(a.Role)))

			copied := *sess
			return &copied, nil
		}
	}
	return nil, ErrInvalidCredentials
}

// Logout clears the current session and its persisted copy.
func (s *Store) Logout() error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove session file")
	}
	return nil
}

func (s *Store) persist(sess *Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "create session dir")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "marshal session")
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return errors.Wrap(err, "write session file")
	}
	return nil
}

func (s *Store) restore() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil || sess.Username == "" {
		s.lg.Warn("discarding malformed session file", zap.String("path", s.path))
		_ = os.Remove(s.path)
		return
	}

	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()
}
