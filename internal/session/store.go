// Package session persists the single cached session record that
// identifies the logged-in user across restarts.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"expensetrack/internal/core"
	"expensetrack/internal/log"
)

// Store holds the current session in memory and mirrors it to a single
// JSON file. At most one session is active at a time; Set always
// replaces, never merges.
type Store struct {
	mu      sync.Mutex
	path    string
	current *core.Session
	logger  *log.Logger
}

func NewStore(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Store{path: path, logger: logger.WithComponent(log.ComponentSession)}
}

// Restore reads the persisted session record. A missing or corrupt file
// is treated as "no session", never as an error: the user just has to log
// in again.
func (s *Store) Restore() (core.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Session file unreadable, starting anonymous", log.FieldError, err.Error())
		}
		return core.Session{}, false
	}
	var sess core.Session
	if err := json.Unmarshal(data, &sess); err != nil || sess.ID == "" || sess.Username == "" {
		s.logger.Warn("Session file corrupt, starting anonymous", log.FieldPath, s.path)
		return core.Session{}, false
	}
	s.current = &sess
	return sess, true
}

// Set persists the session and holds it in memory. The file write happens
// first via a temp file and rename; memory is only updated once the
// persisted copy is in place, so the two never disagree after success.
func (s *Store) Set(sess core.Session) error {
	if sess.ID == "" || sess.Username == "" {
		return fmt.Errorf("refusing to persist partial session")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace session file: %w", err)
	}
	s.current = &sess
	return nil
}

// Clear removes the persisted record and the in-memory session together.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	s.current = nil
	return nil
}

// Current returns the in-memory session, if any.
func (s *Store) Current() (core.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return core.Session{}, false
	}
	return *s.current, true
}
