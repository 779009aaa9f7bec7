package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

const (
	lockTimeout = 3 * time.Second
	lockRetry   = 100 * time.Millisecond
)

// FileTokenStore keeps the token in a 0600 file. A sibling ".lock" file
// serializes access between processes.
type FileTokenStore struct {
	path string
	lock *flock.Flock
}

// NewFileTokenStore creates a store for the token file at path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the token file path.
func (s *FileTokenStore) Path() string { return s.path }

func (s *FileTokenStore) withLock(fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := s.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("locking token file: %w", err)
	}
	if !locked {
		return errors.New("could not acquire token file lock")
	}
	defer func() { _ = s.lock.Unlock() }()

	return fn()
}

// Load returns the stored token, or "" if there is none.
func (s *FileTokenStore) Load() (string, error) {
	var token string
	err := s.withLock(func() error {
		data, err := os.ReadFile(s.path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading token file: %w", err)
		}
		token = strings.TrimSpace(string(data))
		return nil
	})
	return token, err
}

// Save replaces the stored token.
func (s *FileTokenStore) Save(token string) error {
	return s.withLock(func() error {
		tmp, err := os.CreateTemp(filepath.Dir(s.path), ".token-*")
		if err != nil {
			return fmt.Errorf("creating temp token file: %w", err)
		}
		defer os.Remove(tmp.Name())

		if err := tmp.Chmod(0o600); err != nil {
			tmp.Close()
			return fmt.Errorf("setting token file mode: %w", err)
		}
		if _, err := tmp.WriteString(token + "\n"); err != nil {
			tmp.Close()
			return fmt.Errorf("writing token file: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("writing token file: %w", err)
		}
		if err := os.Rename(tmp.Name(), s.path); err != nil {
			return fmt.Errorf("replacing token file: %w", err)
		}
		return nil
	})
}

// Clear removes the stored token.
func (s *FileTokenStore) Clear() error {
	return s.withLock(func() error {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing token file: %w", err)
		}
		return nil
	})
}

// MemoryTokenStore keeps the token in memory only.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	return s.Save("")
}
