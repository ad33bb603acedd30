// Package credstore persists the API token between runs so the
// operator does not re-enter it on every start.
package credstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	dirName  = "tablecrm"
	fileName = "tablecrm_token"
)

// Store is a file-backed token store rooted at a single directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir. When dir is empty the store
// roots itself under the user config directory.
func New(dir string) (*Store, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		dir = filepath.Join(base, dirName)
	}
	return &Store{dir: dir}, nil
}

// Path returns the token file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, fileName)
}

// Save writes the token to disk. The containing directory is created
// on demand with owner-only permissions.
func (s *Store) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is empty")
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.Path(), []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Load reads the stored token. A missing file is not an error and
// yields an empty token.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Clear removes the stored token. Clearing an absent token is a
// no-op.
func (s *Store) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
