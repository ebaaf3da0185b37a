// Package auth obtains Spotify access tokens using the authorization-code and
// refresh-token grants, and persists the refresh token between runs.
package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrTokenExists is returned by Save when a refresh token is already stored.
var ErrTokenExists = errors.New("refresh token already stored")

// TokenStore persists a single refresh token as a plain text file.
// The file is create-only: an existing token is never overwritten.
type TokenStore struct {
	path string
}

// NewTokenStore creates a TokenStore backed by the file at path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the file path where the refresh token is stored.
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the stored refresh token.
// Returns ("", nil) if no token has been stored.
func (s *TokenStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading refresh token file: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

// Save writes the refresh token, creating the parent directory if needed.
// It fails with ErrTokenExists if a token file is already present.
func (s *TokenStore) Save(token string) error {
	if token == "" {
		return errors.New("cannot save empty refresh token")
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating token directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w at %s: %w", ErrTokenExists, s.path, err)
		}
		return fmt.Errorf("creating refresh token file: %w", err)
	}

	if _, err := f.WriteString(token); err != nil {
		f.Close()
		return fmt.Errorf("writing refresh token file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing refresh token file: %w", err)
	}

	return nil
}

// Delete removes the stored refresh token.
// Returns nil if no token is stored.
func (s *TokenStore) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing refresh token file: %w", err)
	}
	return nil
}
