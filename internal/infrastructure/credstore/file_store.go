// Package credstore persists festctl's session token on disk.
package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"festival-hub/internal/domain"
)

const credentialsFile = "credentials.json"

// Credentials is the on-disk record.
type Credentials struct {
	SessionToken string    `json:"session_token"`
	ServerURL    string    `json:"server_url,omitempty"`
	SavedAt      time.Time `json:"saved_at"`
}

// FileStore implements domain.CredentialStore using a JSON file.
type FileStore struct {
	path string
}

var _ domain.CredentialStore = (*FileStore)(nil)

// NewFileStore creates a store under ~/.festctl.
func NewFileStore() (*FileStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	return NewFileStoreAt(filepath.Join(home, ".festctl"))
}

// NewFileStoreAt creates a store in dir, creating it if needed.
func NewFileStoreAt(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return &FileStore{path: filepath.Join(dir, credentialsFile)}, nil
}

// Path is the credentials file location.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the credentials with owner-only permissions.
func (s *FileStore) Save(creds Credentials) error {
	if creds.SessionToken == "" {
		return errors.New("session token is empty")
	}
	if creds.SavedAt.IsZero() {
		creds.SavedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Load reads the full credentials record.
func (s *FileStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNoStoredCredential
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	if creds.SessionToken == "" {
		return nil, domain.ErrNoStoredCredential
	}
	return &creds, nil
}

// LoadToken returns the stored session token.
func (s *FileStore) LoadToken() (string, error) {
	creds, err := s.Load()
	if err != nil {
		return "", err
	}
	return creds.SessionToken, nil
}

// DeleteToken removes the credentials file. A missing file is not an error.
func (s *FileStore) DeleteToken() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete credentials file: %w", err)
	}
	return nil
}
