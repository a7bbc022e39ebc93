package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"shopfront/src/helpers"
)

// NewUserStore creates a user store. An empty filePath keeps users in memory only.
func NewUserStore(filePath string, encryptionKeyString string) (*UserStore, error) {
	store := &UserStore{
		filePath: filePath,
		users:    []User{},
	}
	if filePath == "" {
		return store, nil
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// AES-256 needs exactly 32 bytes
	encryptionKey := []byte(encryptionKeyString)
	if len(encryptionKey) < 32 {
		paddedKey := make([]byte, 32)
		copy(paddedKey, encryptionKey)
		encryptionKey = paddedKey
	} else if len(encryptionKey) > 32 {
		encryptionKey = encryptionKey[:32]
	}
	store.encryptionKey = encryptionKey

	// Load existing users if the file exists
	if _, err := os.Stat(filePath); err == nil {
		if err := store.Load(); err != nil {
			return nil, fmt.Errorf("failed to load user store: %w", err)
		}
	}

	return store, nil
}

// Save persists the user store to disk. Callers hold s.mu.
func (s *UserStore) Save() error {
	if !s.dirty || s.filePath == "" {
		s.dirty = false
		return nil
	}

	data, err := json.Marshal(s.users)
	if err != nil {
		return fmt.Errorf("failed to marshal users: %w", err)
	}

	encryptedData, err := encrypt(data, s.encryptionKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt data: %w", err)
	}

	if err := helpers.WriteFileAtomic(s.filePath, encryptedData, 0600); err != nil {
		return err
	}

	s.dirty = false
	return nil
}

// Load reads the user store from disk
func (s *UserStore) Load() error {
	encryptedData, err := os.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	data, err := decrypt(encryptedData, s.encryptionKey)
	if err != nil {
		return fmt.Errorf("failed to decrypt data: %w", err)
	}

	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return fmt.Errorf("failed to unmarshal users: %w", err)
	}

	s.users = users
	return nil
}
