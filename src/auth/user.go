package auth

import (
	"crypto/rand"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/argon2"
)

type PasswordHash struct {
	Hash    []byte `json:"hash"`
	Salt    []byte `json:"salt"`
	Method  string `json:"method"`  // "argon2id"
	Time    uint32 `json:"time"`    // time parameter for Argon2
	Memory  uint32 `json:"memory"`  // memory parameter in KiB
	Threads uint8  `json:"threads"` // threads parameter
	KeyLen  uint32 `json:"keylen"`  // length of the hash in bytes
}

type User struct {
	ID             string       `json:"id"`
	Username       string       `json:"username"`
	PasswordHash   PasswordHash `json:"password_hash"`
	CreatedAt      time.Time    `json:"created_at"`
	LastModifiedAt time.Time    `json:"last_modified_at"`
}

type NewUser struct {
	ID       string
	Username string
	Password string
}

// UserStore manages secure storage of user credentials
type UserStore struct {
	encryptionKey []byte       // Key used to encrypt the storage file
	filePath      string       // Path to the storage file, empty for memory only
	users         []User       // In-memory cache of users
	mu            sync.RWMutex // Mutex for thread safety
	dirty         bool         // Whether the store has unsaved changes
}

// Argon2id parameters recommended by OWASP.
const (
	argonTime    = uint32(1)
	argonMemory  = uint32(64 * 1024)
	argonThreads = uint8(4)
	argonKeyLen  = uint32(32)
)

func hashPassword(password string) (PasswordHash, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return PasswordHash{}, fmt.Errorf("failed to generate salt: %w", err)
	}

	return PasswordHash{
		Hash:    argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen),
		Salt:    salt,
		Method:  "argon2id",
		Time:    argonTime,
		Memory:  argonMemory,
		Threads: argonThreads,
		KeyLen:  argonKeyLen,
	}, nil
}

// GetUser retrieves a user by username, without the password hash.
func (s *UserStore) GetUser(username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, storedUser := range s.users {
		if storedUser.Username == username {
			return &User{
				ID:             storedUser.ID,
				Username:       storedUser.Username,
				CreatedAt:      storedUser.CreatedAt,
				LastModifiedAt: storedUser.LastModifiedAt,
			}, nil
		}
	}

	return nil, ErrUserNotFound
}

// ListUsers returns all usernames in sorted order.
func (s *UserStore) ListUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usernames := make([]string, len(s.users))
	for i, user := range s.users {
		usernames[i] = user.Username
	}
	sort.Strings(usernames)
	return usernames
}

// AddUser adds a new user to the store
func (s *UserStore) AddUser(user NewUser) error {
	if user.Username == "" || user.Password == "" {
		return ErrInvalidUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existingUser := range s.users {
		if existingUser.Username == user.Username {
			return ErrUserAlreadyExists
		}
	}

	hash, err := hashPassword(user.Password)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	s.users = append(s.users, User{
		ID:             user.ID,
		Username:       user.Username,
		PasswordHash:   hash,
		CreatedAt:      now,
		LastModifiedAt: now,
	})
	s.dirty = true

	return s.Save()
}

// UpdateUser replaces the password of an existing user
func (s *UserStore) UpdateUser(updatedUser NewUser) error {
	if updatedUser.Password == "" {
		return ErrInvalidUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existingUser := range s.users {
		if existingUser.Username == updatedUser.Username {
			hash, err := hashPassword(updatedUser.Password)
			if err != nil {
				return err
			}

			s.users[i].PasswordHash = hash
			s.users[i].LastModifiedAt = time.Now().UTC()
			s.dirty = true

			return s.Save()
		}
	}

	return ErrUserNotFound
}

// RemoveUser removes a user from the store
func (s *UserStore) RemoveUser(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existingUser := range s.users {
		if existingUser.Username == username {
			s.users = append(s.users[:i], s.users[i+1:]...)
			s.dirty = true

			return s.Save()
		}
	}

	return ErrUserNotFound
}

// Count returns the number of users.
func (s *UserStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
