package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
)

// Helper function to encrypt data
func encrypt(data, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	// The nonce is stored in front of the ciphertext.
	return gcm.Seal(nonce, nonce, data, nil), nil
}

// Helper function to decrypt data
func decrypt(data, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// deriveKey is argon2.IDKey, replaceable in tests.
var deriveKey = argon2.IDKey

// unknownUserHash is checked against when the username does not exist, so
// unknown and known users cost the same argon2 work.
var unknownUserHash = PasswordHash{
	Hash:    make([]byte, argonKeyLen),
	Salt:    make([]byte, 16),
	Method:  "argon2id",
	Time:    argonTime,
	Memory:  argonMemory,
	Threads: argonThreads,
	KeyLen:  argonKeyLen,
}

func passwordMatches(password string, stored PasswordHash) bool {
	hash := deriveKey([]byte(password), stored.Salt, stored.Time, stored.Memory, stored.Threads, stored.KeyLen)
	return subtle.ConstantTimeCompare(hash, stored.Hash) == 1
}

// VerifyCredentials checks if the provided credentials are valid
func (s *UserStore) VerifyCredentials(username, password string) (bool, *User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, storedUser := range s.users {
		if storedUser.Username != username {
			continue
		}

		if passwordMatches(password, storedUser.PasswordHash) {
			return true, &User{
				ID:       storedUser.ID,
				Username: storedUser.Username,
			}, nil
		}
		return false, nil, nil
	}

	passwordMatches(password, unknownUserHash)
	return false, nil, nil
}
