package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/scrypt"
)

// Well-known keys. Tokens and the role survive restarts; the otp* keys are
// transient onboarding state cleared once verification completes.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserRole     = "userRole"
	KeySessionID    = "sessionId"
	KeyOTPFlow      = "otpFlow"
	KeyAttemptsLeft = "attemptsLeft"
	KeyExpiresAt    = "expiresAt"
)

// ErrKeyNotFound is returned by Get for absent keys.
var ErrKeyNotFound = errors.New("keystore: key not found")

const saltSize = 16

// Store is an encrypted key-value store backed by a single file. Values are
// held decrypted in memory; every mutation rewrites the file atomically.
// The file layout is salt || nonce || AES-256-GCM(ciphertext).
type Store struct {
	mu     sync.Mutex
	path   string
	salt   []byte
	aead   cipher.AEAD
	values map[string]string
}

// Open loads the store at path, creating it on first use. The encryption key
// is derived from the passphrase with scrypt using a per-file random salt.
func Open(path, passphrase string) (*Store, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("keystore: passphrase must not be empty")
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		salt := make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, fmt.Errorf("keystore: generate salt: %w", err)
		}
		aead, err := deriveAEAD(passphrase, salt)
		if err != nil {
			return nil, err
		}
		return &Store{path: path, salt: salt, aead: aead, values: map[string]string{}}, nil
	case err != nil:
		return nil, fmt.Errorf("keystore: read %s: %w", path, err)
	}

	if len(raw) < saltSize {
		return nil, fmt.Errorf("keystore: %s is truncated", path)
	}
	salt := raw[:saltSize]
	aead, err := deriveAEAD(passphrase, salt)
	if err != nil {
		return nil, err
	}

	box := raw[saltSize:]
	if len(box) < aead.NonceSize() {
		return nil, fmt.Errorf("keystore: %s is truncated", path)
	}
	nonce, ciphertext := box[:aead.NonceSize()], box[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("keystore: decrypt %s: %w", path, err)
	}

	values := map[string]string{}
	if err := json.Unmarshal(plaintext, &values); err != nil {
		return nil, fmt.Errorf("keystore: decode %s: %w", path, err)
	}
	return &Store{path: path, salt: salt, aead: aead, values: values}, nil
}

func deriveAEAD(passphrase string, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("keystore: derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("keystore: create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("keystore: create GCM: %w", err)
	}
	return aead, nil
}

// Get returns the value stored under key, or ErrKeyNotFound.
func (s *Store) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

// Set stores value under key and persists the store before returning.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.persist()
}

// Delete removes key if present. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.persist()
}

// Keys returns the currently stored key names.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// persist encrypts the value map and replaces the backing file atomically.
// Callers must hold s.mu.
func (s *Store) persist() error {
	plaintext, err := json.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("keystore: encode values: %w", err)
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("keystore: generate nonce: %w", err)
	}

	// The nonce is prepended to the ciphertext so it can be used during decryption.
	ciphertext := s.aead.Seal(nil, nonce, plaintext, nil)
	sealed := make([]byte, 0, saltSize+len(nonce)+len(ciphertext))
	sealed = append(sealed, s.salt...)
	sealed = append(sealed, nonce...)
	sealed = append(sealed, ciphertext...)

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("keystore: create dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("keystore: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("keystore: replace %s: %w", s.path, err)
	}
	return nil
}
