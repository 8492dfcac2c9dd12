// Package vault encrypts per-identity tracker secrets at rest.
//
// The encryption key is derived once per process from a configured
// passphrase and a randomly generated salt persisted next to the database
// with owner-only permissions. Losing the salt file invalidates every
// stored secret; that is an accepted operational risk and there is no
// fallback to a fixed salt.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize  = 16
	kdfRounds = 100_000
	keySize   = 32
)

// ErrDecryption is returned when a ciphertext is malformed, was tampered
// with, or was produced with different key material. Tampering is detected
// by the GCM authentication tag; corrupted plaintext is never returned.
var ErrDecryption = errors.New("cannot decrypt: ciphertext malformed or key material mismatch")

// Vault performs authenticated symmetric encryption of credential secrets.
type Vault struct {
	aead cipher.AEAD
}

// New derives the encryption key from the passphrase and the salt stored at
// saltPath, creating the salt file (0600) on first use.
func New(passphrase, saltPath string) (*Vault, error) {
	if passphrase == "" {
		return nil, errors.New("encryption passphrase not configured")
	}

	salt, err := loadOrCreateSalt(saltPath)
	if err != nil {
		return nil, err
	}

	key := pbkdf2.Key([]byte(passphrase), salt, kdfRounds, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	return &Vault{aead: aead}, nil
}

// Encrypt seals the secret and returns a base64-encoded string containing
// the nonce prepended to the ciphertext and authentication tag.
func (v *Vault) Encrypt(secret string) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	sealed := v.aead.Seal(nonce, nonce, []byte(secret), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Any failure, including a
// failed authentication tag check, is reported as ErrDecryption.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	nonceSize := v.aead.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryption)
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	return string(plaintext), nil
}

// loadOrCreateSalt reads the persisted salt, generating and storing a fresh
// one with owner-only permissions when the file does not exist yet.
func loadOrCreateSalt(path string) ([]byte, error) {
	salt, err := os.ReadFile(path)
	if err == nil {
		if len(salt) != saltSize {
			return nil, fmt.Errorf("salt file %s has %d bytes, want %d", path, len(salt), saltSize)
		}
		return salt, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read salt file: %w", err)
	}

	salt = make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	if err := os.WriteFile(path, salt, 0o600); err != nil {
		return nil, fmt.Errorf("write salt file: %w", err)
	}

	return salt, nil
}
