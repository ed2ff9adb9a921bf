package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// ErrUnseal is returned when a sealed value cannot be opened: wrong key,
// truncated data or tampering.
var ErrUnseal = errors.New("auth: cannot open sealed value")

// Sealer encrypts provider access tokens at rest with NaCl secretbox
// (XSalsa20-Poly1305). The stored form is nonce || box.
type Sealer struct {
	key [32]byte
}

// NewSealer derives the 32-byte secretbox key from secret with SHA-256.
func NewSealer(secret string) (*Sealer, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: sealing key must be at least 16 characters")
	}
	return &Sealer{key: sha256.Sum256([]byte(secret))}, nil
}

// Seal encrypts plaintext under a fresh random nonce.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("auth: generating nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &s.key), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrUnseal
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrUnseal
	}
	return plain, nil
}
