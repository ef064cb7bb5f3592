package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealedPrefix = "sb1:"
	nonceSize    = 24
)

// ErrUnsealable is returned when a sealed value fails authentication.
var ErrUnsealable = errors.New("sealed value cannot be opened")

// Sealer encrypts stored credentials with NaCl secretbox. A Sealer built from
// an empty key passes values through unchanged.
type Sealer struct {
	key     *[32]byte
	entropy io.Reader
}

// NewSealer derives the box key from secret. Any non-empty secret is accepted;
// it is hashed down to 32 bytes.
func NewSealer(secret string) *Sealer {
	s := &Sealer{entropy: rand.Reader}
	if strings.TrimSpace(secret) == "" {
		return s
	}
	key := sha256.Sum256([]byte(secret))
	s.key = &key
	return s
}

// Enabled reports whether values are actually encrypted.
func (s *Sealer) Enabled() bool {
	return s != nil && s.key != nil
}

// Seal encrypts plaintext. Empty input stays empty.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if !s.Enabled() || plaintext == "" {
		return plaintext, nil
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(s.entropy, nonce[:]); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, s.key)
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(box), nil
}

// Open reverses Seal. Values without the sealed prefix are returned as is so
// rows written before a key was configured keep working.
func (s *Sealer) Open(value string) (string, error) {
	if !strings.HasPrefix(value, sealedPrefix) {
		return value, nil
	}
	if !s.Enabled() {
		return "", fmt.Errorf("%w: no key configured", ErrUnsealable)
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrUnsealable
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, s.key)
	if !ok {
		return "", ErrUnsealable
	}
	return string(plain), nil
}

// SealPtr is Seal for optional columns.
func (s *Sealer) SealPtr(plaintext *string) (*string, error) {
	if plaintext == nil {
		return nil, nil
	}
	out, err := s.Seal(*plaintext)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// OpenPtr is Open for optional columns.
func (s *Sealer) OpenPtr(value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	out, err := s.Open(*value)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
