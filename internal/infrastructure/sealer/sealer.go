package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"
)

// MinSecretLen is the minimum length in bytes of the configured secret,
// matching the 256-bit key the AEAD requires.
const MinSecretLen = 32

// hkdfInfo binds the derived key to this use so the same secret reused
// elsewhere never yields the same key material.
const hkdfInfo = "ums-cookie-sealer"

var (
	// ErrInvalid covers every unseal failure caused by malformed input,
	// a failed authentication tag, or a mismatched key. Callers must not
	// be able to tell those cases apart.
	ErrInvalid = errors.New("sealed value invalid")

	// ErrExpired is returned when a sealed value authenticates but its
	// embedded expiry has passed.
	ErrExpired = errors.New("sealed value expired")
)

// Sealer encrypts small JSON payloads into opaque cookie-safe strings using
// AES-256-GCM. It is immutable after construction and safe for concurrent use.
type Sealer struct {
	aead cipher.AEAD
}

// envelope wraps the caller's payload with issued-at and expiry claims so a
// captured ciphertext cannot be replayed past the cookie's intended lifetime.
type envelope struct {
	IssuedAt  int64           `json:"iat"`
	ExpiresAt int64           `json:"exp"`
	Data      json.RawMessage `json:"data"`
}

// New derives a 256-bit key from secret via HKDF-SHA256 and returns a ready
// Sealer. It refuses secrets shorter than MinSecretLen; a missing secret is a
// configuration error the process must not start with.
func New(secret string) (*Sealer, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("cookie secret must be at least %d bytes, got %d", MinSecretLen, len(secret))
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal serializes v, stamps it with issued-at and expiry claims, and encrypts
// it under a fresh random nonce. The nonce is prepended to the ciphertext and
// the result is base64url-encoded so it is safe as a raw cookie value.
func (s *Sealer) Seal(v any, ttl time.Duration) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	now := time.Now()
	plain, err := json.Marshal(envelope{
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
		Data:      data,
	})
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, plain, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Unseal decrypts and authenticates a value produced by Seal and unmarshals
// its payload into v. Tampered, truncated, or foreign-key values all fail
// with the same ErrInvalid; an authentic value past its expiry fails with
// ErrExpired. Both are recoverable and mean "no session" to callers.
func (s *Sealer) Unseal(value string, v any) error {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return ErrInvalid
	}
	nonceSize := s.aead.NonceSize()
	if len(raw) < nonceSize {
		return ErrInvalid
	}
	plain, err := s.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return ErrInvalid
	}
	var env envelope
	if err := json.Unmarshal(plain, &env); err != nil {
		return ErrInvalid
	}
	if env.ExpiresAt != 0 && time.Now().Unix() > env.ExpiresAt {
		return ErrExpired
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return ErrInvalid
	}
	return nil
}
