package storage

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const sealedFormatVersion = 1

// ErrWrongSecret is returned when a sealed value cannot be opened with the
// configured secret, or its ciphertext was modified.
var ErrWrongSecret = errors.New("storage: wrong secret or corrupted value")

// ErrScryptParams is returned for a sealed value whose key derivation
// parameters exceed the ones the backend was configured with.
var ErrScryptParams = errors.New("storage: sealed value exceeds configured scrypt parameters")

// ScryptParams tunes key derivation for Sealed.
type ScryptParams struct {
	N, R, P int
}

// DefaultScryptParams are the interactive-login parameters.
func DefaultScryptParams() ScryptParams {
	return ScryptParams{N: 1 << 15, R: 8, P: 1}
}

// sealedBlob is the JSON stored in place of a sealed value.
type sealedBlob struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// SealedOption configures a Sealed wrapper.
type SealedOption func(*Sealed)

// SealKeys restricts encryption to the listed keys. Without it every key is
// sealed.
func SealKeys(keys ...string) SealedOption {
	return func(s *Sealed) {
		if s.keys == nil {
			s.keys = map[string]struct{}{}
		}
		for _, key := range keys {
			s.keys[key] = struct{}{}
		}
	}
}

// WithScryptParams overrides the key derivation cost.
func WithScryptParams(params ScryptParams) SealedOption {
	return func(s *Sealed) {
		s.params = params
	}
}

// Sealed encrypts values before handing them to the wrapped KV. Each value
// gets its own salt and a random XChaCha20-Poly1305 nonce; the key is bound
// as associated data so a blob cannot be moved between keys.
type Sealed struct {
	inner  KV
	secret []byte
	keys   map[string]struct{}
	params ScryptParams
}

// NewSealed wraps inner. secret must not be empty.
func NewSealed(inner KV, secret string, opts ...SealedOption) (*Sealed, error) {
	if inner == nil {
		return nil, errors.New("storage: sealed backend is required")
	}
	if secret == "" {
		return nil, errors.New("storage: sealed secret is required")
	}
	s := &Sealed{inner: inner, secret: []byte(secret), params: DefaultScryptParams()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *Sealed) sealed(key string) bool {
	if s.keys == nil {
		return true
	}
	_, ok := s.keys[key]
	return ok
}

func (s *Sealed) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok || !s.sealed(key) {
		return value, ok, err
	}
	plain, err := s.open(key, value)
	if err != nil {
		return "", false, fmt.Errorf("storage: open %q: %w", key, err)
	}
	return plain, true, nil
}

func (s *Sealed) Set(ctx context.Context, key, value string) error {
	if !s.sealed(key) {
		return s.inner.Set(ctx, key, value)
	}
	blob, err := s.seal(key, value)
	if err != nil {
		return fmt.Errorf("storage: seal %q: %w", key, err)
	}
	return s.inner.Set(ctx, key, blob)
}

func (s *Sealed) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// Clear forwards to the wrapped backend when it supports clearing.
func (s *Sealed) Clear(ctx context.Context) error {
	clearer, ok := s.inner.(Clearer)
	if !ok {
		return errors.New("storage: wrapped backend cannot clear")
	}
	return clearer.Clear(ctx)
}

// Close closes the wrapped backend.
func (s *Sealed) Close() error {
	return Close(s.inner)
}

func (s *Sealed) seal(key, plain string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	aead, err := s.aead(salt, s.params)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out, err := json.Marshal(sealedBlob{
		V:      sealedFormatVersion,
		Salt:   salt,
		N:      s.params.N,
		R:      s.params.R,
		P:      s.params.P,
		Nonce:  nonce,
		Cipher: aead.Seal(nil, nonce, []byte(plain), []byte(key)),
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (s *Sealed) open(key, value string) (string, error) {
	var blob sealedBlob
	if err := json.Unmarshal([]byte(value), &blob); err != nil {
		return "", err
	}
	if blob.V > sealedFormatVersion {
		return "", fmt.Errorf("unsupported sealed version %d", blob.V)
	}
	if blob.N > s.params.N || blob.R > s.params.R || blob.P > s.params.P {
		return "", fmt.Errorf("%w: N=%d r=%d p=%d", ErrScryptParams, blob.N, blob.R, blob.P)
	}
	aead, err := s.aead(blob.Salt, ScryptParams{N: blob.N, R: blob.R, P: blob.P})
	if err != nil {
		return "", err
	}
	if len(blob.Nonce) != aead.NonceSize() {
		return "", ErrWrongSecret
	}
	plain, err := aead.Open(nil, blob.Nonce, blob.Cipher, []byte(key))
	if err != nil {
		return "", ErrWrongSecret
	}
	return string(plain), nil
}

func (s *Sealed) aead(salt []byte, params ScryptParams) (cipher.AEAD, error) {
	key, err := scrypt.Key(s.secret, salt, params.N, params.R, params.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	return chacha20poly1305.NewX(key)
}
