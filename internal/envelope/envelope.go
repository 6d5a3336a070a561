// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package envelope seals and opens the encrypted payloads stored for each
// credential entry. Sealing uses ChaCha20-Poly1305 with a fresh random
// 96-bit nonce per call; the associated data binds every envelope to its
// entry and field so ciphertexts cannot be swapped around the database
// without detection.
package envelope

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/strongroom-io/strongroom/internal/random"
)

// ErrAuthentication is returned whenever an envelope cannot be opened:
// wrong key, wrong associated data, a flipped bit anywhere in the payload,
// or a structurally malformed envelope. The failure modes are deliberately
// indistinguishable and no partial plaintext is ever returned.
var ErrAuthentication = errors.New("envelope authentication failed")

const (
	// KeySize is the AEAD key length in bytes.
	KeySize = chacha20poly1305.KeySize
	// NonceSize is the AEAD nonce length in bytes (96 bits).
	NonceSize = chacha20poly1305.NonceSize
)

// Envelope is one sealed payload: the nonce it was sealed under and the
// ciphertext with the authentication tag appended.
type Envelope struct {
	Nonce      []byte
	Ciphertext []byte
}

// AD builds the associated data binding an envelope to one field of one
// entry. Opening with any other entry id or field name fails.
func AD(entryID, field string) []byte {
	return []byte(entryID + ":" + field)
}

// Seal encrypts plaintext under key with a fresh random nonce, binding ad
// into the authentication tag.
func Seal(key, plaintext, ad []byte) (Envelope, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return Envelope{}, fmt.Errorf("envelope: %w", err)
	}
	nonce := random.Nonce(NonceSize)
	return Envelope{
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, plaintext, ad),
	}, nil
}

// Open decrypts an envelope sealed with Seal. Every integrity failure is
// reported as ErrAuthentication.
func Open(key []byte, env Envelope, ad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	if len(env.Nonce) != NonceSize {
		return nil, ErrAuthentication
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, ad)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

// Marshal renders the storage format: a one-byte nonce length, the nonce,
// then the ciphertext with its tag.
func (e Envelope) Marshal() []byte {
	out := make([]byte, 0, 1+len(e.Nonce)+len(e.Ciphertext))
	out = append(out, byte(len(e.Nonce)))
	out = append(out, e.Nonce...)
	out = append(out, e.Ciphertext...)
	return out
}

// Unmarshal parses the format produced by Marshal. Malformed input is an
// authentication failure: a truncated or corrupted envelope must fail
// closed exactly like a tampered one.
func Unmarshal(raw []byte) (Envelope, error) {
	if len(raw) < 1 {
		return Envelope{}, ErrAuthentication
	}
	n := int(raw[0])
	if n == 0 || len(raw) < 1+n+chacha20poly1305.Overhead {
		return Envelope{}, ErrAuthentication
	}
	nonce := make([]byte, n)
	copy(nonce, raw[1:1+n])
	ciphertext := make([]byte, len(raw)-1-n)
	copy(ciphertext, raw[1+n:])
	return Envelope{Nonce: nonce, Ciphertext: ciphertext}, nil
}

// SealBytes seals plaintext and returns the marshaled envelope, the form
// the store persists.
func SealBytes(key, plaintext, ad []byte) ([]byte, error) {
	env, err := Seal(key, plaintext, ad)
	if err != nil {
		return nil, err
	}
	return env.Marshal(), nil
}

// OpenBytes parses a marshaled envelope and opens it.
func OpenBytes(key, raw, ad []byte) ([]byte, error) {
	env, err := Unmarshal(raw)
	if err != nil {
		return nil, err
	}
	return Open(key, env, ad)
}
