// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package random is the single source of randomness for the vault: salts,
// AEAD nonces and opaque identifiers all come from the operating system
// CSPRNG via crypto/rand. There is no seeded or fallback generator; if the
// entropy source fails the process must not continue producing key material,
// so every helper panics with ErrEntropyUnavailable in that case.
package random

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// SaltSize is the length in bytes of KDF salts generated by Salt.
const SaltSize = 32

// entryIDSize is the length in bytes of entry identifiers. 16 bytes keeps
// the full 128 bits of randomness in the id.
const entryIDSize = 16

// ErrEntropyUnavailable reports a failed read from the system entropy
// source. It is delivered via panic, never as a return value: callers are
// not expected to handle it, the process is expected to die.
var ErrEntropyUnavailable = errors.New("entropy source unavailable")

// Bytes returns n cryptographically secure random bytes.
func Bytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Errorf("%w: %v", ErrEntropyUnavailable, err))
	}
	return b
}

// TokenHex returns a hex-encoded random token of nBytes bytes (2*nBytes
// characters).
func TokenHex(nBytes int) string {
	return hex.EncodeToString(Bytes(nBytes))
}

// TokenID returns an opaque identifier for a credential entry: 32 hex
// characters carrying 128 bits of randomness.
func TokenID() string {
	return TokenHex(entryIDSize)
}

// Salt returns a fresh KDF salt of SaltSize bytes.
func Salt() []byte {
	return Bytes(SaltSize)
}

// Nonce returns a fresh AEAD nonce of the given size.
func Nonce(size int) []byte {
	return Bytes(size)
}
