// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package kdf stretches the master passphrase into fixed-length key
// material. Derivation is Argon2id (memory-hard, deliberately slow)
// followed by an HKDF-SHA256 expansion that binds the output to a purpose
// label, so the verification artifact stored in the database and the
// encryption key protecting envelopes are unrelated values even though they
// come from the same passphrase and salt.
package kdf

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"github.com/strongroom-io/strongroom/internal/security"
)

// Purpose selects the domain a derived key is valid for. Distinct purposes
// yield unrelated keys from the same passphrase and salt.
type Purpose string

const (
	// PurposeEncryption derives the key that seals and opens entry envelopes.
	PurposeEncryption Purpose = "strongroom/key/encryption/v1"
	// PurposeVerification derives the artifact stored to authenticate the
	// master passphrase.
	PurposeVerification Purpose = "strongroom/key/verification/v1"
)

// algorithm is the only KDF this package encodes. The stored parameter
// string carries it so a future algorithm change stays detectable.
const algorithm = "argon2id"

// Params are the Argon2id work factors for a derivation. They are persisted
// per identity (see String and Parse), so raising the defaults for new
// registrations never breaks unlocking an existing vault.
type Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
}

// DefaultParams returns the work factors applied to new registrations:
// 3 passes over 64 MiB on 4 lanes, producing a 32-byte key.
func DefaultParams() Params {
	return Params{Time: 3, MemoryKiB: 64 * 1024, Threads: 4, KeyLen: 32}
}

// Validate rejects parameter sets too weak to credibly slow an attacker.
func (p Params) Validate() error {
	if p.Time == 0 {
		return errors.New("kdf: time parameter must be at least 1")
	}
	if p.MemoryKiB < 8*1024 {
		return fmt.Errorf("kdf: memory parameter %d KiB is below the 8 MiB floor", p.MemoryKiB)
	}
	if p.Threads == 0 {
		return errors.New("kdf: parallelism parameter must be at least 1")
	}
	if p.KeyLen < 16 {
		return fmt.Errorf("kdf: key length %d is below the 16 byte floor", p.KeyLen)
	}
	return nil
}

// String encodes the parameters for storage, e.g. "argon2id:t=3,m=65536,p=4,l=32".
func (p Params) String() string {
	return fmt.Sprintf("%s:t=%d,m=%d,p=%d,l=%d", algorithm, p.Time, p.MemoryKiB, p.Threads, p.KeyLen)
}

// Parse decodes a stored parameter string produced by String.
func Parse(encoded string) (Params, error) {
	algo, rest, ok := strings.Cut(encoded, ":")
	if !ok || algo != algorithm {
		return Params{}, fmt.Errorf("kdf: unsupported parameter encoding %q", encoded)
	}

	var p Params
	for _, field := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return Params{}, fmt.Errorf("kdf: malformed parameter field %q", field)
		}
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return Params{}, fmt.Errorf("kdf: malformed parameter value %q: %w", field, err)
		}
		switch key {
		case "t":
			p.Time = uint32(n)
		case "m":
			p.MemoryKiB = uint32(n)
		case "p":
			if n > 255 {
				return Params{}, fmt.Errorf("kdf: parallelism %d out of range", n)
			}
			p.Threads = uint8(n)
		case "l":
			p.KeyLen = uint32(n)
		default:
			return Params{}, fmt.Errorf("kdf: unknown parameter key %q", key)
		}
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Derive stretches passphrase and salt into key material bound to purpose.
// It is deterministic: identical inputs always produce identical output.
//
// The Argon2id pass runs in its own goroutine so the call honors ctx
// cancellation; the computation itself cannot be interrupted, so on
// cancellation the eventual output is wiped without ever being returned.
// The intermediate master secret is wiped in every path.
func Derive(ctx context.Context, passphrase, salt []byte, purpose Purpose, p Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(salt) == 0 {
		return nil, errors.New("kdf: empty salt")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch := make(chan []byte, 1)
	go func() {
		ch <- argon2.IDKey(passphrase, salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLen)
	}()

	select {
	case <-ctx.Done():
		go func() {
			security.WipeBytes(<-ch)
		}()
		return nil, ctx.Err()
	case master := <-ch:
		defer security.WipeBytes(master)
		return expand(master, purpose, p.KeyLen)
	}
}

// expand binds the stretched master secret to a purpose with HKDF-SHA256.
// No extra salt is fed to HKDF; the Argon2id input is already salted.
func expand(master []byte, purpose Purpose, keyLen uint32) ([]byte, error) {
	out := make([]byte, keyLen)
	r := hkdf.New(sha256.New, master, nil, []byte(purpose))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("kdf: expand: %w", err)
	}
	return out, nil
}
