// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import (
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
)

// ErrNoKey is returned when key material is requested from a destroyed or
// empty SessionKey.
var ErrNoKey = errors.New("no key material available")

// SessionKey owns the symmetric key of an unlocked vault session. The key is
// held in a memguard enclave: encrypted at rest in process memory and only
// decrypted into a guarded buffer for the duration of a WithKey call.
type SessionKey struct {
	enclave *memguard.Enclave
}

// NewSessionKey seals raw key bytes into an enclave. memguard wipes the
// input slice as part of sealing; callers must not reuse it.
func NewSessionKey(raw []byte) *SessionKey {
	if len(raw) == 0 {
		return &SessionKey{}
	}
	return &SessionKey{enclave: memguard.NewEnclave(raw)}
}

// WithKey decrypts the enclave and passes the key bytes to fn. The guarded
// buffer is destroyed when fn returns; fn must not retain the slice.
func (k *SessionKey) WithKey(fn func(key []byte) error) error {
	if k == nil || k.enclave == nil {
		return ErrNoKey
	}
	buf, err := k.enclave.Open()
	if err != nil {
		return fmt.Errorf("open session key: %w", err)
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

// Destroy drops the key material. Subsequent WithKey calls fail with
// ErrNoKey.
func (k *SessionKey) Destroy() {
	if k == nil {
		return
	}
	k.enclave = nil
}

// Live reports whether the key still holds material.
func (k *SessionKey) Live() bool { return k != nil && k.enclave != nil }
