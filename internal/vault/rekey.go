// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/strongroom-io/strongroom/internal/envelope"
	"github.com/strongroom-io/strongroom/internal/kdf"
	"github.com/strongroom-io/strongroom/internal/model"
	"github.com/strongroom-io/strongroom/internal/random"
	"github.com/strongroom-io/strongroom/internal/security"
)

// ChangePassphrase re-keys the vault under a new passphrase: every envelope
// is opened with the old key and resealed with the new one, and the identity
// row gets a fresh salt and verifier. The database switch is a single
// transaction; on any failure the vault stays fully on the old passphrase.
// Requires an unlocked session and confirmation of the current passphrase.
func (s *Session) ChangePassphrase(ctx context.Context, current, next []byte) error {
	if len(next) == 0 {
		return fmt.Errorf("new passphrase required")
	}

	// Entry operations drain before the rekey starts and stay out until it
	// finishes, so no envelope sealed with the old key can land after the
	// switch.
	s.rekeyGate.Lock()
	defer s.rekeyGate.Unlock()

	s.mu.RLock()
	if s.state != Unlocked || s.key == nil || s.identity == nil {
		s.mu.RUnlock()
		return ErrVaultLocked
	}
	oldKey := s.key
	identity := *s.identity
	s.mu.RUnlock()
	s.resetIdle()

	// Confirm the current passphrase before touching anything.
	confirmKey, _, err := s.auth.Verify(ctx, identity.Username, current)
	if err != nil {
		return err
	}
	confirmKey.Destroy()

	// Fresh salt and the current default parameters, so a passphrase change
	// doubles as a work-factor upgrade.
	params := s.auth.Params()
	salt := random.Salt()
	verifier, err := kdf.Derive(ctx, next, salt, kdf.PurposeVerification, params)
	if err != nil {
		return err
	}
	newRaw, err := kdf.Derive(ctx, next, salt, kdf.PurposeEncryption, params)
	if err != nil {
		return err
	}

	entries, err := s.store.GetAllEntries()
	if err != nil {
		security.WipeBytes(newRaw)
		return err
	}

	now := s.clock.Now().UTC()
	rekeyed := make([]model.CredentialEntry, 0, len(entries))
	err = oldKey.WithKey(func(oldRaw []byte) error {
		for i := range entries {
			e := entries[i]
			if err := rekeyEntry(&e, oldRaw, newRaw); err != nil {
				return fmt.Errorf("re-key entry %s: %w", e.ID, err)
			}
			e.UpdatedAt = now
			rekeyed = append(rekeyed, e)
		}
		return nil
	})
	if err != nil {
		security.WipeBytes(newRaw)
		if errors.Is(err, security.ErrNoKey) {
			return ErrVaultLocked
		}
		return err
	}

	identity.Salt = salt
	identity.Verifier = verifier
	identity.KDFParams = params.String()
	identity.UpdatedAt = now

	if err := s.store.ReplaceAllEntries(&identity, rekeyed); err != nil {
		security.WipeBytes(newRaw)
		return err
	}

	newKey := security.NewSessionKey(newRaw)
	s.mu.Lock()
	s.key = newKey
	s.identity = &identity
	s.mu.Unlock()
	oldKey.Destroy()
	return nil
}

// rekeyEntry reseals every envelope of e from oldRaw to newRaw. The
// associated data is unchanged because the entry keeps its id.
func rekeyEntry(e *model.CredentialEntry, oldRaw, newRaw []byte) error {
	reseal := func(env []byte, field string) ([]byte, error) {
		plain, err := envelope.OpenBytes(oldRaw, env, envelope.AD(e.ID, field))
		if err != nil {
			return nil, err
		}
		defer security.WipeBytes(plain)
		return envelope.SealBytes(newRaw, plain, envelope.AD(e.ID, field))
	}

	var err error
	if e.UsernameEnvelope, err = reseal(e.UsernameEnvelope, fieldUsername); err != nil {
		return err
	}
	if e.HasContact() {
		if e.ContactEnvelope, err = reseal(e.ContactEnvelope, fieldContact); err != nil {
			return err
		}
	}
	if e.SecretEnvelope, err = reseal(e.SecretEnvelope, fieldSecret); err != nil {
		return err
	}
	return nil
}
