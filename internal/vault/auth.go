// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/strongroom-io/strongroom/internal/db"
	"github.com/strongroom-io/strongroom/internal/kdf"
	"github.com/strongroom-io/strongroom/internal/model"
	"github.com/strongroom-io/strongroom/internal/random"
	"github.com/strongroom-io/strongroom/internal/security"
)

// Authenticator registers master identities and verifies passphrases.
// Verification is the only code path that turns a passphrase into the vault
// encryption key; the key never exists outside a SessionKey enclave.
type Authenticator struct {
	store  db.Store
	params kdf.Params
}

// NewAuthenticator returns an Authenticator that derives keys with the given
// parameters. Invalid parameters are replaced with the defaults.
func NewAuthenticator(store db.Store, params kdf.Params) *Authenticator {
	if err := params.Validate(); err != nil {
		params = kdf.DefaultParams()
	}
	return &Authenticator{store: store, params: params}
}

// Register creates a new master identity. The passphrase is stretched into a
// verification key; the passphrase itself is never persisted. Returns
// ErrDuplicateIdentity when the username or email is already registered.
func (a *Authenticator) Register(ctx context.Context, username, email string, passphrase []byte) (*model.MasterIdentity, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" {
		return nil, fmt.Errorf("username required")
	}
	if email == "" {
		return nil, fmt.Errorf("email required")
	}
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("passphrase required")
	}

	// Pre-checks give a friendly error before burning KDF time; the unique
	// constraints remain the real guard against races.
	if _, err := a.store.GetMasterIdentity(username); err == nil {
		return nil, ErrDuplicateIdentity
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}
	if _, err := a.store.GetMasterIdentityByEmail(email); err == nil {
		return nil, ErrDuplicateIdentity
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	salt := random.Salt()
	verifier, err := kdf.Derive(ctx, passphrase, salt, kdf.PurposeVerification, a.params)
	if err != nil {
		return nil, err
	}

	now := defaultClock.Now().UTC()
	identity := &model.MasterIdentity{
		Username:  username,
		Email:     email,
		Salt:      salt,
		Verifier:  verifier,
		KDFParams: a.params.String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := a.store.SaveMasterIdentity(identity); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrDuplicateIdentity
		}
		return nil, err
	}
	return identity, nil
}

// Verify checks a passphrase against the stored verifier and, on success,
// derives the encryption key into a SessionKey. Unknown usernames and wrong
// passphrases both return ErrAuthFailed; storage failures pass through.
func (a *Authenticator) Verify(ctx context.Context, username string, passphrase []byte) (*security.SessionKey, *model.MasterIdentity, error) {
	identity, err := a.store.GetMasterIdentity(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil, ErrAuthFailed
		}
		return nil, nil, err
	}

	// Each identity carries the parameters it was registered with, so older
	// vaults keep verifying after the defaults change.
	params, err := kdf.Parse(identity.KDFParams)
	if err != nil {
		return nil, nil, fmt.Errorf("stored kdf parameters: %w", err)
	}

	derived, err := kdf.Derive(ctx, passphrase, identity.Salt, kdf.PurposeVerification, params)
	if err != nil {
		return nil, nil, err
	}
	match := subtle.ConstantTimeCompare(derived, identity.Verifier) == 1
	security.WipeBytes(derived)
	if !match {
		return nil, nil, ErrAuthFailed
	}

	encKey, err := kdf.Derive(ctx, passphrase, identity.Salt, kdf.PurposeEncryption, params)
	if err != nil {
		return nil, nil, err
	}
	return security.NewSessionKey(encKey), identity, nil
}

// Params returns the derivation parameters used for new registrations.
func (a *Authenticator) Params() kdf.Params { return a.params }
