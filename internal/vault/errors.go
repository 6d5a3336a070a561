// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package vault

import "errors"

var (
	// ErrDuplicateIdentity is returned by Register when the username or the
	// email is already taken. Callers get one error for both cases.
	ErrDuplicateIdentity = errors.New("username or email already registered")

	// ErrAuthFailed is the uniform authentication failure: unknown username
	// and wrong passphrase are deliberately indistinguishable.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrVaultLocked is returned by any session operation that requires an
	// unlocked vault.
	ErrVaultLocked = errors.New("vault is locked")

	// ErrAlreadyUnlocked is returned by Unlock when the session already
	// holds a key.
	ErrAlreadyUnlocked = errors.New("vault is already unlocked")

	// ErrBackupCorrupt is returned when a backup container cannot be
	// decrypted (wrong passphrase or tampering) or fails its checksum.
	ErrBackupCorrupt = errors.New("backup could not be decrypted or failed verification")
)
