// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package cli implements the Strongroom command-line interface: identity
// registration, the interactive vault shell, one-shot entry commands and the
// operational commands (audit, backup, restore, db-maintain).
//
// Every command that touches credentials unlocks a vault.Session first and
// locks it again before returning, so key material lives exactly as long as
// the operation that needs it.
package cli
