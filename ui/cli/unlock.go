// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// unlock.go holds the session plumbing shared by every command that needs an
// unlocked vault: username resolution, the passphrase prompt and the KDF
// spinner around Unlock.

package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strongroom-io/strongroom/internal/config"
	"github.com/strongroom-io/strongroom/internal/db"
	"github.com/strongroom-io/strongroom/internal/i18n"
	"github.com/strongroom-io/strongroom/internal/kdf"
	"github.com/strongroom-io/strongroom/internal/security"
	"github.com/strongroom-io/strongroom/internal/vault"
)

// kdfParamsFromConfig maps the configured work factors onto derivation
// parameters. Unusable values fall back to the defaults; existing identities
// keep the parameters they were registered with either way.
func kdfParamsFromConfig(cfg config.Config) kdf.Params {
	params := kdf.Params{
		Time:      cfg.KDF.Time,
		MemoryKiB: cfg.KDF.MemoryMiB * 1024,
		Threads:   cfg.KDF.Parallelism,
		KeyLen:    32,
	}
	if err := params.Validate(); err != nil {
		return kdf.DefaultParams()
	}
	return params
}

func newVaultSession(store db.Store) *vault.Session {
	auth := vault.NewAuthenticator(store, kdfParamsFromConfig(appConfig))
	return vault.NewSession(store, auth, appConfig.Session.IdleTimeoutOrDefault())
}

// resolveUsername picks the identity to unlock as: the --user flag if given,
// otherwise the registered identity. Errors when nothing is registered yet.
func resolveUsername(cmd *cobra.Command) (string, error) {
	if cmd.Flags().Lookup("user") != nil && cmd.Flags().Changed("user") {
		username, err := cmd.Flags().GetString("user")
		if err == nil && strings.TrimSpace(username) != "" {
			return strings.TrimSpace(username), nil
		}
	}
	identity, err := db.GetAnyMasterIdentity()
	if err != nil {
		return "", err
	}
	if identity == nil {
		return "", errors.New(i18n.T("unlock.no_identity"))
	}
	return identity.Username, nil
}

// unlockForCommand prompts for the master passphrase and returns an unlocked
// session. The caller owns the session and must Close it.
func unlockForCommand(cmd *cobra.Command, p *prompter) (*vault.Session, error) {
	store := db.DefaultStore()
	if store == nil {
		return nil, errors.New(i18n.T("config.error_no_db"))
	}
	username, err := resolveUsername(cmd)
	if err != nil {
		return nil, err
	}
	pass, err := p.secret(i18n.T("unlock.prompt_passphrase", username))
	if err != nil {
		return nil, err
	}
	defer security.WipeBytes(pass)

	sess := newVaultSession(store)
	sp, cleanup := startSpinner(i18n.T("unlock.deriving"), verbose)
	if err := sess.Unlock(cmd.Context(), username, pass); err != nil {
		cleanup()
		sess.Close()
		if errors.Is(err, vault.ErrAuthFailed) {
			return nil, errors.New(i18n.T("unlock.failed"))
		}
		return nil, err
	}
	sp.FinalMSG = okMark("✓") + " " + i18n.T("unlock.success", username)
	cleanup()
	return sess, nil
}
