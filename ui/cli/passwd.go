// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/strongroom-io/strongroom/internal/db"
	"github.com/strongroom-io/strongroom/internal/i18n"
	"github.com/strongroom-io/strongroom/internal/security"
	"github.com/strongroom-io/strongroom/internal/vault"
)

// passwdCmd changes the master passphrase and re-keys every stored envelope.
var passwdCmd = &cobra.Command{
	Use:     "passwd",
	Short:   "Change the master passphrase (re-encrypts all entries)",
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPasswdFlow(cmd)
	},
}

// runPasswdFlow prompts for the current passphrase once and reuses it for
// both the unlock and the re-key confirmation.
func runPasswdFlow(cmd *cobra.Command) error {
	store := db.DefaultStore()
	if store == nil {
		return errors.New(i18n.T("config.error_no_db"))
	}
	username, err := resolveUsername(cmd)
	if err != nil {
		return err
	}

	p := newPrompter()
	current, err := p.secret(i18n.T("passwd.prompt_current"))
	if err != nil {
		return err
	}
	defer security.WipeBytes(current)

	sess := newVaultSession(store)
	defer sess.Close()

	sp, cleanup := startSpinner(i18n.T("unlock.deriving"), verbose)
	if err := sess.Unlock(cmd.Context(), username, current); err != nil {
		cleanup()
		if errors.Is(err, vault.ErrAuthFailed) {
			return errors.New(i18n.T("unlock.failed"))
		}
		return err
	}
	sp.FinalMSG = okMark("✓") + " " + i18n.T("unlock.success", username)
	cleanup()

	return changePassphrase(cmd.Context(), sess, p, current)
}

// changePassphrase prompts for the new passphrase and re-keys the vault. The
// caller supplies the already confirmed current passphrase.
func changePassphrase(ctx context.Context, sess *vault.Session, p *prompter, current []byte) error {
	next, err := p.newSecret(i18n.T("passwd.prompt_new"), i18n.T("passwd.prompt_confirm"))
	if err != nil {
		return err
	}
	defer security.WipeBytes(next)

	sp, cleanup := startSpinner(i18n.T("passwd.rekeying"), verbose)
	if err := sess.ChangePassphrase(ctx, current, next); err != nil {
		cleanup()
		if errors.Is(err, vault.ErrAuthFailed) {
			return errors.New(i18n.T("unlock.failed"))
		}
		return err
	}
	sp.FinalMSG = okMark("✓") + " " + i18n.T("passwd.success")
	cleanup()
	return nil
}
