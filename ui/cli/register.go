// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/strongroom-io/strongroom/internal/db"
	"github.com/strongroom-io/strongroom/internal/i18n"
	"github.com/strongroom-io/strongroom/internal/security"
	"github.com/strongroom-io/strongroom/internal/vault"
)

// registerCmd creates the master identity a vault is unlocked with. It is the
// first command run against a fresh database.
var registerCmd = &cobra.Command{
	Use:     "register",
	Short:   "Create the master identity for a new vault",
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRegisterFlow(cmd)
	},
}

func runRegisterFlow(cmd *cobra.Command) error {
	store := db.DefaultStore()
	if store == nil {
		return errors.New(i18n.T("config.error_no_db"))
	}

	p := newPrompter()

	username, err := flagOrPrompt(cmd, p, "username", i18n.T("register.prompt_username"))
	if err != nil {
		return err
	}
	if username == "" {
		return errors.New(i18n.T("prompt.empty"))
	}

	email, err := flagOrPrompt(cmd, p, "email", i18n.T("register.prompt_email"))
	if err != nil {
		return err
	}
	if email == "" {
		return errors.New(i18n.T("prompt.empty"))
	}

	pass, err := p.newSecret(i18n.T("register.prompt_passphrase"), i18n.T("register.prompt_confirm"))
	if err != nil {
		return err
	}
	defer security.WipeBytes(pass)

	auth := vault.NewAuthenticator(store, kdfParamsFromConfig(appConfig))

	sp, cleanup := startSpinner(i18n.T("register.deriving"), verbose)
	identity, err := auth.Register(cmd.Context(), username, email, pass)
	if err != nil {
		cleanup()
		if errors.Is(err, vault.ErrDuplicateIdentity) {
			return errors.New(i18n.T("register.duplicate", username))
		}
		return err
	}
	sp.FinalMSG = okMark("✓") + " " + i18n.T("register.success", identity.Username)
	cleanup()
	return nil
}
