// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/strongroom-io/strongroom/internal/db"
	"github.com/strongroom-io/strongroom/internal/i18n"
	"github.com/strongroom-io/strongroom/internal/security"
	"github.com/strongroom-io/strongroom/internal/vault"
)

var backupCmd = &cobra.Command{
	Use:   "backup [file]",
	Short: "Export the vault as an encrypted backup file",
	Long: `Export the vault as an encrypted backup file.

The backup is sealed under its own passphrase, independent of the master
passphrase, so it stays restorable after a passphrase change. If no output
file is given, a default filename 'strongroom-backup-YYYY-MM-DD.json' is
used.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBackupFlow(cmd, args)
	},
}

func runBackupFlow(cmd *cobra.Command, args []string) error {
	p := newPrompter()
	sess, err := unlockForCommand(cmd, p)
	if err != nil {
		return err
	}
	defer sess.Close()
	return runExportFlow(sess, p, args)
}

// runExportFlow drives the export against an already unlocked session. The
// shell reuses it for the `export` command.
func runExportFlow(sess *vault.Session, p *prompter, args []string) error {
	bpass, err := p.newSecret(i18n.T("backup.prompt_passphrase"), i18n.T("backup.prompt_confirm"))
	if err != nil {
		return err
	}
	defer security.WipeBytes(bpass)

	_, cleanup := startSpinner(i18n.T("backup.encrypting"), verbose)
	container, err := sess.ExportBackup(bpass)
	cleanup()
	if err != nil {
		return err
	}

	path := defaultBackupFilename()
	if len(args) > 0 && args[0] != "" {
		path = args[0]
	}
	if err := writeBackupContainer(path, container); err != nil {
		return err
	}
	fmt.Printf("%s %s\n", okMark("✓"), i18n.T("backup.success", path, container.BackupID))
	return nil
}

func shellExport(sess *vault.Session, p *prompter, args []string) {
	if err := runExportFlow(sess, p, args); err != nil {
		shellFail(err)
	}
}

func defaultBackupFilename() string {
	return fmt.Sprintf("strongroom-backup-%s.json", time.Now().Format("2006-01-02"))
}

func writeBackupContainer(path string, container *vault.BackupContainer) error {
	data, err := json.MarshalIndent(container, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func readBackupContainer(path string) (*vault.BackupContainer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var container vault.BackupContainer
	if err := json.Unmarshal(data, &container); err != nil {
		return nil, err
	}
	return &container, nil
}

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Replace the vault contents with a backup",
	Long: `Replace the vault contents with a backup.

Restore works without unlocking: it is the recovery path for a vault whose
master passphrase is lost, and the backup passphrase alone proves access.
All current entries, identities and audit records are replaced by the
snapshot.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRestoreFlow(cmd, args[0])
	},
}

func runRestoreFlow(cmd *cobra.Command, path string) error {
	store := db.DefaultStore()
	if store == nil {
		return errors.New(i18n.T("config.error_no_db"))
	}

	container, err := readBackupContainer(path)
	if err != nil {
		return errors.New(i18n.T("restore.failed", err))
	}

	p := newPrompter()
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		if !p.confirm(i18n.T("restore.confirm")) {
			fmt.Println(i18n.T("restore.cancelled"))
			return nil
		}
	}

	bpass, err := p.secret(i18n.T("restore.prompt_passphrase"))
	if err != nil {
		return err
	}
	defer security.WipeBytes(bpass)

	_, cleanup := startSpinner(i18n.T("restore.decrypting"), verbose)
	err = vault.RestoreBackup(store, container, bpass)
	cleanup()
	if err != nil {
		if errors.Is(err, vault.ErrBackupCorrupt) {
			return errors.New(i18n.T("restore.corrupt"))
		}
		return errors.New(i18n.T("restore.failed", err))
	}
	fmt.Printf("%s %s\n", okMark("✓"), i18n.T("restore.success", container.BackupID))
	return nil
}
