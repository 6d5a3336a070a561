// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// entries.go implements the one-shot credential commands: add, list, show,
// update and rm. Each unlocks a session for exactly the duration of the
// operation; long-lived sessions belong to the interactive shell in open.go.

package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/strongroom-io/strongroom/internal/db"
	"github.com/strongroom-io/strongroom/internal/i18n"
	"github.com/strongroom-io/strongroom/internal/model"
	"github.com/strongroom-io/strongroom/internal/security"
	"github.com/strongroom-io/strongroom/internal/vault"
)

const timestampLayout = "2006-01-02 15:04"

// flagOrPrompt returns the flag value when the user set it and prompts
// otherwise. Lets every field be supplied on the command line for scripting
// while staying interactive by default.
func flagOrPrompt(cmd *cobra.Command, p *prompter, name, label string) (string, error) {
	if f := cmd.Flags().Lookup(name); f != nil && cmd.Flags().Changed(name) {
		value, err := cmd.Flags().GetString(name)
		if err != nil {
			return "", err
		}
		return value, nil
	}
	return p.line(label)
}

var addCmd = &cobra.Command{
	Use:     "add",
	Short:   "Store a new credential entry",
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAddFlow(cmd)
	},
}

func runAddFlow(cmd *cobra.Command) error {
	p := newPrompter()

	app, err := flagOrPrompt(cmd, p, "app", i18n.T("entry.prompt_app"))
	if err != nil {
		return err
	}
	if app == "" {
		return errors.New(i18n.T("prompt.empty"))
	}
	username, err := flagOrPrompt(cmd, p, "username", i18n.T("entry.prompt_username"))
	if err != nil {
		return err
	}
	if username == "" {
		return errors.New(i18n.T("prompt.empty"))
	}
	contact, err := flagOrPrompt(cmd, p, "contact", i18n.T("entry.prompt_contact"))
	if err != nil {
		return err
	}

	secretBytes, err := p.secret(i18n.T("entry.prompt_secret"))
	if err != nil {
		return err
	}
	if len(secretBytes) == 0 {
		return errors.New(i18n.T("prompt.empty"))
	}
	secret := security.FromBytes(secretBytes)
	security.WipeBytes(secretBytes)
	defer secret.Zero()

	sess, err := unlockForCommand(cmd, p)
	if err != nil {
		return err
	}
	defer sess.Close()

	meta, err := sess.AddEntry(vault.AddEntryRequest{
		AppName:  app,
		Username: username,
		Contact:  contact,
		Secret:   secret,
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", okMark("✓"), i18n.T("entry.added", meta.AppName, meta.ID))
	return nil
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List vault entries (metadata only, nothing is decrypted)",
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrompter()
		sess, err := unlockForCommand(cmd, p)
		if err != nil {
			return err
		}
		defer sess.Close()

		entries, err := sess.ListEntries()
		if err != nil {
			return err
		}
		renderEntryList(entries)
		return nil
	},
}

func renderEntryList(entries []model.EntryMetadata) {
	if len(entries) == 0 {
		fmt.Println(i18n.T("entry.none"))
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAPPLICATION\tCREATED\tUPDATED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.ID,
			e.AppName,
			e.CreatedAt.Local().Format(timestampLayout),
			e.UpdatedAt.Local().Format(timestampLayout),
		)
	}
	w.Flush()
}

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Decrypt and display one entry",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShowFlow(cmd, args[0])
	},
}

func runShowFlow(cmd *cobra.Command, id string) error {
	copyFlag, _ := cmd.Flags().GetBool("copy")
	field, _ := cmd.Flags().GetString("field")
	if copyFlag && field != "" {
		return errors.New(i18n.T("entry.copy_field_conflict"))
	}

	p := newPrompter()
	sess, err := unlockForCommand(cmd, p)
	if err != nil {
		return err
	}
	defer sess.Close()

	view, err := sess.RevealEntry(id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return errors.New(i18n.T("entry.not_found", id))
		}
		return err
	}
	defer view.Secret.Zero()

	switch {
	case copyFlag:
		return copySecretAndWait(view)
	case field != "":
		return printEntryField(view, field)
	default:
		renderEntryView(view)
		return nil
	}
}

// copySecretAndWait places the secret on the clipboard and blocks until the
// configured delay has passed, so the clear still happens before the process
// exits.
func copySecretAndWait(view *model.EntryView) error {
	clearAfter := appConfig.Clipboard.ClearAfterOrDefault()
	guard := &clipboardGuard{}

	secretBytes := view.Secret.Bytes()
	err := guard.copy(string(secretBytes), clearAfter)
	security.WipeBytes(secretBytes)
	if err != nil {
		return errors.New(i18n.T("clipboard.error", err))
	}
	fmt.Printf("%s %s\n", okMark("✓"), i18n.T("clipboard.copied", view.AppName, clearAfter))

	time.Sleep(clearAfter)
	guard.clear()
	fmt.Println(faint(i18n.T("clipboard.cleared")))
	return nil
}

// printEntryField writes a single decrypted field as a bare line, which keeps
// the output usable in scripts and pipes.
func printEntryField(view *model.EntryView, field string) error {
	switch field {
	case "username":
		fmt.Println(view.Username)
	case "contact":
		fmt.Println(view.Contact)
	case "secret":
		secretBytes := view.Secret.Bytes()
		fmt.Printf("%s\n", secretBytes)
		security.WipeBytes(secretBytes)
	default:
		return errors.New(i18n.T("entry.unknown_field", field))
	}
	return nil
}

func renderEntryView(view *model.EntryView) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", view.ID)
	fmt.Fprintf(w, "APPLICATION:\t%s\n", view.AppName)
	fmt.Fprintf(w, "USERNAME:\t%s\n", view.Username)
	if view.Contact != "" {
		fmt.Fprintf(w, "CONTACT:\t%s\n", view.Contact)
	}
	secretBytes := view.Secret.Bytes()
	fmt.Fprintf(w, "SECRET:\t%s\n", secretBytes)
	security.WipeBytes(secretBytes)
	w.Flush()
}

var updateCmd = &cobra.Command{
	Use:     "update <id>",
	Short:   "Change fields of an existing entry",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdateFlow(cmd, args[0])
	},
}

func runUpdateFlow(cmd *cobra.Command, id string) error {
	var req vault.UpdateEntryRequest

	if cmd.Flags().Changed("app") {
		v, _ := cmd.Flags().GetString("app")
		req.AppName = &v
	}
	if cmd.Flags().Changed("username") {
		v, _ := cmd.Flags().GetString("username")
		req.Username = &v
	}
	clearContact, _ := cmd.Flags().GetBool("clear-contact")
	if cmd.Flags().Changed("contact") {
		if clearContact {
			return errors.New(i18n.T("entry.update_conflict"))
		}
		v, _ := cmd.Flags().GetString("contact")
		req.Contact = &v
	} else if clearContact {
		empty := ""
		req.Contact = &empty
	}

	p := newPrompter()

	rotate, _ := cmd.Flags().GetBool("rotate-secret")
	if rotate {
		secretBytes, err := p.secret(i18n.T("entry.prompt_secret"))
		if err != nil {
			return err
		}
		if len(secretBytes) == 0 {
			return errors.New(i18n.T("prompt.empty"))
		}
		secret := security.FromBytes(secretBytes)
		security.WipeBytes(secretBytes)
		defer secret.Zero()
		req.Secret = &secret
	}

	if req == (vault.UpdateEntryRequest{}) {
		return errors.New(i18n.T("entry.update_nothing"))
	}

	sess, err := unlockForCommand(cmd, p)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.UpdateEntry(id, req); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return errors.New(i18n.T("entry.not_found", id))
		}
		return err
	}
	fmt.Printf("%s %s\n", okMark("✓"), i18n.T("entry.updated", id))
	return nil
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Short:   "Delete an entry from the vault",
	Args:    cobra.ExactArgs(1),
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRemoveFlow(cmd, args[0])
	},
}

func runRemoveFlow(cmd *cobra.Command, id string) error {
	p := newPrompter()

	// Confirm before asking for the passphrase; a declined delete should not
	// cost a KDF run.
	force, _ := cmd.Flags().GetBool("force")
	if !force {
		if !p.confirm(i18n.T("entry.remove_confirm", id)) {
			fmt.Println(i18n.T("entry.remove_cancelled"))
			return nil
		}
	}

	sess, err := unlockForCommand(cmd, p)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.RemoveEntry(id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return errors.New(i18n.T("entry.not_found", id))
		}
		return err
	}
	fmt.Printf("%s %s\n", okMark("✓"), i18n.T("entry.removed", id))
	return nil
}
