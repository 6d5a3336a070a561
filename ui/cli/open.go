// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// open.go implements the interactive shell. One unlocked session lives for
// the whole shell run; the idle timer can lock it at any point, which ends
// the shell on the next interaction.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strongroom-io/strongroom/internal/db"
	"github.com/strongroom-io/strongroom/internal/i18n"
	"github.com/strongroom-io/strongroom/internal/security"
	"github.com/strongroom-io/strongroom/internal/vault"
)

const shellPrompt = "strongroom> "

var openCmd = &cobra.Command{
	Use:     "open",
	Short:   "Unlock the vault and start the interactive shell",
	PreRunE: setupDefaultServices,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOpen(cmd)
	},
}

func runOpen(cmd *cobra.Command) error {
	p := newPrompter()
	sess, err := unlockForCommand(cmd, p)
	if err != nil {
		return err
	}
	defer sess.Close()

	fmt.Println(i18n.T("shell.welcome"))
	return runVaultShell(cmd.Context(), sess, p)
}

func runVaultShell(ctx context.Context, sess *vault.Session, p *prompter) error {
	guard := &clipboardGuard{}
	defer guard.clear()

	for {
		line, err := p.line(shellPrompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Println(i18n.T("shell.goodbye"))
				return nil
			}
			return err
		}
		if line == "" {
			continue
		}

		// The idle timer may have locked the session while we waited for
		// input. A locked session ends the shell.
		if sess.State() != vault.Unlocked {
			fmt.Println(i18n.T("shell.locked_idle"))
			return nil
		}

		fields := strings.Fields(line)
		name, args := fields[0], fields[1:]
		switch name {
		case "help", "?":
			fmt.Println(i18n.T("shell.help"))
		case "exit", "quit":
			fmt.Println(i18n.T("shell.goodbye"))
			return nil
		case "lock":
			sess.Lock()
			fmt.Println(i18n.T("shell.locked"))
			return nil
		case "list", "ls":
			shellList(sess)
		case "add":
			shellAdd(sess, p)
		case "show":
			shellShow(sess, args)
		case "copy":
			shellCopy(sess, args, guard)
		case "update":
			shellUpdate(sess, p, args)
		case "rm":
			shellRemove(sess, p, args)
		case "passwd":
			shellPasswd(ctx, sess, p)
		case "export":
			shellExport(sess, p, args)
		default:
			fmt.Println(i18n.T("shell.unknown_command", name))
		}
	}
}

func shellFail(err error) {
	fmt.Printf("%s %v\n", badMark("✗"), err)
}

// requireID extracts the single id argument of a shell command.
func requireID(args []string, usage string) (string, bool) {
	if len(args) != 1 {
		fmt.Println(i18n.T("shell.missing_id", usage))
		return "", false
	}
	return args[0], true
}

func shellList(sess *vault.Session) {
	entries, err := sess.ListEntries()
	if err != nil {
		shellFail(err)
		return
	}
	renderEntryList(entries)
}

func shellAdd(sess *vault.Session, p *prompter) {
	app, err := p.line(i18n.T("entry.prompt_app"))
	if err != nil {
		shellFail(err)
		return
	}
	username, err := p.line(i18n.T("entry.prompt_username"))
	if err != nil {
		shellFail(err)
		return
	}
	if app == "" || username == "" {
		shellFail(errors.New(i18n.T("prompt.empty")))
		return
	}
	contact, err := p.line(i18n.T("entry.prompt_contact"))
	if err != nil {
		shellFail(err)
		return
	}
	secretBytes, err := p.secret(i18n.T("entry.prompt_secret"))
	if err != nil {
		shellFail(err)
		return
	}
	if len(secretBytes) == 0 {
		shellFail(errors.New(i18n.T("prompt.empty")))
		return
	}
	secret := security.FromBytes(secretBytes)
	security.WipeBytes(secretBytes)
	defer secret.Zero()

	meta, err := sess.AddEntry(vault.AddEntryRequest{
		AppName:  app,
		Username: username,
		Contact:  contact,
		Secret:   secret,
	})
	if err != nil {
		shellFail(err)
		return
	}
	fmt.Printf("%s %s\n", okMark("✓"), i18n.T("entry.added", meta.AppName, meta.ID))
}

func shellShow(sess *vault.Session, args []string) {
	id, ok := requireID(args, "show <id>")
	if !ok {
		return
	}
	view, err := sess.RevealEntry(id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			shellFail(errors.New(i18n.T("entry.not_found", id)))
			return
		}
		shellFail(err)
		return
	}
	renderEntryView(view)
	view.Secret.Zero()
}

func shellCopy(sess *vault.Session, args []string, guard *clipboardGuard) {
	id, ok := requireID(args, "copy <id>")
	if !ok {
		return
	}
	view, err := sess.RevealEntry(id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			shellFail(errors.New(i18n.T("entry.not_found", id)))
			return
		}
		shellFail(err)
		return
	}
	defer view.Secret.Zero()

	clearAfter := appConfig.Clipboard.ClearAfterOrDefault()
	secretBytes := view.Secret.Bytes()
	err = guard.copy(string(secretBytes), clearAfter)
	security.WipeBytes(secretBytes)
	if err != nil {
		shellFail(errors.New(i18n.T("clipboard.error", err)))
		return
	}
	fmt.Printf("%s %s\n", okMark("✓"), i18n.T("clipboard.copied", view.AppName, clearAfter))
}

func shellUpdate(sess *vault.Session, p *prompter, args []string) {
	id, ok := requireID(args, "update <id>")
	if !ok {
		return
	}
	fmt.Println(faint(i18n.T("entry.update_hint")))

	var req vault.UpdateEntryRequest
	app, err := p.line(i18n.T("entry.prompt_app_keep"))
	if err != nil {
		shellFail(err)
		return
	}
	if app != "" {
		req.AppName = &app
	}
	username, err := p.line(i18n.T("entry.prompt_username_keep"))
	if err != nil {
		shellFail(err)
		return
	}
	if username != "" {
		req.Username = &username
	}
	contact, err := p.line(i18n.T("entry.prompt_contact_keep"))
	if err != nil {
		shellFail(err)
		return
	}
	if contact == "-" {
		empty := ""
		req.Contact = &empty
	} else if contact != "" {
		req.Contact = &contact
	}
	secretBytes, err := p.secret(i18n.T("entry.prompt_secret_keep"))
	if err != nil {
		shellFail(err)
		return
	}
	if len(secretBytes) > 0 {
		secret := security.FromBytes(secretBytes)
		security.WipeBytes(secretBytes)
		defer secret.Zero()
		req.Secret = &secret
	}

	if req == (vault.UpdateEntryRequest{}) {
		fmt.Println(i18n.T("entry.update_nothing"))
		return
	}
	if err := sess.UpdateEntry(id, req); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			shellFail(errors.New(i18n.T("entry.not_found", id)))
			return
		}
		shellFail(err)
		return
	}
	fmt.Printf("%s %s\n", okMark("✓"), i18n.T("entry.updated", id))
}

func shellRemove(sess *vault.Session, p *prompter, args []string) {
	id, ok := requireID(args, "rm <id>")
	if !ok {
		return
	}
	if !p.confirm(i18n.T("entry.remove_confirm", id)) {
		fmt.Println(i18n.T("entry.remove_cancelled"))
		return
	}
	if err := sess.RemoveEntry(id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			shellFail(errors.New(i18n.T("entry.not_found", id)))
			return
		}
		shellFail(err)
		return
	}
	fmt.Printf("%s %s\n", okMark("✓"), i18n.T("entry.removed", id))
}

func shellPasswd(ctx context.Context, sess *vault.Session, p *prompter) {
	current, err := p.secret(i18n.T("passwd.prompt_current"))
	if err != nil {
		shellFail(err)
		return
	}
	defer security.WipeBytes(current)
	if err := changePassphrase(ctx, sess, p, current); err != nil {
		shellFail(err)
	}
}
