// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"strings"
	"testing"
)

func TestOpenShellAddAndList(t *testing.T) {
	setupTestDB(t)
	registerTestIdentity(t, "alice", "correct horse")

	output := executeCommand(t, stdinFrom(t,
		"correct horse", // unlock
		"help",
		"add",
		"Forge",       // application
		"smith",       // login username
		"",            // contact (optional)
		"anvil42",     // secret
		"list",
		"exit",
	), "open")

	t.Run("unlock banner and help", func(t *testing.T) {
		if !strings.Contains(output, "Vault unlocked for alice") {
			t.Errorf("Expected unlock confirmation, got:\n%s", output)
		}
		if !strings.Contains(output, "Commands:") {
			t.Errorf("Expected help text, got:\n%s", output)
		}
	})

	t.Run("add stores and list shows the entry", func(t *testing.T) {
		if !strings.Contains(output, "Stored entry for Forge") {
			t.Errorf("Expected add confirmation, got:\n%s", output)
		}
		if !strings.Contains(output, "Forge") {
			t.Errorf("Expected entry in listing, got:\n%s", output)
		}
		if entryCount(t) != 1 {
			t.Error("expected exactly one stored entry")
		}
	})

	t.Run("exit locks the vault", func(t *testing.T) {
		if !strings.Contains(output, "Vault locked. Bye.") {
			t.Errorf("Expected goodbye message, got:\n%s", output)
		}
	})
}

func TestOpenShellShowUpdateRemove(t *testing.T) {
	setupTestDB(t)
	registerTestIdentity(t, "alice", "correct horse")
	id := addTestEntry(t, "correct horse", "Forge", "smith", "", "anvil42")

	output := executeCommand(t, stdinFrom(t,
		"correct horse",
		"show "+id,
		"update "+id,
		"Bellows", // new application
		"",        // keep username
		"",        // keep contact
		"",        // keep secret
		"rm "+id,
		"y",
		"lock",
	), "open")

	t.Run("show decrypts the entry", func(t *testing.T) {
		if !strings.Contains(output, "anvil42") {
			t.Errorf("Expected secret in shell view, got:\n%s", output)
		}
	})

	t.Run("update renames the entry", func(t *testing.T) {
		if !strings.Contains(output, "Updated entry "+id) {
			t.Errorf("Expected update confirmation, got:\n%s", output)
		}
	})

	t.Run("rm removes after confirmation", func(t *testing.T) {
		if !strings.Contains(output, "Deleted entry "+id) {
			t.Errorf("Expected delete confirmation, got:\n%s", output)
		}
		if entryCount(t) != 0 {
			t.Error("entry still present after shell rm")
		}
	})

	t.Run("lock ends the shell", func(t *testing.T) {
		if !strings.Contains(output, "Vault locked.") {
			t.Errorf("Expected lock message, got:\n%s", output)
		}
	})
}

func TestOpenShellUnknownCommand(t *testing.T) {
	setupTestDB(t)
	registerTestIdentity(t, "alice", "correct horse")

	output := executeCommand(t, stdinFrom(t, "correct horse", "frobnicate", "exit"), "open")

	if !strings.Contains(output, "Unknown command") {
		t.Errorf("Expected unknown-command message, got:\n%s", output)
	}
}

func TestRootCommandStartsShell(t *testing.T) {
	setupTestDB(t)
	registerTestIdentity(t, "alice", "correct horse")

	// Running the bare binary behaves like `strongroom open`.
	output := executeCommand(t, stdinFrom(t, "correct horse", "exit"))

	if !strings.Contains(output, "Type 'help'") {
		t.Errorf("Expected shell welcome, got:\n%s", output)
	}
	if !strings.Contains(output, "Vault locked. Bye.") {
		t.Errorf("Expected goodbye message, got:\n%s", output)
	}
}

func TestOpenShellWrongPassphrase(t *testing.T) {
	setupTestDB(t)
	registerTestIdentity(t, "alice", "correct horse")

	_, err := executeCommandExpectError(t, stdinFrom(t, "wrong horse"), "open")
	if !strings.Contains(err.Error(), "Authentication failed") {
		t.Errorf("expected authentication failure, got: %v", err)
	}
}
