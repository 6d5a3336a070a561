// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

//nolint:errcheck
package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/strongroom-io/strongroom/internal/db"
	"github.com/strongroom-io/strongroom/internal/i18n"
	"github.com/strongroom-io/strongroom/internal/logging"
)

// setupTestDB initializes an in-memory SQLite database for isolated testing
// and drops the KDF work factors to something a test run can afford.
func setupTestDB(t *testing.T) {
	t.Helper()

	// Use a unique in-memory SQLite database per test to avoid file locks on
	// Windows while preserving isolation across tests. The file: URI with
	// mode=memory and cache=shared lets multiple connections see the same
	// in-memory DB.
	uniq := fmt.Sprintf("memdb_%d", time.Now().UnixNano())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uniq)
	setupTestDBWithDSN(t, dsn)
}

// setupTestDBWithDSN is the file-DSN variant; db-maintain needs a real file
// because VACUUM does not work on a shared-cache in-memory database.
func setupTestDBWithDSN(t *testing.T, dsn string) {
	t.Helper()

	// Ensure tests are isolated from any previously loaded configuration.
	viper.Reset()

	// Argon2id at production cost would dominate the test run.
	t.Setenv("STRONGROOM_KDF_TIME", "1")
	t.Setenv("STRONGROOM_KDF_MEMORY_MIB", "8")
	t.Setenv("STRONGROOM_KDF_PARALLELISM", "1")
	// Keep the first-run config file write inside the test sandbox.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	viper.Set("database.type", "sqlite")
	viper.Set("database.dsn", dsn)
	viper.Set("language", "en") // Use a consistent language for tests

	i18n.Init("en")
	if err := db.InitDB("sqlite", dsn); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.CloseDB()
	})
}

// resetFlags clears leftover flag state. The subcommands are package-level
// variables, so a flag set by one test would otherwise stay set for the next.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().Visit(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// runCommand executes a cobra command with the given arguments, captures its
// combined output and returns the execution error.
func runCommand(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()

	// Redirect stdout and stderr to a pipe so we capture prompts, command
	// output and log output together.
	oldOut := os.Stdout
	oldErr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stdout = w
	os.Stderr = w
	logging.L.SetOutput(w)
	defer logging.L.SetOutput(os.Stderr)
	defer func() {
		os.Stdout = oldOut
		os.Stderr = oldErr
	}()

	// Redirect stdin if a reader is provided
	if stdin != nil {
		oldIn := os.Stdin
		os.Stdin = stdin.(*os.File)
		defer func() {
			os.Stdin = oldIn
		}()
	}

	// Create a new root command for each test to ensure isolation
	root := NewRootCmd()
	resetFlags(root)
	if args == nil {
		// A nil slice would make cobra fall back to os.Args, which holds the
		// test binary's own flags.
		args = []string{}
	}
	root.SetArgs(args)
	execErr := root.Execute()

	w.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read command output: %v", err)
	}

	return buf.String(), execErr
}

// executeCommand runs a command that is expected to succeed.
func executeCommand(t *testing.T, stdin io.Reader, args ...string) string {
	t.Helper()
	output, err := runCommand(t, stdin, args...)
	if err != nil {
		t.Fatalf("command execution failed: %v\noutput:\n%s", err, output)
	}
	return output
}

// executeCommandExpectError runs a command that is expected to fail and
// returns its output and error.
func executeCommandExpectError(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	output, err := runCommand(t, stdin, args...)
	if err == nil {
		t.Fatalf("expected command to fail, output:\n%s", output)
	}
	return output, err
}

// stdinFrom provides scripted stdin lines to an interactive command.
func stdinFrom(t *testing.T, lines ...string) *os.File {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create stdin pipe: %v", err)
	}
	go func() {
		defer w.Close()
		for _, line := range lines {
			fmt.Fprintln(w, line)
		}
	}()
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// registerTestIdentity creates the master identity most vault tests need.
func registerTestIdentity(t *testing.T, username, passphrase string) {
	t.Helper()
	output := executeCommand(t, stdinFrom(t, passphrase, passphrase),
		"register", "--username", username, "--email", username+"@example.com")
	if !strings.Contains(output, "registered") {
		t.Fatalf("registration did not succeed, output:\n%s", output)
	}
}

// addTestEntry stores one credential entry and returns its id.
func addTestEntry(t *testing.T, passphrase, app, login, contact, secret string) string {
	t.Helper()
	output := executeCommand(t, stdinFrom(t, secret, passphrase),
		"add", "--app", app, "--username", login, "--contact", contact)
	if !strings.Contains(output, "Stored entry for "+app) {
		t.Fatalf("add did not succeed, output:\n%s", output)
	}

	metas, err := db.DefaultStore().ListEntryMetadata()
	if err != nil {
		t.Fatalf("failed to list entries: %v", err)
	}
	for _, m := range metas {
		if m.AppName == app {
			return m.ID
		}
	}
	t.Fatalf("entry for %s not found after add", app)
	return ""
}

func TestVersionCmd(t *testing.T) {
	setupTestDB(t)

	output := executeCommand(t, nil, "version")

	if !strings.Contains(output, "version:") {
		t.Errorf("Expected output to contain 'version:', got:\n%s", output)
	}
	if !strings.Contains(output, "commit:") {
		t.Errorf("Expected output to contain 'commit:', got:\n%s", output)
	}
}

func TestResolveBuildVersion(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.2.3"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc1234"},
			{Key: "vcs.time", Value: "2026-01-02T15:04:05Z"},
		},
	}

	v, c, d := resolveBuildVersion(info)
	if v != "v1.2.3" {
		t.Errorf("expected version v1.2.3, got %q", v)
	}
	if c != "abc1234" {
		t.Errorf("expected commit abc1234, got %q", c)
	}
	if d != "2026-01-02T15:04:05Z" {
		t.Errorf("expected build date from vcs.time, got %q", d)
	}
}

func TestResolveBuildVersionDevFallback(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
	}

	v, _, _ := resolveBuildVersion(info)
	if v != "dev" {
		t.Errorf("expected fallback version 'dev', got %q", v)
	}
}

func TestDbMaintainCmd(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "strongroom-test.db")
	setupTestDBWithDSN(t, dsn)

	output := executeCommand(t, nil, "db-maintain")

	if !strings.Contains(output, "Running database maintenance") {
		t.Errorf("Expected maintenance start message, got:\n%s", output)
	}
	if !strings.Contains(output, "Database maintenance finished") {
		t.Errorf("Expected maintenance success message, got:\n%s", output)
	}
}

func TestUnlockWithoutIdentityFails(t *testing.T) {
	setupTestDB(t)

	_, err := executeCommandExpectError(t, nil, "list")
	if !strings.Contains(err.Error(), "No identity registered yet") {
		t.Errorf("expected missing-identity error, got: %v", err)
	}
}
