// Copyright (c) 2026 Strongroom Team
// Strongroom - local encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for Strongroom using the
// Cobra library. It defines the root command, its persistent flags, and the
// service bootstrap (config, i18n, database) shared by every subcommand.

package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/awnumar/memguard"
	log "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/strongroom-io/strongroom/buildvars"
	"github.com/strongroom-io/strongroom/internal/config"
	"github.com/strongroom-io/strongroom/internal/db"
	"github.com/strongroom-io/strongroom/internal/i18n"
	"github.com/strongroom-io/strongroom/internal/logging"
)

var version = "dev"   // this will be set by the linker
var gitCommit = "dev" // set at build time with the short commit SHA
var buildDate = ""    // set at build time (RFC3339)
var cfgFile string
var verbose bool
var showVersionFlag bool

// appConfig holds the resolved configuration for the running command.
var appConfig config.Config

// setupDefaultServices loads the configuration and brings up i18n and the
// database. It runs as PersistentPreRunE for the root command and as PreRunE
// on the subcommands, so it must stay idempotent.
func setupDefaultServices(cmd *cobra.Command, args []string) error {
	optionalConfigPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	defaults := config.Defaults()

	appConfig, err = config.LoadConfig[config.Config](cmd, defaults, optionalConfigPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	// First run: persist the resolved defaults so users have a file to edit.
	if optionalConfigPath == nil && config.FileUsed() == "" {
		if writeErr := config.WriteConfigFile(&appConfig, false); writeErr != nil {
			log.Warnf("could not write default config file: %v", writeErr)
		}
	}

	// Backfill critical values so a config file with empty fields cannot
	// leave us without a database or language.
	if appConfig.Database.Type == "" {
		appConfig.Database.Type = defaults["database.type"].(string)
		viper.Set("database.type", appConfig.Database.Type)
	}
	if appConfig.Database.Dsn == "" {
		appConfig.Database.Dsn = defaults["database.dsn"].(string)
		viper.Set("database.dsn", appConfig.Database.Dsn)
	}
	if appConfig.Language == "" {
		appConfig.Language = defaults["language"].(string)
		viper.Set("language", appConfig.Language)
	}

	i18n.Init(appConfig.Language)

	if verbose {
		logging.SetDebug(true)
		db.SetDebug(true)
	}

	// Initialize the database unless tests or an earlier setup already did.
	if !db.IsInitialized() {
		if err := db.InitDB(appConfig.Database.Type, appConfig.Database.Dsn); err != nil {
			return errors.New(i18n.T("config.error_init_db", err))
		}
	}

	return nil
}

// Execute runs the CLI entrypoint. The root main package calls this function
// and handles process exit.
func Execute() error {
	// Wipe key enclaves if the process is interrupted mid-operation, and
	// purge whatever is left when the command finishes.
	memguard.CatchInterrupt()
	defer memguard.Purge()

	rootCmd := NewRootCmd()
	return rootCmd.Execute()
}

func applyDefaultFlags(cmd *cobra.Command) {
	// NewRootCmd may be called multiple times in tests while the subcommands
	// are package-level; pflag panics on duplicate flag definitions, so check
	// first.
	if cmd.Flags().Lookup("database.type") == nil {
		cmd.Flags().String("database.type", "sqlite", "Database type (sqlite, postgres, mysql)")
	}
	if cmd.Flags().Lookup("database.dsn") == nil {
		cmd.Flags().String("database.dsn", "./strongroom.db", "Database connection string (DSN)")
	}
}

func addUserFlag(cmd *cobra.Command) {
	if cmd.Flags().Lookup("user") == nil {
		cmd.Flags().StringP("user", "u", "", "Vault username (defaults to the registered identity)")
	}
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only proceed if the user has explicitly set the --config flag.
	if cmd.Flags().Changed("config") {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return nil, fmt.Errorf("could not read --config flag: %w", err)
		}

		if path == "" {
			return nil, nil
		}

		// Make sure the user-provided file exists to avoid unwanted behavior.
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
		return &path, nil
	}
	return nil, nil
}

// NewRootCmd creates and configures a new root cobra command. This function
// is used for the main application command as well as fresh instances for
// isolated testing.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strongroom",
		Short: "Strongroom is a local encrypted credential vault.",
		Long: `Strongroom keeps credentials in an encrypted vault on your own disk.
A master passphrase is stretched into the vault key; every stored field is
sealed in an authenticated envelope and decrypted only inside an unlocked
session. Nothing ever leaves the machine.

Running without a subcommand unlocks the vault and starts the interactive
shell (same as 'strongroom open').`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if showVersionFlag {
				fmt.Printf("%s\n", compositeVersion())
				os.Exit(0)
			}
			return setupDefaultServices(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(cmd)
		},
	}

	cmd.Version = compositeVersion()

	// Define flags
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (debug logs, DB timing)")
	cmd.PersistentFlags().BoolVarP(&showVersionFlag, "version", "V", false, "Print version and exit")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("language", "en", `CLI language ("en", "de")`)
	applyDefaultFlags(cmd)

	// Add subcommand flags
	for _, sub := range []*cobra.Command{
		registerCmd, openCmd, addCmd, listCmd, showCmd, updateCmd,
		rmCmd, passwdCmd, auditCmd, backupCmd, restoreCmd, dbMaintainCmd,
	} {
		applyDefaultFlags(sub)
	}
	for _, sub := range []*cobra.Command{
		openCmd, addCmd, listCmd, showCmd, updateCmd, rmCmd, passwdCmd, backupCmd,
	} {
		addUserFlag(sub)
	}

	if registerCmd.Flags().Lookup("username") == nil {
		registerCmd.Flags().String("username", "", "Username for the new identity")
		registerCmd.Flags().String("email", "", "Email address for the new identity")
	}
	if addCmd.Flags().Lookup("app") == nil {
		addCmd.Flags().String("app", "", "Application or site the credential belongs to")
		addCmd.Flags().String("username", "", "Login username for the credential")
		addCmd.Flags().String("contact", "", "Optional contact (email, phone) tied to the credential")
	}
	if showCmd.Flags().Lookup("copy") == nil {
		showCmd.Flags().Bool("copy", false, "Copy the secret to the clipboard instead of printing it")
		showCmd.Flags().String("field", "", "Print a single decrypted field (username, contact, secret)")
	}
	if updateCmd.Flags().Lookup("app") == nil {
		updateCmd.Flags().String("app", "", "New application name")
		updateCmd.Flags().String("username", "", "New login username")
		updateCmd.Flags().String("contact", "", "New contact")
		updateCmd.Flags().Bool("clear-contact", false, "Remove the stored contact")
		updateCmd.Flags().Bool("rotate-secret", false, "Prompt for a new secret")
	}
	if rmCmd.Flags().Lookup("force") == nil {
		rmCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")
	}
	if auditCmd.Flags().Lookup("limit") == nil {
		auditCmd.Flags().IntP("limit", "n", 0, "Show only the newest N records (0 shows all)")
	}
	if restoreCmd.Flags().Lookup("yes") == nil {
		restoreCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	}
	if dbMaintainCmd.Flags().Lookup("timeout") == nil {
		dbMaintainCmd.Flags().Int("timeout", 0, "Timeout in seconds for maintenance (0 means no timeout)")
	}

	// Add subcommands to the newly created root command.
	cmd.AddCommand(
		registerCmd,
		openCmd,
		addCmd,
		listCmd,
		showCmd,
		updateCmd,
		rmCmd,
		passwdCmd,
		auditCmd,
		backupCmd,
		restoreCmd,
		dbMaintainCmd,
		versionCmd,
	)

	return cmd
}

// compositeVersion assembles the one-line version string shown by -V and
// cobra's --version handling.
func compositeVersion() string {
	v, c, d := resolveBuildVersion(nil)
	out := v
	if c != "" && c != "dev" {
		out = out + " (" + c + ")"
	}
	if d != "" {
		out = out + " built: " + d
	}
	return out
}

// versionCmd prints detailed build information. Useful for CI and bug
// reports: `strongroom version`.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		v, c, d := resolveBuildVersion(nil)
		fmt.Printf("version: %s\n", v)
		fmt.Printf("commit: %s\n", c)
		if d != "" {
			fmt.Printf("built: %s\n", d)
		}
	},
}

// resolveBuildVersion computes the best-available version, commit and build
// date for the running binary. If `info` is nil, it reads build info from
// the runtime. This helper is separated to make unit testing straightforward.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := buildvars.VersionOrDefault(version)
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	var ok bool
	if info == nil {
		if infoLocal, found := debug.ReadBuildInfo(); found {
			info = infoLocal
			ok = true
		}
	} else {
		ok = true
	}

	if ok && info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		// If Main doesn't carry the version (some build paths), try to find
		// our module among the dependencies and use that version.
		if (resolvedVersion == "dev" || resolvedVersion == "(devel)") && info.Deps != nil {
			for _, dep := range info.Deps {
				if dep.Path == "github.com/strongroom-io/strongroom" && dep.Version != "" {
					resolvedVersion = dep.Version
					break
				}
			}
		}

		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	// As a last resort, if no version was discovered but a gitCommit was
	// provided via ldflags, show that to aid support.
	if resolvedVersion == "dev" && gitCommit != "dev" && gitCommit != "" {
		resolvedVersion = gitCommit
	}

	return resolvedVersion, resolvedCommit, resolvedDate
}
