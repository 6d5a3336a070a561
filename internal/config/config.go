package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Fallbacks for duration settings when the configured value is empty or
// malformed.
const (
	DefaultIdleTimeout    = 5 * time.Minute
	DefaultClipboardClear = 30 * time.Second
)

// Config holds the runtime settings for the Strongroom CLI. Values are
// resolved by viper from defaults, config file, environment variables
// (STRONGROOM_*) and bound flags, in that order of precedence. Durations are
// kept as strings ("5m") so the written YAML stays readable.
type Config struct {
	Language  string          `mapstructure:"language" yaml:"language"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Session   SessionConfig   `mapstructure:"session" yaml:"session"`
	Clipboard ClipboardConfig `mapstructure:"clipboard" yaml:"clipboard"`
	KDF       KDFConfig       `mapstructure:"kdf" yaml:"kdf"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
	Dsn  string `mapstructure:"dsn" yaml:"dsn"`
}

// SessionConfig controls the unlocked-session behavior.
type SessionConfig struct {
	IdleTimeout string `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

// IdleTimeoutOrDefault parses the configured idle timeout, falling back to
// DefaultIdleTimeout when the value is empty or malformed.
func (s SessionConfig) IdleTimeoutOrDefault() time.Duration {
	if d, err := time.ParseDuration(s.IdleTimeout); err == nil && d > 0 {
		return d
	}
	return DefaultIdleTimeout
}

// ClipboardConfig controls how long copied secrets stay on the clipboard.
type ClipboardConfig struct {
	ClearAfter string `mapstructure:"clear_after" yaml:"clear_after"`
}

// ClearAfterOrDefault parses the configured clipboard clear delay, falling
// back to DefaultClipboardClear when the value is empty or malformed.
func (c ClipboardConfig) ClearAfterOrDefault() time.Duration {
	if d, err := time.ParseDuration(c.ClearAfter); err == nil && d > 0 {
		return d
	}
	return DefaultClipboardClear
}

// KDFConfig holds the work factors applied to new registrations. Existing
// identities keep the parameters they were registered with.
type KDFConfig struct {
	Time        uint32 `mapstructure:"time" yaml:"time"`
	MemoryMiB   uint32 `mapstructure:"memory_mib" yaml:"memory_mib"`
	Parallelism uint8  `mapstructure:"parallelism" yaml:"parallelism"`
}

// Defaults returns the baseline settings applied before any config file,
// environment variable or flag.
func Defaults() map[string]any {
	return map[string]any{
		"language":              "en",
		"database.type":         "sqlite",
		"database.dsn":          "./strongroom.db",
		"session.idle_timeout":  "5m",
		"clipboard.clear_after": "30s",
		"kdf.time":              3,
		"kdf.memory_mib":        64,
		"kdf.parallelism":       4,
	}
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		// System-wide configuration paths
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Strongroom")
		default: // Linux, macOS, etc.
			configDir = "/etc/strongroom"
		}
	} else {
		// User-specific configuration paths
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "strongroom")
	}

	return filepath.Join(configDir, "strongroom.yaml"), nil
}

// LoadConfig resolves the effective configuration for a command. An explicit
// config file path (from the --config flag) takes precedence over the
// standard search locations.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, explicitPath *string) (T, error) {
	var c T
	v := viper.New()

	// 1. Set defaults
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// 2. Set up file search (strongroom.yaml)
	v.SetConfigName("strongroom")
	v.SetConfigType("yaml")

	// 3. An explicit config file path wins over the search locations.
	if explicitPath != nil {
		v.SetConfigFile(*explicitPath)
	}

	// 4. Standard config locations: user dir, system dir, current dir.
	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	// 5. Read in the primary config file. A missing file is fine; anything
	// else (malformed YAML, unreadable file) is fatal.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	// 6. For backward compatibility, merge `.strongroom.yaml` from the
	// current directory if present.
	mergeLegacyConfig(v)

	// 7. Environment variables: STRONGROOM_DATABASE_TYPE etc.
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("strongroom")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 8. Bound command flags have the highest precedence.
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return c, err
	}

	lastUsedFile = v.ConfigFileUsed()

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

// lastUsedFile records the config file resolved by the most recent LoadConfig.
var lastUsedFile string

// FileUsed returns the path of the config file loaded by the last LoadConfig
// call, or "" when configuration came only from defaults, environment and
// flags.
func FileUsed() string { return lastUsedFile }

// mergeLegacyConfig checks for a `.strongroom.yaml` file in the current
// directory and merges it into the viper configuration if found.
func mergeLegacyConfig(v *viper.Viper) {
	legacyConfigFile := ".strongroom.yaml"
	if _, err := os.Stat(legacyConfigFile); err == nil {
		v.SetConfigFile(legacyConfigFile)
		// MergeInConfig errors on a malformed file; ignore it here so a bad
		// legacy file cannot break startup.
		_ = v.MergeInConfig()
		v.SetConfigFile("")
	}
}

// WriteConfigFile persists the configuration as YAML. The file is written
// with 0600 since the DSN may contain credentials.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := GetConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	return os.WriteFile(path, data, 0600)
}
