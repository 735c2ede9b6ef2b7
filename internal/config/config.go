// Package config handles TOML configuration loading for scratch.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ospiem/scratch/tempdir"
)

// Config represents the main configuration structure.
type Config struct {
	Scratch  Settings           `toml:"scratch"`
	Profiles map[string]Profile `toml:"profile"`
}

// Settings holds scratch-directory defaults.
type Settings struct {
	RootPath string `toml:"root_path"`
	Cleanup  string `toml:"cleanup"`
	Prefix   string `toml:"prefix"`
	Logging  bool   `toml:"logging"`
}

// Profile represents named overrides, e.g. [profile.ci].
type Profile struct {
	RootPath string `toml:"root_path"`
	Cleanup  string `toml:"cleanup"`
	Prefix   string `toml:"prefix"`
	Logging  *bool  `toml:"logging"`
}

// DefaultConfig returns a config with sensible defaults: system temp root,
// always clean up, standard prefix, no lifecycle logging.
func DefaultConfig() *Config {
	return &Config{
		Scratch: Settings{
			RootPath: "", // empty means the system temp root
			Cleanup:  tempdir.CleanupAlways.String(),
			Prefix:   tempdir.DefaultPrefix,
			Logging:  false,
		},
		Profiles: make(map[string]Profile),
	}
}

// DefaultConfigPath returns the default config file path.
// Returns empty string if home directory cannot be determined.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "scratch", "config.toml")
}

// Load reads configuration from a TOML file. A missing file yields
// defaults; an unknown cleanup policy name is a load error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil // use defaults if config doesn't exist
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if _, decodeErr := toml.Decode(string(data), cfg); decodeErr != nil {
		return nil, fmt.Errorf("parsing config: %w", decodeErr)
	}

	if cfg.Scratch.Prefix == "" {
		cfg.Scratch.Prefix = tempdir.DefaultPrefix
	}
	if cfg.Scratch.Cleanup == "" {
		cfg.Scratch.Cleanup = tempdir.CleanupAlways.String()
	}
	if _, parseErr := tempdir.ParsePolicy(cfg.Scratch.Cleanup); parseErr != nil {
		return nil, fmt.Errorf("parsing config: %w", parseErr)
	}

	cfg.Scratch.RootPath = expandPath(cfg.Scratch.RootPath)

	return cfg, nil
}

// LoadWithProfile loads config and applies a named profile.
func LoadWithProfile(path, profileName string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if profileName != "" {
		profile, ok := cfg.Profiles[profileName]
		if !ok {
			return nil, fmt.Errorf("profile not found: %s", profileName)
		}
		if err := cfg.applyProfile(profile); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) applyProfile(profile Profile) error {
	if profile.RootPath != "" {
		c.Scratch.RootPath = expandPath(profile.RootPath)
	}
	if profile.Cleanup != "" {
		if _, err := tempdir.ParsePolicy(profile.Cleanup); err != nil {
			return err
		}
		c.Scratch.Cleanup = profile.Cleanup
	}
	if profile.Prefix != "" {
		c.Scratch.Prefix = profile.Prefix
	}
	if profile.Logging != nil {
		c.Scratch.Logging = *profile.Logging
	}
	return nil
}

// Tempdir converts the settings into a tempdir.Config with the given log
// sink. The sink is attached only when logging is enabled.
func (c *Config) Tempdir(sink tempdir.LogFunc) tempdir.Config {
	policy, err := tempdir.ParsePolicy(c.Scratch.Cleanup)
	if err != nil {
		policy = tempdir.CleanupAlways // validated at load time
	}
	tc := tempdir.Config{
		RootPath: c.Scratch.RootPath,
		Cleanup:  policy,
		Prefix:   c.Scratch.Prefix,
	}
	if c.Scratch.Logging && sink != nil {
		tc.Log = sink
	}
	return tc
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path // return unexpanded on error
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
