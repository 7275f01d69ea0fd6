package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the optional rsniff configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Theme    ThemeConfig    `toml:"theme"`
}

// DefaultsConfig holds persistent flag defaults.
type DefaultsConfig struct {
	RsyncPath  *string `toml:"rsync_path"`
	Protocol   *int    `toml:"protocol"`
	Host       *string `toml:"host"`
	User       *string `toml:"user"`
	SSHCommand *string `toml:"ssh_command"`
	SSHPort    *int    `toml:"ssh_port"`
	SSHKey     *string `toml:"ssh_key"`
	NoCreate   *bool   `toml:"no_create"`
}

// ThemeConfig holds optional color overrides for styled instructions.
type ThemeConfig struct {
	Heading *string `toml:"heading"`
	Path    *string `toml:"path"`
	Command *string `toml:"command"`
	Muted   *string `toml:"muted"`
	Warn    *string `toml:"warn"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "rsniff", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}

	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	return cfg, nil
}
