// Package config loads the plugfs host configuration: defaults, then an
// optional TOML file, then PLUGFS_-prefixed environment variables, each layer
// overriding the previous one.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/plugfs/plugfs/pkg/errors"
)

// ConfigFileName is the default config file looked up under the XDG config
// directory when no explicit path is given.
const ConfigFileName = "plugfs.toml"

// Config is the host configuration for the storage service
type Config struct {
	// BasePath is the host base directory under which the storages root and
	// the legacy migration source are resolved
	BasePath string `koanf:"base_path" toml:"base_path" validate:"required"`

	// Verbosity is the log verbosity (0 warn, 1 info, 2 debug, 3 trace)
	Verbosity int `koanf:"verbosity" toml:"verbosity" validate:"gte=0,lte=3"`

	// LogFile is an optional log file path; empty means console-only
	LogFile string `koanf:"log_file" toml:"log_file"`
}

// Default returns the built-in configuration defaults
func Default() Config {
	return Config{
		BasePath:  filepath.Join(xdg.DataHome, "plugfs"),
		Verbosity: 0,
	}
}

// Load builds the configuration from defaults, the TOML file at path (or the
// XDG default location when path is empty and the file exists), and
// PLUGFS_-prefixed environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := Default()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"base_path": defaults.BasePath,
		"verbosity": defaults.Verbosity,
		"log_file":  defaults.LogFile,
	}, "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	if path == "" {
		candidate := filepath.Join(xdg.ConfigHome, "plugfs", ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad,
				"failed to load config from %s", path)
		}
	}

	if err := k.Load(env.Provider("PLUGFS_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "PLUGFS_"))
	}), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to unmarshal config")
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
