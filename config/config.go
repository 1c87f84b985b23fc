// Package config loads the process-level configuration: CDN/identity
// endpoints, credentials, and download tuning knobs.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/SirWaddles/wickdl/wickerr"
)

// Config carries the knobs the distilled spec treats as given: where the
// build lives, how to authenticate, and how aggressively to download.
type Config struct {
	IdentityURL  string `toml:"identity_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	LauncherHost string `toml:"launcher_host"`
	BuildID      string `toml:"build_id"`
	AppName      string `toml:"app_name"`
	Label        string `toml:"label"`
	MaxWorkers   int    `toml:"max_workers"`
	MaxMemory    int64  `toml:"max_memory"`
	SkipVerify   bool   `toml:"skip_verify"`
}

// testConfigDir can be set during tests to override the config directory.
var testConfigDir string

// SetTestConfigDir sets the config directory for testing purposes. Pass
// an empty string to reset to default behavior.
func SetTestConfigDir(dir string) {
	testConfigDir = dir
}

// configDir returns the configuration directory path (e.g. ~/.config/wickdl).
func configDir() (string, error) {
	if testConfigDir != "" {
		return testConfigDir, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "wickdl"), nil
}

// DefaultPath returns the default config file location, creating its
// parent directory if necessary.
func DefaultPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Default returns a Config with conservative, always-safe defaults.
func Default() Config {
	return Config{
		MaxWorkers: min(runtime.NumCPU()*2, 16),
		MaxMemory:  1 << 30, // 1 GiB
	}
}

// Load reads a TOML config file at path, falling back to Default() values
// for anything the file doesn't set, then applies environment variable
// overrides for the credential fields (so secrets need not live on disk).
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, wickerr.Wrap(wickerr.KindParse, err, "parsing config file %s", path)
		}
	} else if !os.IsNotExist(err) {
		return cfg, wickerr.Wrap(wickerr.KindIO, err, "reading config file %s", path)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WICKDL_CLIENT_ID"); v != "" {
		cfg.ClientID = v
	}
	if v := os.Getenv("WICKDL_CLIENT_SECRET"); v != "" {
		cfg.ClientSecret = v
	}
	if v := os.Getenv("WICKDL_IDENTITY_URL"); v != "" {
		cfg.IdentityURL = v
	}
}

// Save writes cfg to path in TOML form.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
