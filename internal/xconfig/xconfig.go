// Package xconfig loads $DBCROSSBAR_CONFIG_DIR/dbcrossbar.toml (§6).
// Parsing is done with github.com/BurntSushi/toml, grounded on
// Pieczasz-smf's own TOML-driven schema/config definitions.
package xconfig

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config matches §6's documented schema. toml.DecodeFile tolerates and
// silently ignores keys it doesn't know about, so a config file written
// by a newer dbcrossbar still loads under an older one.
type Config struct {
	Temporary []string `toml:"temporary"`
}

// Dir returns $DBCROSSBAR_CONFIG_DIR, defaulting to
// $HOME/.config/dbcrossbar when unset.
func Dir() (string, error) {
	if dir := os.Getenv("DBCROSSBAR_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "dbcrossbar"), nil
}

// Path returns Dir()/dbcrossbar.toml.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "dbcrossbar.toml"), nil
}

// Load reads and parses the config file at path. A missing file is not
// an error: it returns an empty Config, matching the CLI's "config add"
// command creating the file lazily on first write.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// AddTemporary appends scheme to cfg's temporary list if not already
// present (config add).
func AddTemporary(cfg *Config, scheme string) {
	for _, s := range cfg.Temporary {
		if s == scheme {
			return
		}
	}
	cfg.Temporary = append(cfg.Temporary, scheme)
}

// RemoveTemporary removes scheme from cfg's temporary list, if present
// (config rm).
func RemoveTemporary(cfg *Config, scheme string) {
	out := cfg.Temporary[:0]
	for _, s := range cfg.Temporary {
		if s != scheme {
			out = append(out, s)
		}
	}
	cfg.Temporary = out
}
