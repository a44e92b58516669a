// Package prefs handles CLI preference persistence.
// Preferences are stored in ~/.config/storekeep/prefs.toml.
package prefs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds the CLI preferences.
type Prefs struct {
	// ServerURL is the catalog backend base URL.
	ServerURL string `toml:"server_url"`
	// DescribeEndpoint is the hosted text-generation endpoint.
	DescribeEndpoint string `toml:"describe_endpoint"`
}

const (
	defaultServerURL        = "http://localhost:3000"
	defaultDescribeEndpoint = "https://api-inference.huggingface.co/models/gpt2"
)

// Defaults returns the built-in preferences.
func Defaults() Prefs {
	return Prefs{
		ServerURL:        defaultServerURL,
		DescribeEndpoint: defaultDescribeEndpoint,
	}
}

// DefaultPath returns the preferences file path under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve config dir")
	}
	return filepath.Join(dir, "storekeep", "prefs.toml"), nil
}

// Load reads preferences from path. A missing or unreadable file degrades to
// defaults; blank fields are filled in.
func Load(path string) Prefs {
	p := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	if err := toml.Unmarshal(data, &p); err != nil {
		return Defaults()
	}

	if strings.TrimSpace(p.ServerURL) == "" {
		p.ServerURL = defaultServerURL
	}
	if strings.TrimSpace(p.DescribeEndpoint) == "" {
		p.DescribeEndpoint = defaultDescribeEndpoint
	}
	return p
}

// Save writes preferences to path, creating directories as needed.
func Save(path string, p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create prefs dir")
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal prefs")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write prefs")
	}
	return nil
}
