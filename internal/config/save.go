package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// SaveTo writes the config to path, as TOML for .toml files and YAML
// otherwise.
func (c *Config) SaveTo(path string) error {
	// Create parent directory if needed
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := toml.NewEncoder(f).Encode(c); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
