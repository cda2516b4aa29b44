// Package config loads optional settings from <data-dir>/config.yaml.
// Environment variables always win over file values; flags win over
// both at the command layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up inside the data directory.
const FileName = "config.yaml"

// Config mirrors the config.yaml shape. The zero value is a valid
// configuration: every accessor falls back to its default.
type Config struct {
	Embed struct {
		Endpoint string `yaml:"endpoint"`
		Model    string `yaml:"model"`
	} `yaml:"embed"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads the config file under dataDir. A missing file yields an
// empty config and no error; a malformed one is an error.
func Load(dataDir string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(filepath.Join(dataDir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	return &cfg, nil
}

// EmbedEndpoint resolves the embedding provider address. An empty
// result means the provider default.
func (c *Config) EmbedEndpoint() string {
	if env := os.Getenv("MNEMON_EMBED_ENDPOINT"); env != "" {
		return env
	}
	return c.Embed.Endpoint
}

// EmbedModel resolves the embedding model name. An empty result means
// the provider default.
func (c *Config) EmbedModel() string {
	if env := os.Getenv("MNEMON_EMBED_MODEL"); env != "" {
		return env
	}
	return c.Embed.Model
}

// LogLevel resolves the diagnostic log level.
func (c *Config) LogLevel() string {
	if env := os.Getenv("MNEMON_LOG"); env != "" {
		return env
	}
	return c.Log.Level
}
