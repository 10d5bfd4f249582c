// Package config loads and validates the indexer's YAML configuration.
// A malformed file is an InvalidConfig failure: it is rejected here,
// before the pipeline does any I/O against the repository.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codegraph-dev/codegraph/internal/lang"
)

// Config is the on-disk shape of the indexer's configuration.
type Config struct {
	IgnorePatterns []string `yaml:"ignore_patterns"`
	Languages      []string `yaml:"languages"`
	LogLevel       string   `yaml:"log_level"`
}

// Default returns a Config with every registered language enabled, no
// extra ignore patterns, and info-level logging.
func Default() *Config {
	return &Config{LogLevel: "info"}
}

// Load reads and validates a YAML config file at path. A missing file is
// not an error: it returns Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("invalid config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates and decodes raw YAML into a Config. Unknown keys and
// malformed ignore-pattern globs are rejected as invalid config.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	cfg := &Config{}
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every field names something the pipeline actually
// understands, without touching the filesystem.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "", "error", "warn", "info", "debug", "trace":
	default:
		return fmt.Errorf("invalid config: unknown log_level %q", c.LogLevel)
	}

	for _, p := range c.IgnorePatterns {
		pattern := strings.TrimPrefix(p, "!")
		if _, err := path.Match(pattern, "x"); err != nil {
			return fmt.Errorf("invalid config: malformed ignore pattern %q: %w", p, err)
		}
	}

	for _, l := range c.Languages {
		if lang.ForLanguage(lang.Language(l)) == nil {
			return fmt.Errorf("invalid config: unknown language %q", l)
		}
	}

	return nil
}
