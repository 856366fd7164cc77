// Package config loads and validates the gate's YAML configuration.
//
// The file mirrors the embedded defaults.yml; keys missing from the file fall
// back to the defaults, so older files keep working when new messages are
// added. The merged result is validated against the embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ipgate/internal/messages"
)

//go:embed defaults.yml
var defaultsYAML []byte

//go:embed schema.cue
var schemaCUE string

// Config is the validated configuration.
type Config struct {
	Database    string            `yaml:"database" json:"database"`
	DebugMode   bool              `yaml:"debug-mode" json:"debug-mode"`
	KickMessage string            `yaml:"kick-message" json:"kick-message"`
	Messages    map[string]string `yaml:"messages" json:"messages"`
}

// fileConfig distinguishes absent keys from zero values.
type fileConfig struct {
	Database    *string           `yaml:"database"`
	DebugMode   *bool             `yaml:"debug-mode"`
	KickMessage *string           `yaml:"kick-message"`
	Messages    map[string]string `yaml:"messages"`
}

// Catalog returns the message catalog for this configuration.
func (c *Config) Catalog() *messages.Catalog {
	return messages.NewCatalog(c.Messages)
}

// Default returns the embedded default configuration.
func Default() *Config {
	var fc fileConfig
	if err := decodeStrict(defaultsYAML, &fc); err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	cfg := &Config{Messages: map[string]string{}}
	merge(cfg, &fc)
	return cfg
}

// Load reads path and merges it over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse merges a YAML document over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var fc fileConfig
	if err := decodeStrict(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default()
	merge(cfg, &fc)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrCreate loads path, first writing the defaults there if it does not
// exist yet.
func LoadOrCreate(path string) (*Config, error) {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create config dir: %w", err)
		}
		if err := os.WriteFile(path, defaultsYAML, 0o644); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat config: %w", err)
	}
	return Load(path)
}

// Validate checks cfg against the CUE schema.
func Validate(cfg *Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	value := schema.Unify(ctx.Encode(cfg))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// decodeStrict rejects unknown keys (catches typos like "kick_message").
func decodeStrict(data []byte, out any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		// An empty document leaves every key at its default.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func merge(cfg *Config, fc *fileConfig) {
	if fc.Database != nil {
		cfg.Database = *fc.Database
	}
	if fc.DebugMode != nil {
		cfg.DebugMode = *fc.DebugMode
	}
	if fc.KickMessage != nil {
		cfg.KickMessage = *fc.KickMessage
	}
	for k, v := range fc.Messages {
		cfg.Messages[k] = v
	}
}
