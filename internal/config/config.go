package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/stateful/blocky/internal/version"
	"github.com/stateful/blocky/pkg/blocks/grammar"
)

const (
	TypeYAML = "yaml"
	TypeTOML = "toml"
)

const currentVersion = "v1"

// Config is the project configuration read from blocky.yaml or blocky.toml.
type Config struct {
	Version string `yaml:"version" toml:"version" validate:"required"`

	// Requires is a semver constraint the running blocky must satisfy.
	Requires string `yaml:"requires,omitempty" toml:"requires,omitempty"`

	// Format is the name of the grammar used when none is requested.
	Format        string `yaml:"format" toml:"format" validate:"required"`
	SniffLanguage bool   `yaml:"sniffLanguage" toml:"sniffLanguage"`

	Log      Log       `yaml:"log" toml:"log"`
	Grammars []Grammar `yaml:"grammars,omitempty" toml:"grammars,omitempty" validate:"dive"`
	Batch    Batch     `yaml:"batch" toml:"batch"`
}

type Log struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Verbose bool   `yaml:"verbose" toml:"verbose"`
	Path    string `yaml:"path,omitempty" toml:"path,omitempty"`
}

// Grammar derives a custom grammar from a built-in or previously declared
// one.
type Grammar struct {
	Name string `yaml:"name" toml:"name" validate:"required,excludesall=/\\ "`
	Base string `yaml:"base" toml:"base" validate:"required"`

	grammar.Overrides `yaml:",inline"`
}

type Batch struct {
	// Concurrency limits the number of files converted at once. Zero means
	// one per CPU.
	Concurrency int    `yaml:"concurrency" toml:"concurrency" validate:"gte=0,lte=256"`
	Pattern     string `yaml:"pattern" toml:"pattern" validate:"required"`
}

// Default returns a copy of the built-in configuration.
func Default() *Config {
	cfg := defaults
	cfg.Grammars = append([]Grammar(nil), defaults.Grammars...)
	return &cfg
}

// Registry returns the built-in grammars plus the ones declared in the
// configuration.
func (c *Config) Registry() (*grammar.Registry, error) {
	reg := grammar.NewRegistry()
	for _, g := range c.Grammars {
		if _, err := reg.Derive(g.Name, g.Base, g.Overrides); err != nil {
			return nil, errors.Wrapf(err, "grammar %q", g.Name)
		}
	}
	return reg, nil
}

// Parse reads one or more configuration documents of the given type. Later
// documents override the fields they set.
func Parse(configType string, data ...[]byte) (*Config, error) {
	switch configType {
	case TypeYAML, "yml":
		return ParseYAML(data...)
	case TypeTOML:
		return ParseTOML(data...)
	default:
		return nil, errors.Errorf("unsupported config type: %q", configType)
	}
}

// ParseFile reads a configuration file, detecting its type by extension.
func ParseFile(name string) (*Config, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return Parse(strings.TrimPrefix(filepath.Ext(name), "."), data)
}

func ParseYAML(data ...[]byte) (*Config, error) {
	return parse(Default(), unmarshalYAML, data...)
}

func ParseTOML(data ...[]byte) (*Config, error) {
	return parse(Default(), unmarshalTOML, data...)
}

func unmarshalYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

func unmarshalTOML(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

func parse(cfg *Config, unmarshal func([]byte, *Config) error, data ...[]byte) (*Config, error) {
	for _, d := range data {
		if len(bytes.TrimSpace(d)) == 0 {
			continue
		}

		// Each document must declare its version.
		cfg.Version = ""
		if err := unmarshal(d, cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config")
		}
		if cfg.Version != currentVersion {
			return nil, errors.Errorf("unknown version: %q", cfg.Version)
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to validate config")
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateConfig(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return errors.WithStack(err)
	}

	if cfg.Requires != "" {
		ok, err := version.Satisfies(cfg.Requires)
		if err != nil {
			return err
		}
		if !ok {
			return errors.Errorf("blocky %s does not satisfy %q", version.BuildVersion, cfg.Requires)
		}
	}

	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	if _, err := reg.Lookup(cfg.Format); err != nil {
		return errors.Wrap(err, "format")
	}
	return nil
}
