// Package config loads the engine configuration from a JSON or YAML
// file with optional FDC_ environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/manvalan/fdc-railway-engine/core/genetic"
	"github.com/manvalan/fdc-railway-engine/core/resolver"
	"github.com/manvalan/fdc-railway-engine/oracle"
)

type Config struct {
	Resolver resolver.Config `json:"resolver"`
	Genetic  genetic.Config  `json:"genetic"`
	Oracle   oracle.Config   `json:"oracle"`
	Metrics  MetricsConfig   `json:"metrics"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *MetricsConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":9090"
	}
}

// Default returns a ready-to-use configuration without reading a file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the file at path. Environment variables prefixed with FDC_
// override file values, with __ standing in for nesting (for example
// FDC_ORACLE__URL overrides oracle.url).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("FDC_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fdc_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Oracle.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Resolver.SetDefaults()
	c.Genetic.SetDefaults()
	c.Oracle.SetDefaults()
	c.Metrics.SetDefaults()
}
