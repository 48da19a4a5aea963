// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

// Package config loads the application configuration in three layers:
// struct defaults, an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rvense/efvcompass/internal/api"
	"github.com/rvense/efvcompass/internal/corpus"
	"github.com/rvense/efvcompass/internal/identity"
	"github.com/rvense/efvcompass/internal/ingest"
	"github.com/rvense/efvcompass/internal/logging"
	"github.com/rvense/efvcompass/internal/recommend"
	"github.com/rvense/efvcompass/internal/scoring"
)

// DefaultConfigPaths lists the config file search order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/efvcompass/config.yaml",
	"/etc/efvcompass/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "EFVC_CONFIG"

// Config aggregates every component's configuration.
type Config struct {
	Logging   logging.Config         `koanf:"logging"`
	Identity  identity.Config        `koanf:"identity"`
	Scoring   scoring.Config         `koanf:"scoring"`
	Embedding scoring.ProviderConfig `koanf:"embedding"`
	Store     corpus.StoreConfig     `koanf:"store"`
	Recommend recommend.Config       `koanf:"recommend"`
	Ingest    ingest.Config          `koanf:"ingest"`
	Server    api.Config             `koanf:"server"`
}

func defaultConfig() *Config {
	return &Config{
		Logging:   logging.DefaultConfig(),
		Identity:  identity.Config{},
		Scoring:   scoring.DefaultConfig(),
		Embedding: scoring.DefaultProviderConfig(),
		Store:     corpus.DefaultStoreConfig(),
		Recommend: recommend.DefaultConfig(),
		Ingest:    ingest.DefaultConfig(),
		Server:    api.DefaultConfig(),
	}
}

// Load builds the configuration: defaults, then the config file when one
// exists, then EFVC_-prefixed environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("EFVC_", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate configuration: %w", err)
	}
	return cfg, nil
}

// Validate delegates to each component's validator.
func (c *Config) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	if c.Identity.DatacenterID < 0 || c.Identity.DatacenterID > 31 {
		return fmt.Errorf("identity: datacenter id %d out of range [0,31]", c.Identity.DatacenterID)
	}
	if c.Identity.WorkerID < 0 || c.Identity.WorkerID > 31 {
		return fmt.Errorf("identity: worker id %d out of range [0,31]", c.Identity.WorkerID)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: port %d out of range", c.Server.Port)
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps EFVC_ environment variables to koanf paths:
// EFVC_SERVER_PORT -> server.port, EFVC_SCORING_LEXICAL_WEIGHT ->
// scoring.lexical_weight. The first underscore separates the section;
// the rest stays underscored to match the koanf struct tags.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "EFVC_"))

	section, rest, found := strings.Cut(key, "_")
	if !found {
		return ""
	}
	switch section {
	case "recommend":
		// The cache block is nested one level deeper.
		if cacheKey, ok := strings.CutPrefix(rest, "cache_"); ok {
			return "recommend.cache." + cacheKey
		}
		return "recommend." + rest
	case "logging", "identity", "scoring", "embedding", "store", "ingest", "server":
		return section + "." + rest
	default:
		return ""
	}
}
