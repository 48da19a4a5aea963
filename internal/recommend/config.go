// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package recommend

import (
	"fmt"
	"time"
)

// Config holds the engine's fusion parameters. All values are supplied at
// construction so two engines with the same config rank identically.
type Config struct {
	// Alpha weighs the company score in hybrid fusion; the global score
	// gets 1-Alpha. Higher values favor company-specific evidence.
	Alpha float64 `koanf:"alpha" json:"alpha"`

	// AbsencePenalty multiplies the score of an item present in only one of
	// the two pools. Must be in (0, 1].
	AbsencePenalty float64 `koanf:"absence_penalty" json:"absence_penalty"`

	// LinkBonusWeight scales the ranking bonus an event earns when factors
	// or variables co-occur with it in the query context.
	LinkBonusWeight float64 `koanf:"link_bonus_weight" json:"link_bonus_weight"`

	// Default top-K per kind, applied when a request leaves the limit unset.
	DefaultKEvent    int `koanf:"default_k_event" json:"default_k_event"`
	DefaultKFactor   int `koanf:"default_k_factor" json:"default_k_factor"`
	DefaultKVariable int `koanf:"default_k_variable" json:"default_k_variable"`

	// MaxK caps any requested top-K.
	MaxK int `koanf:"max_k" json:"max_k"`

	Cache CacheConfig `koanf:"cache" json:"cache"`
}

// CacheConfig controls the per-request result cache.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled" json:"enabled"`
	TTL     time.Duration `koanf:"ttl" json:"ttl"`

	// MaxEntries bounds the cache; when full, new results are not cached.
	MaxEntries int `koanf:"max_entries" json:"max_entries"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Alpha:            0.6,
		AbsencePenalty:   0.8,
		LinkBonusWeight:  0.5,
		DefaultKEvent:    6,
		DefaultKFactor:   6,
		DefaultKVariable: 8,
		MaxK:             100,
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 1024,
		},
	}
}

// Validate checks parameter ranges.
func (c Config) Validate() error {
	if c.Alpha < 0 || c.Alpha > 1 {
		return fmt.Errorf("alpha %v out of range [0,1]", c.Alpha)
	}
	if c.AbsencePenalty <= 0 || c.AbsencePenalty > 1 {
		return fmt.Errorf("absence penalty %v out of range (0,1]", c.AbsencePenalty)
	}
	if c.LinkBonusWeight < 0 {
		return fmt.Errorf("negative link bonus weight %v", c.LinkBonusWeight)
	}
	if c.DefaultKEvent <= 0 || c.DefaultKFactor <= 0 || c.DefaultKVariable <= 0 {
		return fmt.Errorf("default top-K values must be positive")
	}
	if c.MaxK <= 0 {
		return fmt.Errorf("max top-K must be positive")
	}
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache TTL must be positive")
		}
		if c.Cache.MaxEntries <= 0 {
			return fmt.Errorf("cache max entries must be positive")
		}
	}
	return nil
}
