// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Recommend.Alpha != 0.6 {
		t.Errorf("alpha = %v, want 0.6", cfg.Recommend.Alpha)
	}
	if cfg.Recommend.DefaultKVariable != 8 {
		t.Errorf("default k variable = %d, want 8", cfg.Recommend.DefaultKVariable)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("EFVC_SERVER_PORT", "9090")
	t.Setenv("EFVC_RECOMMEND_ALPHA", "0.7")
	t.Setenv("EFVC_RECOMMEND_CACHE_ENABLED", "false")
	t.Setenv("EFVC_IDENTITY_WORKER_ID", "7")
	t.Setenv("EFVC_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Recommend.Alpha != 0.7 {
		t.Errorf("alpha = %v, want 0.7", cfg.Recommend.Alpha)
	}
	if cfg.Recommend.Cache.Enabled {
		t.Error("cache should be disabled by env override")
	}
	if cfg.Identity.WorkerID != 7 {
		t.Errorf("worker id = %d, want 7", cfg.Identity.WorkerID)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7070
scoring:
  lexical_weight: 0.5
  semantic_weight: 0.3
  recency_weight: 0.2
store:
  path: /data/efvcompass
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("server port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Scoring.LexicalWeight != 0.5 {
		t.Errorf("lexical weight = %v, want 0.5", cfg.Scoring.LexicalWeight)
	}
	if cfg.Store.Path != "/data/efvcompass" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}

	// Env still wins over the file.
	t.Setenv("EFVC_SERVER_PORT", "7071")
	cfg, err = Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7071 {
		t.Errorf("server port = %d, want env override 7071", cfg.Server.Port)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("EFVC_IDENTITY_WORKER_ID", "99")
	if _, err := Load(); err == nil {
		t.Error("expected error for out-of-range worker id")
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"EFVC_SERVER_PORT", "server.port"},
		{"EFVC_SERVER_RATE_LIMIT", "server.rate_limit"},
		{"EFVC_SCORING_RECENCY_HALF_LIFE_YEARS", "scoring.recency_half_life_years"},
		{"EFVC_RECOMMEND_CACHE_TTL", "recommend.cache.ttl"},
		{"EFVC_RECOMMEND_ABSENCE_PENALTY", "recommend.absence_penalty"},
		{"EFVC_UNRELATED_THING", ""},
		{"EFVC_NOSEPARATOR", ""},
	}

	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
