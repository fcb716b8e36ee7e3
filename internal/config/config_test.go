package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"interview-scoring-service/internal/domain"
)

func TestLoadBuildsRegistryAndCatalog(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
scoring:
  default_profile: technical
  profiles:
    scenario:
      relevance: 0.5
      keyword: 0.5
  category_profiles:
    hr: behavioral
feedback:
  suggestions:
    grammar: "Read your answers back slowly"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Server.Port)
	}

	registry, err := cfg.ProfileRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if got := registry.Default().Weight(domain.DimensionKeyword); got != 0.35 {
		t.Fatalf("expected default to alias technical weights, keyword=%v", got)
	}
	if got := registry.ForCategory("hr").Name(); got != "behavioral" {
		t.Fatalf("expected hr -> behavioral, got %s", got)
	}
	if _, err := registry.Get("scenario"); err != nil {
		t.Fatalf("expected scenario profile: %v", err)
	}

	catalog := cfg.Catalog()
	if catalog.Suggestions["grammar"] != "Read your answers back slowly" {
		t.Fatalf("expected grammar suggestion override, got %q", catalog.Suggestions["grammar"])
	}
	if catalog.Suggestions["fluency"] == "" {
		t.Fatalf("expected built-in fluency suggestion to survive the merge")
	}
}

func TestProfileRegistryRejectsInvalidWeights(t *testing.T) {
	path := writeConfig(t, `
scoring:
  profiles:
    broken:
      relevance: 0.9
      grammar: 0.3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := cfg.ProfileRegistry(); !errors.Is(err, domain.ErrInvalidWeightProfile) {
		t.Fatalf("expected invalid weight profile, got %v", err)
	}
}

func TestProfileRegistryRejectsUnknownDefault(t *testing.T) {
	var cfg Config
	cfg.Scoring.DefaultProfile = "missing"
	if _, err := cfg.ProfileRegistry(); !errors.Is(err, domain.ErrUnknownProfile) {
		t.Fatalf("expected unknown profile, got %v", err)
	}
}

func TestShippedConfigIsValid(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := cfg.ProfileRegistry(); err != nil {
		t.Fatalf("registry: %v", err)
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("garbage", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback on parse error, got %v", got)
	}
	if got := TTLDuration("250ms", time.Minute); got != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", got)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
