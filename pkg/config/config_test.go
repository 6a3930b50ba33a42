package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("api_keys:\n  google: file-key\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.GoogleAPIKey != "file-key" {
		t.Fatalf("google key = %q, want %q", cfg.GoogleAPIKey, "file-key")
	}
	if cfg.ConfidenceThreshold != DefaultConfidenceThreshold {
		t.Fatalf("threshold = %v, want default %v", cfg.ConfidenceThreshold, DefaultConfidenceThreshold)
	}
	if cfg.StageTimeout != DefaultStageTimeout {
		t.Fatalf("stage timeout = %v, want default %v", cfg.StageTimeout, DefaultStageTimeout)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("api_keys:\n  groq: file-key\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("GROQ_API_KEY", "env-key")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.GroqAPIKey != "env-key" {
		t.Fatalf("groq key = %q, want env override", cfg.GroqAPIKey)
	}
}

func TestPipelineSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `pipeline:
  confidence_threshold: 0.9
  stage_timeout_seconds: 10
  capabilities:
    solve:
      adapter: groq
      model: llama-3.3-70b-versatile
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.ConfidenceThreshold != 0.9 {
		t.Fatalf("threshold = %v, want 0.9", cfg.ConfidenceThreshold)
	}
	if cfg.StageTimeout != 10*time.Second {
		t.Fatalf("stage timeout = %v, want 10s", cfg.StageTimeout)
	}
	if cfg.Capabilities.Solve.Adapter != "groq" {
		t.Fatalf("solve adapter = %q, want groq", cfg.Capabilities.Solve.Adapter)
	}
}

func TestBadThresholdFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("pipeline:\n  confidence_threshold: 3.5\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.ConfidenceThreshold != DefaultConfidenceThreshold {
		t.Fatalf("threshold = %v, want default", cfg.ConfidenceThreshold)
	}
}

func TestHasAdapter(t *testing.T) {
	cfg := &Config{GoogleAPIKey: "k"}
	if !cfg.HasAdapter("google") {
		t.Fatalf("expected google adapter available")
	}
	if cfg.HasAdapter("groq") {
		t.Fatalf("groq adapter should not be available")
	}
	if cfg.HasAdapter("unknown") {
		t.Fatalf("unknown adapter should never be available")
	}
}
