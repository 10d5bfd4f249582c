package config

import (
	"path/filepath"
	"testing"
)

func TestParseValidConfig(t *testing.T) {
	cfg, err := Parse([]byte(`
ignore_patterns:
  - vendor/
  - "!vendor/keep"
languages:
  - go
  - python
log_level: debug
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if len(cfg.Languages) != 2 || cfg.Languages[0] != "go" {
		t.Errorf("Languages = %v, want [go python]", cfg.Languages)
	}
}

func TestParseRejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte("unknown_field: true\n"))
	if err == nil {
		t.Fatal("expected an error for an unknown top-level key")
	}
}

func TestParseRejectsUnknownLanguage(t *testing.T) {
	_, err := Parse([]byte("languages:\n  - cobol\n"))
	if err == nil {
		t.Fatal("expected an error for an unregistered language")
	}
}

func TestParseRejectsMalformedIgnorePattern(t *testing.T) {
	_, err := Parse([]byte("ignore_patterns:\n  - \"[unclosed\"\n"))
	if err == nil {
		t.Fatal("expected an error for a malformed glob")
	}
}

func TestParseRejectsUnknownLogLevel(t *testing.T) {
	_, err := Parse([]byte("log_level: verbose\n"))
	if err == nil {
		t.Fatal("expected an error for an unknown log_level")
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}
