package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	defer os.Chdir(cwd)

	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir temp dir: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.GuidesDir != "guides" {
		t.Fatalf("expected default guides dir, got %q", cfg.Paths.GuidesDir)
	}
	if cfg.Source != "<defaults>" {
		t.Fatalf("expected default source marker, got %q", cfg.Source)
	}
	if cfg.Capture.DoubleClickIntervalMS != 500 {
		t.Fatalf("unexpected default double click interval: %d", cfg.Capture.DoubleClickIntervalMS)
	}
	if cfg.Capture.QueueSize != 64 {
		t.Fatalf("unexpected default queue size: %d", cfg.Capture.QueueSize)
	}
	if cfg.Describe.Provider != "heuristic" {
		t.Fatalf("unexpected default describe provider: %q", cfg.Describe.Provider)
	}
	if cfg.Serve.Addr != "127.0.0.1:8750" {
		t.Fatalf("unexpected default serve addr: %q", cfg.Serve.Addr)
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "paths:\n  guides_dir: my-guides\ncapture:\n  shortcuts_enabled: false\n  double_click_interval_ms: 350\n  screenshot_format: PNG\n  queue_size: 16\ndescribe:\n  provider: anthropic\n  model: claude-sonnet-4-5\nserve:\n  addr: 127.0.0.1:9000\nlogging:\n  level: DEBUG\n  format: console\n"

	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if got := cfg.Paths.GuidesDir; got != "my-guides" {
		t.Fatalf("unexpected guides dir: %q", got)
	}
	if cfg.Capture.ShortcutsEnabled {
		t.Fatalf("expected shortcut capture disabled")
	}
	if cfg.Capture.DoubleClickIntervalMS != 350 {
		t.Fatalf("unexpected double click interval: %d", cfg.Capture.DoubleClickIntervalMS)
	}
	if cfg.Capture.ScreenshotFormat != "png" {
		t.Fatalf("unexpected screenshot format: %q", cfg.Capture.ScreenshotFormat)
	}
	if cfg.Capture.QueueSize != 16 {
		t.Fatalf("unexpected queue size: %d", cfg.Capture.QueueSize)
	}
	if cfg.Describe.Provider != "anthropic" {
		t.Fatalf("unexpected describe provider: %q", cfg.Describe.Provider)
	}
	if cfg.Describe.Model != "claude-sonnet-4-5" {
		t.Fatalf("unexpected describe model: %q", cfg.Describe.Model)
	}
	if cfg.Serve.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected serve addr: %q", cfg.Serve.Addr)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
	if cfg.Source != cfgPath {
		t.Fatalf("expected source to equal path, got %q", cfg.Source)
	}
}

func TestUnknownKeyReturnsError(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "capture:\n  unsupported: true\n"

	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("expected error for unsupported key")
	}
}

func TestRejectsUnknownDescribeProvider(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "describe:\n  provider: mystery\n"

	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("expected error for unknown describe provider")
	}
}

func TestRejectsNonPositiveDoubleClickInterval(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "capture:\n  double_click_interval_ms: -5\n"

	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	// Non-positive values are normalized back to the default rather than fatal.
	if cfg.Capture.DoubleClickIntervalMS != 500 {
		t.Fatalf("expected normalized interval, got %d", cfg.Capture.DoubleClickIntervalMS)
	}
}
