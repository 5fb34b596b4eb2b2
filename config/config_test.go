package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Pipeline.Format != "parquet" {
		t.Errorf("Pipeline.Format = %q, want parquet", cfg.Pipeline.Format)
	}
	if !cfg.Pipeline.Compress {
		t.Errorf("Pipeline.Compress should default to true")
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("Server.ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Physiology() != nil {
		t.Errorf("default athlete config should yield nil physiology")
	}
}

func TestLoad_NoConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Pipeline.Format != "parquet" {
		t.Errorf("missing config should fall back to defaults, got format %q", cfg.Pipeline.Format)
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfgDir := filepath.Join(dir, "stride")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := `
output_dir = "/tmp/stride-out"

[athlete]
threshold_hr = 171.0
resting_hr = 47.0
max_hr = 191.0

[pipeline]
format = "csv"
compress = false

[server]
listen_addr = ":9090"
`
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.OutputDir != "/tmp/stride-out" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.Pipeline.Format != "csv" || cfg.Pipeline.Compress {
		t.Errorf("pipeline section not applied: %+v", cfg.Pipeline)
	}
	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q", cfg.Server.ListenAddr)
	}

	phys := cfg.Physiology()
	if phys == nil || phys.ThresholdHR == nil || *phys.ThresholdHR != 171 {
		t.Fatalf("physiology not mapped: %+v", phys)
	}
	if phys.ThresholdPaceSKm != nil {
		t.Errorf("unset threshold pace must stay nil")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfgDir := filepath.Join(dir, "stride")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte("not [valid toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	if got := expandHome("~/stride"); got != filepath.Join(home, "stride") {
		t.Errorf("expandHome = %q", got)
	}
	if got := expandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute paths must pass through, got %q", got)
	}
}
