// Package config loads stride's TOML configuration: athlete physiology,
// pipeline output settings and daemon settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	stride "stride-engine"
)

// Config holds all stride configuration.
type Config struct {
	OutputDir string `toml:"output_dir"`

	Athlete  AthleteConfig  `toml:"athlete"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Server   ServerConfig   `toml:"server"`
}

// AthleteConfig is the configured physiology. Zero values mean unknown and
// are omitted from the context handed to the engine.
type AthleteConfig struct {
	ThresholdHR      float64 `toml:"threshold_hr"`
	RestingHR        float64 `toml:"resting_hr"`
	MaxHR            float64 `toml:"max_hr"`
	ThresholdPaceSKm float64 `toml:"threshold_pace_s_km"`
}

type PipelineConfig struct {
	Format        string `toml:"format"` // parquet|csv
	Compress      bool   `toml:"compress"`
	Overwrite     bool   `toml:"overwrite"`
	BudgetMillis  int    `toml:"budget_millis"`
	WatchInterval int    `toml:"watch_debounce_millis"`
}

type ServerConfig struct {
	ListenAddr      string `toml:"listen_addr"`
	RedisAddr       string `toml:"redis_addr"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		OutputDir: "~/stride/analyses",
		Pipeline: PipelineConfig{
			Format:        "parquet",
			Compress:      true,
			Overwrite:     false,
			BudgetMillis:  350,
			WatchInterval: 500,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			RedisAddr:       "localhost:6379",
			CacheTTLSeconds: 3600,
		},
	}
}

// Load reads config from the standard path, falling back to defaults.
func Load() (Config, error) {
	cfg := DefaultConfig()

	for _, p := range configPaths() {
		if _, err := os.Stat(p); err == nil {
			if _, err := toml.DecodeFile(p, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", p, err)
			}
			break
		}
	}

	cfg.OutputDir = expandHome(cfg.OutputDir)
	return cfg, nil
}

func configPaths() []string {
	var paths []string

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "stride", "config.toml"))
	}

	home, _ := os.UserHomeDir()
	if home != "" {
		paths = append(paths, filepath.Join(home, ".config", "stride", "config.toml"))
	}

	return paths
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Physiology converts the configured athlete values into the engine's
// context, leaving unset values nil.
func (c Config) Physiology() *stride.PhysiologyContext {
	phys := &stride.PhysiologyContext{}
	known := false
	if c.Athlete.ThresholdHR > 0 {
		v := c.Athlete.ThresholdHR
		phys.ThresholdHR = &v
		known = true
	}
	if c.Athlete.RestingHR > 0 {
		v := c.Athlete.RestingHR
		phys.RestingHR = &v
		known = true
	}
	if c.Athlete.MaxHR > 0 {
		v := c.Athlete.MaxHR
		phys.MaxHR = &v
		known = true
	}
	if c.Athlete.ThresholdPaceSKm > 0 {
		v := c.Athlete.ThresholdPaceSKm
		phys.ThresholdPaceSKm = &v
		known = true
	}
	if !known {
		return nil
	}
	return phys
}
