package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/satindergrewal/solfeggio/internal/panning"
)

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// Config holds all runtime configuration. Values come from built-in
// defaults, then an optional YAML file named by SOLFEGGIO_CONFIG, then
// SOLFEGGIO_* environment variables.
type Config struct {
	// Server
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	// Synthesis
	SampleRate    int     `yaml:"sample_rate"`
	RenderSeconds float64 `yaml:"render_seconds"` // length of each looped buffer

	// Panning defaults for presets that enable panning without a config
	PanCycleSeconds   float64       `yaml:"pan_cycle_seconds"`
	PanDepth          float64       `yaml:"pan_depth"`
	PanUpdateInterval time.Duration `yaml:"pan_update_interval"`

	// Outputs
	DeviceOutput bool   `yaml:"device_output"` // play the mix on the local sound card
	OpusBitrate  int    `yaml:"opus_bitrate"`
	LogLevel     string `yaml:"log_level"` // trace, debug, info, warn, error, disabled

	// Journey
	StartingPreset string `yaml:"starting_preset"`
	DwellMin       int    `yaml:"dwell_min"` // min seconds per preset
	DwellMax       int    `yaml:"dwell_max"` // max seconds per preset
	AutoJourney    bool   `yaml:"auto_journey"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		Port:              8080,
		Host:              "",
		SampleRate:        44100,
		RenderSeconds:     2,
		PanCycleSeconds:   panning.DefaultCycleSeconds,
		PanDepth:          panning.DefaultDepth,
		PanUpdateInterval: panning.DefaultUpdateIntervalMs * time.Millisecond,
		DeviceOutput:      false,
		OpusBitrate:       128000,
		LogLevel:          "info",
		StartingPreset:    "research",
		DwellMin:          300,
		DwellMax:          900,
		AutoJourney:       true,
	}
}

// Load reads configuration with sane defaults. A YAML file named by
// SOLFEGGIO_CONFIG is applied first; environment variables win over it.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("SOLFEGGIO_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = envInt("SOLFEGGIO_PORT", cfg.Port)
	cfg.Host = envStr("SOLFEGGIO_HOST", cfg.Host)
	cfg.SampleRate = envInt("SOLFEGGIO_SAMPLE_RATE", cfg.SampleRate)
	cfg.RenderSeconds = envFloat("SOLFEGGIO_RENDER_SECONDS", cfg.RenderSeconds)
	cfg.PanCycleSeconds = envFloat("SOLFEGGIO_PAN_CYCLE", cfg.PanCycleSeconds)
	cfg.PanDepth = envFloat("SOLFEGGIO_PAN_DEPTH", cfg.PanDepth)
	cfg.PanUpdateInterval = time.Duration(envInt("SOLFEGGIO_PAN_INTERVAL_MS", int(cfg.PanUpdateInterval/time.Millisecond))) * time.Millisecond
	cfg.DeviceOutput = envBool("SOLFEGGIO_DEVICE", cfg.DeviceOutput)
	cfg.OpusBitrate = envInt("SOLFEGGIO_OPUS_BITRATE", cfg.OpusBitrate)
	cfg.LogLevel = strings.ToLower(envStr("SOLFEGGIO_LOG_LEVEL", cfg.LogLevel))
	cfg.StartingPreset = envStr("SOLFEGGIO_PRESET", cfg.StartingPreset)
	cfg.DwellMin = envInt("SOLFEGGIO_DWELL_MIN", cfg.DwellMin)
	cfg.DwellMax = envInt("SOLFEGGIO_DWELL_MAX", cfg.DwellMax)
	cfg.AutoJourney = envBool("SOLFEGGIO_AUTO_JOURNEY", cfg.AutoJourney)

	if cfg.DwellMax < cfg.DwellMin {
		cfg.DwellMax = cfg.DwellMin
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Panning is the default panning config built from the Pan* fields.
func (c Config) Panning() panning.Config {
	return panning.Config{
		CycleSeconds:     c.PanCycleSeconds,
		Depth:            c.PanDepth,
		UpdateIntervalMs: int(c.PanUpdateInterval / time.Millisecond),
	}
}

// Dwell returns the journey dwell bounds as durations.
func (c Config) Dwell() (time.Duration, time.Duration) {
	return time.Duration(c.DwellMin) * time.Second, time.Duration(c.DwellMax) * time.Second
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
