package panning

import (
	"errors"
	"fmt"
	"time"
)

const (
	MinCycleSeconds = 0.1
	MaxCycleSeconds = 60.0

	DefaultCycleSeconds     = 15.0
	DefaultDepth            = 0.35
	DefaultUpdateIntervalMs = 50

	maxUpdateIntervalMs = 1000
)

var ErrInvalidConfig = errors.New("panning: invalid config")

// Config shapes one panning run. It is immutable while the run is active;
// changing it takes a Stop and a new Start.
type Config struct {
	CycleSeconds     float64 `json:"cycle_seconds" yaml:"cycle_seconds"`
	Depth            float64 `json:"depth" yaml:"depth"`
	UpdateIntervalMs int     `json:"update_interval_ms" yaml:"update_interval_ms"`
}

// DefaultConfig is the research preset: a slow 15s sweep reaching 35% of
// full excursion, updated every 50ms.
func DefaultConfig() Config {
	return Config{
		CycleSeconds:     DefaultCycleSeconds,
		Depth:            DefaultDepth,
		UpdateIntervalMs: DefaultUpdateIntervalMs,
	}
}

// Validate rejects configs outside the supported ranges.
func (c Config) Validate() error {
	if !(c.CycleSeconds >= MinCycleSeconds && c.CycleSeconds <= MaxCycleSeconds) {
		return fmt.Errorf("%w: cycle %vs not in [%v, %v]", ErrInvalidConfig, c.CycleSeconds, MinCycleSeconds, MaxCycleSeconds)
	}
	if !(c.Depth >= 0 && c.Depth <= 1) {
		return fmt.Errorf("%w: depth %v not in [0, 1]", ErrInvalidConfig, c.Depth)
	}
	if c.UpdateIntervalMs <= 0 || c.UpdateIntervalMs > maxUpdateIntervalMs {
		return fmt.Errorf("%w: update interval %dms not in [1, %d]", ErrInvalidConfig, c.UpdateIntervalMs, maxUpdateIntervalMs)
	}
	return nil
}

// Interval is the tick period.
func (c Config) Interval() time.Duration {
	return time.Duration(c.UpdateIntervalMs) * time.Millisecond
}

// Cycle is the sweep period.
func (c Config) Cycle() time.Duration {
	return time.Duration(c.CycleSeconds * float64(time.Second))
}

// FadeDuration is how long each volume change should ramp: half a tick, so
// a fade always finishes before the next one starts.
func (c Config) FadeDuration() time.Duration {
	return c.Interval() / 2
}
