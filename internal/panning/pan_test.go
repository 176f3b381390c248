package panning

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func TestPosition_ZeroAtStart(t *testing.T) {
	assert.Equal(t, 0.0, Position(0, DefaultConfig()))
}

func TestPosition_QuarterCycleReachesDepth(t *testing.T) {
	for _, cycle := range []float64{0.1, 0.5, 1, 3.3, 10, 15} {
		for _, depth := range []float64{0, 0.2, 0.35, 1} {
			cfg := Config{CycleSeconds: cycle, Depth: depth, UpdateIntervalMs: 50}
			assert.InDelta(t, depth, Position(seconds(cycle/4), cfg), 1e-6, "cycle %v depth %v", cycle, depth)
			assert.InDelta(t, -depth, Position(seconds(3*cycle/4), cfg), 1e-6, "cycle %v depth %v", cycle, depth)
			assert.InDelta(t, 0, Position(seconds(cycle/2), cfg), 1e-6, "cycle %v depth %v", cycle, depth)
		}
	}
}

func TestPosition_Periodic(t *testing.T) {
	cfg := Config{CycleSeconds: 2.5, Depth: 0.8, UpdateIntervalMs: 50}
	for _, ms := range []int{0, 130, 610, 1999} {
		at := time.Duration(ms) * time.Millisecond
		assert.InDelta(t, Position(at, cfg), Position(at+cfg.Cycle()*7, cfg), 1e-9)
	}
}

func TestPosition_ResearchPresetQuarterCycle(t *testing.T) {
	cfg := DefaultConfig()
	pan := Position(seconds(cfg.CycleSeconds/4), cfg)
	assert.InDelta(t, 0.35, pan, 1e-6)

	left, right := Volumes(pan)
	assert.InDelta(t, 0.65, left, 1e-6)
	assert.Equal(t, 1.0, right)
}

func TestPosition_PreciseAfterTwelveHours(t *testing.T) {
	cfg := DefaultConfig()
	// 12h is an exact multiple of the 15s cycle, so a quarter cycle later
	// must still be the peak.
	at := 12*time.Hour + seconds(cfg.CycleSeconds/4)
	assert.InDelta(t, cfg.Depth, Position(at, cfg), 1e-9)
}

func TestPosition_NegativeElapsed(t *testing.T) {
	assert.Equal(t, 0.0, Position(-time.Second, DefaultConfig()))
}

func TestVolumes_Identities(t *testing.T) {
	for pan := -1.0; pan <= 1.0; pan += 0.05 {
		left, right := Volumes(pan)
		assert.InDelta(t, 1.0, left+max(0, pan), 1e-12)
		assert.InDelta(t, 1.0, right+max(0, -pan), 1e-12)
	}
	left, right := Volumes(0)
	assert.Equal(t, 1.0, left)
	assert.Equal(t, 1.0, right)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := []Config{
		{CycleSeconds: 0.05, Depth: 0.5, UpdateIntervalMs: 50},
		{CycleSeconds: 61, Depth: 0.5, UpdateIntervalMs: 50},
		{CycleSeconds: 5, Depth: -0.1, UpdateIntervalMs: 50},
		{CycleSeconds: 5, Depth: 1.1, UpdateIntervalMs: 50},
		{CycleSeconds: 5, Depth: 0.5, UpdateIntervalMs: 0},
		{CycleSeconds: 5, Depth: 0.5, UpdateIntervalMs: 5000},
		{CycleSeconds: math.NaN(), Depth: 0.5, UpdateIntervalMs: 50},
		{CycleSeconds: 15, Depth: math.NaN(), UpdateIntervalMs: 50},
		{CycleSeconds: math.Inf(1), Depth: 0.5, UpdateIntervalMs: 50},
	}
	for _, c := range bad {
		assert.ErrorIs(t, c.Validate(), ErrInvalidConfig, "%+v", c)
	}
}

func TestFadeDurationIsHalfInterval(t *testing.T) {
	cfg := Config{CycleSeconds: 5, Depth: 0.5, UpdateIntervalMs: 50}
	assert.Equal(t, 25*time.Millisecond, cfg.FadeDuration())

	cfg.UpdateIntervalMs = 120
	assert.Equal(t, 60*time.Millisecond, cfg.FadeDuration())
}
