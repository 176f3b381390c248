package panning

import (
	"math"
	"time"
)

// Position returns depth*sin(2π·t/cycle) for elapsed time t.
//
// The phase is reduced modulo the cycle in integer nanoseconds before any
// float conversion, so the result is as precise after twelve hours as it is
// after twelve seconds.
func Position(elapsed time.Duration, cfg Config) float64 {
	cycle := cfg.Cycle()
	if cycle <= 0 || elapsed < 0 {
		return 0
	}
	into := elapsed % cycle
	return cfg.Depth * math.Sin(2*math.Pi*float64(into)/float64(cycle))
}

// Volumes converts a pan position into per-channel multipliers. Moving the
// image right attenuates the left channel and vice versa; centre is 1, 1.
func Volumes(pan float64) (left, right float64) {
	left = 1 - math.Max(0, pan)
	right = 1 - math.Max(0, -pan)
	return left, right
}
