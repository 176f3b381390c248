package audio

// Smoothstep returns the smoothstep interpolation for t in [0,1].
// Formula: 3t^2 - 2t^3.
func Smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// ramp moves a gain from one value to another over a fixed number of
// samples along the smoothstep curve.
type ramp struct {
	from, to float64
	total    int
	done     int
}

func newRamp(from, to float64, samples int) ramp {
	if samples < 1 {
		return ramp{from: to, to: to}
	}
	return ramp{from: from, to: to, total: samples}
}

// next returns the gain for the next sample and advances.
func (r *ramp) next() float64 {
	if r.done >= r.total {
		return r.to
	}
	r.done++
	return r.from + (r.to-r.from)*Smoothstep(float64(r.done)/float64(r.total))
}

// value returns the current gain without advancing.
func (r *ramp) value() float64 {
	if r.done >= r.total {
		return r.to
	}
	return r.from + (r.to-r.from)*Smoothstep(float64(r.done)/float64(r.total))
}

func (r *ramp) finished() bool {
	return r.done >= r.total
}
