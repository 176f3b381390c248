// Package synth renders pure waveforms into sample buffers and encodes them
// as playable 16-bit PCM WAV data.
package synth

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

const (
	// Headroom scales every rendered sample so several layers can be mixed
	// downstream without clipping.
	Headroom = 0.8

	DefaultSampleRate = 44100
)

var (
	ErrInvalidFrequency  = errors.New("synth: frequency must be positive")
	ErrInvalidDuration   = errors.New("synth: duration must be positive")
	ErrInvalidSampleRate = errors.New("synth: sample rate must be positive")
	ErrUnknownWaveform   = errors.New("synth: unknown waveform")
)

// Waveform is the shape of a rendered tone.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Triangle
	Sawtooth
)

var waveformNames = [...]string{"sine", "square", "triangle", "sawtooth"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// Valid reports whether w is one of the known shapes.
func (w Waveform) Valid() bool {
	return w >= Sine && w <= Sawtooth
}

// ParseWaveform maps a case-insensitive name ("sine", "saw", ...) to a Waveform.
func ParseWaveform(s string) (Waveform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sine", "sin":
		return Sine, nil
	case "square", "sq":
		return Square, nil
	case "triangle", "tri":
		return Triangle, nil
	case "sawtooth", "saw":
		return Sawtooth, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWaveform, s)
}

func (w Waveform) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownWaveform, int(w))
	}
	return []byte(w.String()), nil
}

func (w *Waveform) UnmarshalText(b []byte) error {
	parsed, err := ParseWaveform(string(b))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// NumSamples returns how many samples Render produces for the given duration.
func NumSamples(durationSeconds float64, sampleRate int) int {
	return int(float64(sampleRate) * durationSeconds)
}

// Render produces sampleRate*durationSeconds samples of the waveform at
// frequencyHz, each in [-Headroom, Headroom].
//
// Sawtooth derives its phase from frequencyHz*t directly, so a buffer whose
// frequency*duration is not an integer has a seam at the loop point. The
// other shapes share the same seam for non-integral cycle counts.
func Render(frequencyHz float64, w Waveform, durationSeconds float64, sampleRate int) ([]float64, error) {
	if frequencyHz <= 0 || math.IsNaN(frequencyHz) || math.IsInf(frequencyHz, 0) {
		return nil, fmt.Errorf("%w: %v Hz", ErrInvalidFrequency, frequencyHz)
	}
	if durationSeconds <= 0 || math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) {
		return nil, fmt.Errorf("%w: %vs", ErrInvalidDuration, durationSeconds)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	if !w.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownWaveform, int(w))
	}

	n := NumSamples(durationSeconds, sampleRate)
	out := make([]float64, n)
	rate := float64(sampleRate)

	for i := range out {
		t := float64(i) / rate
		phase := 2 * math.Pi * frequencyHz * t
		out[i] = sample(w, phase, frequencyHz*t)
	}

	floats.Scale(Headroom, out)
	return out, nil
}

// sample evaluates one unscaled sample. cycles is frequency*t, used by the
// sawtooth shape.
func sample(w Waveform, phase, cycles float64) float64 {
	switch w {
	case Square:
		if math.Sin(phase) >= 0 {
			return 1
		}
		return -1
	case Triangle:
		p := frac(phase / (2 * math.Pi))
		if p < 0.5 {
			return 4*p - 1
		}
		return 3 - 4*p
	case Sawtooth:
		return 2*frac(cycles) - 1
	default:
		return math.Sin(phase)
	}
}

func frac(x float64) float64 {
	return x - math.Floor(x)
}
