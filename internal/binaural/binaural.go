// Package binaural derives beat frequencies and brainwave bands from a
// left/right carrier pair.
package binaural

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	MinCarrierHz = 20.0
	MaxCarrierHz = 2000.0
)

// Upper bounds (inclusive) of each band. The Alpha/Beta boundary is 12 Hz;
// some references put it at 13 Hz.
const (
	deltaMax = 4.0
	thetaMax = 8.0
	alphaMax = 12.0
	betaMax  = 30.0
)

var (
	ErrCarrierOutOfRange = errors.New("binaural: carrier frequency out of range")
	ErrUnknownBand       = errors.New("binaural: unknown band")
)

// Band is a brainwave frequency band.
type Band int

const (
	Delta Band = iota
	Theta
	Alpha
	Beta
	Gamma
)

var bandNames = [...]string{"delta", "theta", "alpha", "beta", "gamma"}

func (b Band) String() string {
	if b < 0 || int(b) >= len(bandNames) {
		return fmt.Sprintf("band(%d)", int(b))
	}
	return bandNames[b]
}

func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Band) UnmarshalText(text []byte) error {
	v, err := ParseBand(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// ParseBand parses a band name such as "theta".
func ParseBand(s string) (Band, error) {
	for i, name := range bandNames {
		if strings.EqualFold(s, name) {
			return Band(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBand, s)
}

// Range returns the band's lower (exclusive, except Delta) and upper
// (inclusive) beat frequency. Gamma's upper bound is +Inf.
func (b Band) Range() (lowHz, highHz float64) {
	switch b {
	case Delta:
		return 0, deltaMax
	case Theta:
		return deltaMax, thetaMax
	case Alpha:
		return thetaMax, alphaMax
	case Beta:
		return alphaMax, betaMax
	default:
		return betaMax, math.Inf(1)
	}
}

// Classify maps a beat frequency to its band. First matching upper bound wins.
func Classify(beatHz float64) Band {
	switch {
	case beatHz <= deltaMax:
		return Delta
	case beatHz <= thetaMax:
		return Theta
	case beatHz <= alphaMax:
		return Alpha
	case beatHz <= betaMax:
		return Beta
	default:
		return Gamma
	}
}

// Beat is the perceived beat of a carrier pair.
type Beat struct {
	BeatHz float64 `json:"beat_hz"`
	Band   Band    `json:"band"`
}

// Derive returns |rightHz-leftHz| and its band.
func Derive(leftHz, rightHz float64) Beat {
	beat := math.Abs(rightHz - leftHz)
	return Beat{BeatHz: beat, Band: Classify(beat)}
}

// Config is a left/right carrier pair.
type Config struct {
	LeftHz  float64 `json:"left_hz" yaml:"left_hz"`
	RightHz float64 `json:"right_hz" yaml:"right_hz"`
}

// FromCarrier builds a pair with the left ear on carrierHz and the right
// ear beatHz above it.
func FromCarrier(carrierHz, beatHz float64) Config {
	return Config{LeftHz: carrierHz, RightHz: carrierHz + beatHz}
}

// Validate checks both carriers lie within [MinCarrierHz, MaxCarrierHz].
func (c Config) Validate() error {
	if !inRange(c.LeftHz) {
		return fmt.Errorf("%w: left %v Hz", ErrCarrierOutOfRange, c.LeftHz)
	}
	if !inRange(c.RightHz) {
		return fmt.Errorf("%w: right %v Hz", ErrCarrierOutOfRange, c.RightHz)
	}
	return nil
}

// Beat derives the beat of the pair.
func (c Config) Beat() Beat {
	return Derive(c.LeftHz, c.RightHz)
}

func inRange(hz float64) bool {
	return hz >= MinCarrierHz && hz <= MaxCarrierHz
}
