package engine

import (
	"errors"
	"fmt"

	"github.com/satindergrewal/solfeggio/internal/binaural"
	"github.com/satindergrewal/solfeggio/internal/panning"
	"github.com/satindergrewal/solfeggio/internal/synth"
)

const (
	MaxLayers  = 3
	MinLayerHz = 20.0
	MaxLayerHz = 20000.0
)

var (
	ErrEmptyPreset     = errors.New("preset has no layers and no binaural pair")
	ErrTooManyLayers   = errors.New("preset has too many layers")
	ErrLayerFrequency  = errors.New("layer frequency out of range")
	ErrVolumeRange     = errors.New("volume out of range")
	ErrUnknownWaveform = synth.ErrUnknownWaveform
)

// Layer is one pure tone of a preset.
type Layer struct {
	FrequencyHz float64        `json:"frequency_hz" yaml:"frequency_hz"`
	Waveform    synth.Waveform `json:"waveform" yaml:"waveform"`
	Volume      float64        `json:"volume" yaml:"volume"`
	Label       string         `json:"label,omitempty" yaml:"label,omitempty"`
}

// Preset describes a whole session. When Binaural is set the layers are
// not played; the pair is.
type Preset struct {
	Name           string           `json:"name,omitempty" yaml:"name,omitempty"`
	Layers         []Layer          `json:"layers,omitempty" yaml:"layers,omitempty"`
	Binaural       *binaural.Config `json:"binaural,omitempty" yaml:"binaural,omitempty"`
	MasterVolume   float64          `json:"master_volume" yaml:"master_volume"`
	PanningEnabled bool             `json:"panning_enabled" yaml:"panning_enabled"`
	Panning        *panning.Config  `json:"panning,omitempty" yaml:"panning,omitempty"`
}

// Validate checks every field a session depends on.
func (p Preset) Validate() error {
	if len(p.Layers) > MaxLayers {
		return fmt.Errorf("%w: %d > %d", ErrTooManyLayers, len(p.Layers), MaxLayers)
	}
	if len(p.Layers) == 0 && p.Binaural == nil {
		return ErrEmptyPreset
	}
	if !volumeOK(p.MasterVolume) {
		return fmt.Errorf("%w: master %v", ErrVolumeRange, p.MasterVolume)
	}
	for i, l := range p.Layers {
		if !(l.FrequencyHz >= MinLayerHz && l.FrequencyHz <= MaxLayerHz) {
			return fmt.Errorf("%w: layer %d at %v Hz", ErrLayerFrequency, i, l.FrequencyHz)
		}
		if !l.Waveform.Valid() {
			return fmt.Errorf("%w: layer %d", ErrUnknownWaveform, i)
		}
		if !volumeOK(l.Volume) {
			return fmt.Errorf("%w: layer %d volume %v", ErrVolumeRange, i, l.Volume)
		}
	}
	if p.Binaural != nil {
		if err := p.Binaural.Validate(); err != nil {
			return err
		}
	}
	if p.Panning != nil {
		if err := p.Panning.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy.
func (p Preset) Clone() Preset {
	out := p
	if p.Layers != nil {
		out.Layers = append([]Layer(nil), p.Layers...)
	}
	if p.Binaural != nil {
		b := *p.Binaural
		out.Binaural = &b
	}
	if p.Panning != nil {
		c := *p.Panning
		out.Panning = &c
	}
	return out
}

// Beat returns the binaural beat of the preset, if it has a pair.
func (p Preset) Beat() (binaural.Beat, bool) {
	if p.Binaural == nil {
		return binaural.Beat{}, false
	}
	return p.Binaural.Beat(), true
}

func volumeOK(v float64) bool {
	return v >= 0 && v <= 1
}
