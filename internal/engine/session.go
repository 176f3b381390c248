package engine

import (
	"fmt"

	"github.com/satindergrewal/solfeggio/internal/binaural"
	"github.com/satindergrewal/solfeggio/internal/panning"
	"github.com/satindergrewal/solfeggio/internal/synth"
)

// State is the coordinator's lifecycle position.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, v := range []State{StateIdle, StateLoading, StatePlaying} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("engine: unknown state %q", text)
}

// tone is one voice the coordinator will start.
type tone struct {
	hz     float64
	wave   synth.Waveform
	volume float64
	pan    *float64
}

// plan maps a preset to the voices it needs. A binaural pair replaces the
// layers: two hard-panned sines at master volume.
func plan(p Preset) []tone {
	if p.Binaural != nil {
		left, right := -1.0, 1.0
		return []tone{
			{hz: p.Binaural.LeftHz, wave: synth.Sine, volume: p.MasterVolume, pan: &left},
			{hz: p.Binaural.RightHz, wave: synth.Sine, volume: p.MasterVolume, pan: &right},
		}
	}
	tones := make([]tone, 0, len(p.Layers))
	for _, l := range p.Layers {
		tones = append(tones, tone{hz: l.FrequencyHz, wave: l.Waveform, volume: l.Volume * p.MasterVolume})
	}
	return tones
}

type voice struct {
	handle VoiceHandle
	base   float64
}

// session is the set of resources one PlayPreset call owns. All fields are
// guarded by Coordinator.mu once the session is installed.
type session struct {
	id       uint64
	preset   Preset
	buffers  []BufferHandle
	voices   []voice
	binaural bool
	pan      *panning.Config // nil while panning is off
}

// Snapshot is a point-in-time view of the coordinator.
type Snapshot struct {
	State       State           `json:"state"`
	Playing     bool            `json:"playing"`
	Preset      *Preset         `json:"preset,omitempty"`
	Beat        *binaural.Beat  `json:"beat,omitempty"`
	Voices      int             `json:"voices"`
	Panning     *panning.Config `json:"panning,omitempty"`
	PanPosition float64         `json:"pan_position"`
}
