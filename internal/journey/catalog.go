package journey

import (
	"slices"

	"github.com/satindergrewal/solfeggio/internal/binaural"
	"github.com/satindergrewal/solfeggio/internal/engine"
	"github.com/satindergrewal/solfeggio/internal/panning"
	"github.com/satindergrewal/solfeggio/internal/synth"
)

// Entry is a named built-in preset.
type Entry struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Band        string        `json:"band,omitempty"`
	Preset      engine.Preset `json:"preset"`
}

func solfeggio(hz float64) engine.Preset {
	return engine.Preset{
		Layers: []engine.Layer{
			{FrequencyHz: hz, Waveform: synth.Sine, Volume: 0.6, Label: "tone"},
			{FrequencyHz: hz / 2, Waveform: synth.Sine, Volume: 0.3, Label: "sub octave"},
		},
		MasterVolume: 0.7,
	}
}

func beat(carrierHz, beatHz float64, pan bool) engine.Preset {
	cfg := binaural.FromCarrier(carrierHz, beatHz)
	p := engine.Preset{Binaural: &cfg, MasterVolume: 0.6, PanningEnabled: pan}
	if pan {
		pc := panning.DefaultConfig()
		p.Panning = &pc
	}
	return p
}

// catalog is the compiled-in preset list. Graph edges refer to these names.
// Every frequency completes a whole number of cycles in a default-length
// buffer, so the loops restart without a seam.
var catalog = []Entry{
	{Name: "deep sleep", Description: "2 Hz delta beat on a low 100 Hz carrier, slow and heavy", Preset: beat(100, 2, false)},
	{Name: "delta restore", Description: "3.5 Hz delta beat on a 136 Hz carrier, just under the OM tone", Preset: beat(136, 3.5, false)},
	{Name: "theta dream", Description: "5 Hz theta beat on a 150 Hz carrier for drifting, hypnagogic states", Preset: beat(150, 5, false)},
	{Name: "research", Description: "7 Hz theta beat (200/207 Hz) with the slow 15 second stereo sweep", Preset: beat(200, 7, true)},
	{Name: "alpha calm", Description: "10 Hz alpha beat on a 200 Hz carrier, relaxed wakefulness", Preset: beat(200, 10, false)},
	{Name: "beta focus", Description: "18 Hz beta beat on a 250 Hz carrier for alert concentration", Preset: beat(250, 18, false)},
	{Name: "gamma insight", Description: "40 Hz gamma beat on a 300 Hz carrier", Preset: beat(300, 40, false)},
	{Name: "solfeggio 174", Description: "174 Hz foundation tone with its sub octave", Preset: solfeggio(174)},
	{Name: "solfeggio 285", Description: "285 Hz tone with its sub octave", Preset: solfeggio(285)},
	{Name: "solfeggio 396", Description: "396 Hz UT tone with its sub octave", Preset: solfeggio(396)},
	{Name: "solfeggio 417", Description: "417 Hz RE tone with its sub octave", Preset: solfeggio(417)},
	{Name: "solfeggio 528", Description: "528 Hz MI tone layered over 432 Hz", Preset: engine.Preset{
		Layers: []engine.Layer{
			{FrequencyHz: 528, Waveform: synth.Sine, Volume: 0.6, Label: "MI"},
			{FrequencyHz: 432, Waveform: synth.Sine, Volume: 0.4, Label: "432"},
		},
		MasterVolume: 0.7,
	}},
	{Name: "solfeggio 639", Description: "639 Hz FA tone with its sub octave", Preset: solfeggio(639)},
	{Name: "solfeggio 741", Description: "741 Hz SOL tone with its sub octave", Preset: solfeggio(741)},
	{Name: "solfeggio 852", Description: "852 Hz LA tone with its sub octave", Preset: solfeggio(852)},
	{Name: "solfeggio 963", Description: "963 Hz tone with a soft triangle sub octave", Preset: engine.Preset{
		Layers: []engine.Layer{
			{FrequencyHz: 963, Waveform: synth.Sine, Volume: 0.5, Label: "tone"},
			{FrequencyHz: 481.5, Waveform: synth.Triangle, Volume: 0.2, Label: "sub octave"},
		},
		MasterVolume: 0.6,
	}},
}

func init() {
	for i := range catalog {
		e := &catalog[i]
		e.Preset.Name = e.Name
		if b, ok := e.Preset.Beat(); ok {
			e.Band = b.Band.String()
		}
	}
}

// Lookup returns a copy of the named preset.
func Lookup(name string) (engine.Preset, bool) {
	for _, e := range catalog {
		if e.Name == name {
			return e.Preset.Clone(), true
		}
	}
	return engine.Preset{}, false
}

// Entries returns every built-in preset, sorted by name.
func Entries() []Entry {
	out := make([]Entry, len(catalog))
	for i, e := range catalog {
		e.Preset = e.Preset.Clone()
		out[i] = e
	}
	slices.SortFunc(out, func(a, b Entry) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}
