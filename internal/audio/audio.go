// Package audio is a software mixing backend: it holds decoded loop
// buffers, mixes the playing voices with per-voice gain ramps and stereo
// pan, and emits 20ms PCM frames at real-time rate.
package audio

import "time"

const (
	SampleRate    = 48000
	Channels      = 2
	BitDepth      = 16
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 2     // bytes per frame (int16 = 2 bytes)
)

// Stats is a point-in-time view of the mixer.
type Stats struct {
	Buffers  int           `json:"buffers"`
	Voices   int           `json:"voices"`
	Frames   uint64        `json:"frames"`
	Position time.Duration `json:"position"`
}
