package engine

import (
	"context"
	"time"
)

// BufferHandle identifies a buffer loaded into a Backend.
type BufferHandle uint64

// VoiceHandle identifies one playing instance of a buffer.
type VoiceHandle uint64

// PlayOptions describes how a voice starts.
type PlayOptions struct {
	Volume  float64
	Looping bool
	// Pan is the static stereo position in [-1, 1]; nil leaves the voice
	// centred.
	Pan *float64
}

// Backend is the audio mixing/playback capability the coordinator drives.
// Methods taking a context may block until the backend confirms.
type Backend interface {
	LoadBuffer(ctx context.Context, wav []byte) (BufferHandle, error)
	Play(ctx context.Context, buf BufferHandle, opts PlayOptions) (VoiceHandle, error)
	FadeVolume(voice VoiceHandle, target float64, d time.Duration) error
	SetVolume(voice VoiceHandle, volume float64) error
	Stop(ctx context.Context, voice VoiceHandle) error
	DisposeBuffer(ctx context.Context, buf BufferHandle) error
}
