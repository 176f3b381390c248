package audio

import (
	"context"
	"time"
)

// Frames returns the channel of outgoing PCM frames (20ms each). It is
// closed when Run returns.
func (m *Mixer) Frames() <-chan []int16 {
	return m.frameCh
}

// Run mixes one frame per FrameDuration tick until ctx is cancelled.
// Silence is emitted while no voice plays so downstream encoders keep a
// steady clock.
func (m *Mixer) Run(ctx context.Context) {
	defer close(m.frameCh)

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !m.sendFrame(ctx, m.MixFrame()) {
			return
		}
	}
}

func (m *Mixer) sendFrame(ctx context.Context, frame []int16) bool {
	select {
	case m.frameCh <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}
