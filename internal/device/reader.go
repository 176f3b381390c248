// Package device plays the mixed PCM stream on the local sound card.
package device

import (
	"io"
	"sync/atomic"

	"github.com/satindergrewal/solfeggio/internal/synth"
)

// frameReader adapts a channel of interleaved int16 frames to the
// io.Reader a sound card player pulls from. When no frame is ready it
// pads with silence instead of blocking the audio callback.
type frameReader struct {
	frames    <-chan []int16
	pending   []byte
	underruns atomic.Uint64
}

func newFrameReader(frames <-chan []int16) *frameReader {
	return &frameReader{frames: frames}
}

func (r *frameReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.pending) == 0 {
			select {
			case f, ok := <-r.frames:
				if !ok {
					if n == 0 {
						return 0, io.EOF
					}
					return n, nil
				}
				r.pending = synth.SamplesToBytes(f)
			default:
				r.underruns.Add(1)
				clear(p[n:])
				return len(p), nil
			}
		}
		c := copy(p[n:], r.pending)
		r.pending = r.pending[c:]
		n += c
	}
	return n, nil
}
