package audio

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-audio/audio"
	resampler "github.com/tphakala/go-audio-resampler"

	"github.com/satindergrewal/solfeggio/internal/synth"
)

var ErrEmptyBuffer = errors.New("audio: buffer has no samples")

// decodeLoop turns a PCM WAV into mono float samples at SampleRate.
func decodeLoop(wav []byte, quality resampler.QualityPreset) ([]float64, error) {
	buf, err := synth.DecodeWAV(wav)
	if err != nil {
		return nil, err
	}
	mono := toMono(buf)
	if len(mono) == 0 {
		return nil, ErrEmptyBuffer
	}
	rate := SampleRate
	if buf.Format != nil && buf.Format.SampleRate > 0 {
		rate = buf.Format.SampleRate
	}
	if rate == SampleRate {
		return mono, nil
	}
	return resampleLoop(mono, rate, quality)
}

// toMono scales integer PCM to [-1, 1] and averages the channels.
func toMono(buf *audio.IntBuffer) []float64 {
	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = BitDepth
	}
	scale := 1 / float64(int64(1)<<(depth-1))

	frames := len(buf.Data) / channels
	out := make([]float64, frames)
	for i := range out {
		var sum int
		for ch := 0; ch < channels; ch++ {
			sum += buf.Data[i*channels+ch]
		}
		out[i] = float64(sum) / float64(channels) * scale
	}
	return out
}

// resampleLoop converts a seamless loop to SampleRate. The loop is tiled
// three times and the middle copy kept, so the filter's edge transients
// never land inside the result and the loop point stays seamless.
func resampleLoop(loop []float64, inRate int, quality resampler.QualityPreset) ([]float64, error) {
	want := int(math.Round(float64(len(loop)) * SampleRate / float64(inRate)))
	if want == 0 {
		return nil, ErrEmptyBuffer
	}

	tiled := make([]float64, 0, 3*len(loop))
	for range 3 {
		tiled = append(tiled, loop...)
	}
	out, err := resampler.ResampleMono(tiled, float64(inRate), SampleRate, quality)
	if err != nil {
		return nil, fmt.Errorf("resample %d -> %d Hz: %w", inRate, SampleRate, err)
	}
	if len(out) < 2*want {
		return nil, fmt.Errorf("resample %d -> %d Hz: short output (%d samples)", inRate, SampleRate, len(out))
	}
	mid := make([]float64, want)
	copy(mid, out[want:2*want])
	return mid, nil
}
