package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pion/logging"
	resampler "github.com/tphakala/go-audio-resampler"

	"github.com/satindergrewal/solfeggio/internal/engine"
	"github.com/satindergrewal/solfeggio/internal/synth"
)

// StopFade keeps a stopped voice from clicking.
const StopFade = 10 * time.Millisecond

var (
	ErrUnknownBuffer = errors.New("audio: unknown buffer")
	ErrUnknownVoice  = errors.New("audio: unknown voice")
	ErrVolumeRange   = errors.New("audio: volume out of range")
	ErrPanRange      = errors.New("audio: pan is not a number")
)

type voice struct {
	samples  []float64
	pos      int
	looping  bool
	panL     float64
	panR     float64
	gain     ramp
	stopping bool
}

// Mixer implements engine.Backend in software.
type Mixer struct {
	log     logging.LeveledLogger
	quality resampler.QualityPreset
	frameCh chan []int16

	mu      sync.Mutex
	next    uint64
	buffers map[engine.BufferHandle][]float64
	voices  map[engine.VoiceHandle]*voice
	frames  uint64
}

var _ engine.Backend = (*Mixer)(nil)

// MixerOption configures a Mixer.
type MixerOption func(*Mixer)

func WithLogger(l logging.LeveledLogger) MixerOption {
	return func(m *Mixer) { m.log = l }
}

// WithQuality sets the resampling quality for buffers not already at
// SampleRate.
func WithQuality(q resampler.QualityPreset) MixerOption {
	return func(m *Mixer) { m.quality = q }
}

// NewMixer creates an empty mixer.
func NewMixer(opts ...MixerOption) *Mixer {
	m := &Mixer{
		quality: resampler.QualityMedium,
		frameCh: make(chan []int16, 100),
		buffers: make(map[engine.BufferHandle][]float64),
		voices:  make(map[engine.VoiceHandle]*voice),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logging.NewDefaultLoggerFactory().NewLogger("mixer")
	}
	return m
}

// LoadBuffer decodes a WAV, converting it to mono at SampleRate.
func (m *Mixer) LoadBuffer(ctx context.Context, wav []byte) (engine.BufferHandle, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	samples, err := decodeLoop(wav, m.quality)
	if err != nil {
		return 0, fmt.Errorf("load buffer: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	h := engine.BufferHandle(m.next)
	m.buffers[h] = samples
	m.log.Debugf("buffer %d loaded: %d samples", h, len(samples))
	return h, nil
}

// Play starts a voice on a loaded buffer.
func (m *Mixer) Play(ctx context.Context, buf engine.BufferHandle, opts engine.PlayOptions) (engine.VoiceHandle, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !volumeOK(opts.Volume) {
		return 0, fmt.Errorf("%w: %v", ErrVolumeRange, opts.Volume)
	}
	if opts.Pan != nil && math.IsNaN(*opts.Pan) {
		return 0, fmt.Errorf("%w: %v", ErrPanRange, *opts.Pan)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	samples, ok := m.buffers[buf]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownBuffer, buf)
	}
	pan := 0.0
	if opts.Pan != nil {
		pan = *opts.Pan
	}
	l, r := PanGains(pan)
	m.next++
	h := engine.VoiceHandle(m.next)
	m.voices[h] = &voice{
		samples: samples,
		looping: opts.Looping,
		panL:    l,
		panR:    r,
		gain:    newRamp(opts.Volume, opts.Volume, 0),
	}
	return h, nil
}

// FadeVolume ramps a voice from its current gain to target over d.
func (m *Mixer) FadeVolume(h engine.VoiceHandle, target float64, d time.Duration) error {
	if !volumeOK(target) {
		return fmt.Errorf("%w: %v", ErrVolumeRange, target)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.voices[h]
	if !ok || v.stopping {
		return fmt.Errorf("%w: %d", ErrUnknownVoice, h)
	}
	v.gain = newRamp(v.gain.value(), target, durationSamples(d))
	return nil
}

// SetVolume changes a voice's gain immediately.
func (m *Mixer) SetVolume(h engine.VoiceHandle, volume float64) error {
	return m.FadeVolume(h, volume, 0)
}

// Stop fades a voice out over StopFade and then drops it.
func (m *Mixer) Stop(_ context.Context, h engine.VoiceHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.voices[h]
	if !ok || v.stopping {
		return fmt.Errorf("%w: %d", ErrUnknownVoice, h)
	}
	v.stopping = true
	v.gain = newRamp(v.gain.value(), 0, durationSamples(StopFade))
	return nil
}

// DisposeBuffer forgets a buffer. Voices still fading out keep their
// samples until they finish.
func (m *Mixer) DisposeBuffer(_ context.Context, buf engine.BufferHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buffers[buf]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBuffer, buf)
	}
	delete(m.buffers, buf)
	return nil
}

// MixFrame renders the next FrameSize stereo samples of every voice.
func (m *Mixer) MixFrame() []int16 {
	mix := make([]float64, FrameSamples)

	m.mu.Lock()
	for h, v := range m.voices {
		if !v.render(mix) {
			delete(m.voices, h)
		}
	}
	m.frames++
	m.mu.Unlock()

	return synth.ToPCM16(mix)
}

// render adds the voice into an interleaved stereo mix. It returns false
// once the voice has ended.
func (v *voice) render(mix []float64) bool {
	n := len(v.samples)
	for i := 0; i < len(mix); i += Channels {
		if v.pos >= n {
			if !v.looping {
				return false
			}
			v.pos = 0
		}
		s := v.samples[v.pos] * v.gain.next()
		mix[i] += s * v.panL
		mix[i+1] += s * v.panR
		v.pos++
	}
	if v.stopping && v.gain.finished() {
		return false
	}
	return v.looping || v.pos < n
}

// Stats reports current counts.
func (m *Mixer) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	active := 0
	for _, v := range m.voices {
		if !v.stopping {
			active++
		}
	}
	return Stats{
		Buffers:  len(m.buffers),
		Voices:   active,
		Frames:   m.frames,
		Position: time.Duration(m.frames) * FrameDuration,
	}
}

// PanGains returns equal-power channel gains for pan in [-1, 1].
// -1 is hard left, 0 centre, 1 hard right.
func PanGains(pan float64) (left, right float64) {
	pan = math.Max(-1, math.Min(1, pan))
	theta := (pan + 1) * math.Pi / 4
	return math.Cos(theta), math.Sin(theta)
}

// volumeOK rejects NaN along with values outside [0, 1].
func volumeOK(v float64) bool {
	return v >= 0 && v <= 1
}

func durationSamples(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d.Seconds() * SampleRate)
}
