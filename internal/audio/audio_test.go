package audio

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/satindergrewal/solfeggio/internal/engine"
	"github.com/satindergrewal/solfeggio/internal/synth"
)

// --- Constants ---

func TestConstants(t *testing.T) {
	// 48kHz * 20ms = 960 samples per channel
	if got := SampleRate * int(FrameDuration/time.Millisecond) / 1000; got != FrameSize {
		t.Errorf("FrameSize mismatch: want %d, got %d", got, FrameSize)
	}
	if FrameSamples != FrameSize*Channels {
		t.Errorf("FrameSamples = %d, want %d", FrameSamples, FrameSize*Channels)
	}
	if FrameBytes != FrameSamples*2 {
		t.Errorf("FrameBytes = %d, want %d", FrameBytes, FrameSamples*2)
	}
}

// --- Smoothstep ---

func TestSmoothstepBoundaries(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.5, 1},
	}
	for _, tt := range tests {
		got := Smoothstep(tt.input)
		if got != tt.want {
			t.Errorf("Smoothstep(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSmoothstepMonotonic(t *testing.T) {
	prev := 0.0
	for i := 1; i <= 100; i++ {
		x := float64(i) / 100.0
		val := Smoothstep(x)
		if val < prev {
			t.Errorf("Smoothstep not monotonic: f(%v)=%v < f(%v)=%v", x, val, float64(i-1)/100.0, prev)
		}
		prev = val
	}
}

func TestSmoothstepSymmetry(t *testing.T) {
	// Smoothstep is symmetric around 0.5: f(0.5+d) + f(0.5-d) = 1
	for _, d := range []float64{0.1, 0.2, 0.3, 0.4, 0.5} {
		sum := Smoothstep(0.5+d) + Smoothstep(0.5-d)
		if diff := sum - 1.0; diff > 1e-10 || diff < -1e-10 {
			t.Errorf("Smoothstep symmetry broken at d=%v: sum=%v", d, sum)
		}
	}
}

// --- ramp ---

func TestRampReachesTarget(t *testing.T) {
	r := newRamp(1, 0, 4)
	want := []float64{1 - Smoothstep(0.25), 0.5, 1 - Smoothstep(0.75), 0, 0}
	for i, w := range want {
		if got := r.next(); math.Abs(got-w) > 1e-12 {
			t.Errorf("step %d = %v, want %v", i, got, w)
		}
	}
	if !r.finished() {
		t.Error("ramp not finished after its length")
	}
}

func TestRampZeroLengthIsImmediate(t *testing.T) {
	r := newRamp(0.2, 0.9, 0)
	if got := r.value(); got != 0.9 {
		t.Errorf("value = %v, want 0.9", got)
	}
	if !r.finished() {
		t.Error("zero-length ramp should be finished")
	}
}

// --- PanGains ---

func TestPanGainsEqualPower(t *testing.T) {
	for _, p := range []float64{-1, -0.5, 0, 0.35, 1} {
		l, r := PanGains(p)
		if power := l*l + r*r; math.Abs(power-1) > 1e-12 {
			t.Errorf("PanGains(%v) power = %v, want 1", p, power)
		}
	}
	l, r := PanGains(-1)
	if l != 1 || r != 0 {
		t.Errorf("hard left = (%v, %v), want (1, 0)", l, r)
	}
	l, r = PanGains(0)
	if math.Abs(l-r) > 1e-12 {
		t.Errorf("centre = (%v, %v), want equal", l, r)
	}
	l2, r2 := PanGains(5)
	l3, r3 := PanGains(1)
	if l2 != l3 || r2 != r3 {
		t.Errorf("PanGains should clamp above 1")
	}
}

// --- Mixer ---

func constantWAV(t *testing.T, value int16, n, rate int) []byte {
	t.Helper()
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = value
	}
	wav, err := synth.EncodeWAV(samples, rate, 1)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	return wav
}

func ptr(f float64) *float64 { return &f }

func TestMixerHardPannedVoice(t *testing.T) {
	m := NewMixer()
	ctx := context.Background()

	buf, err := m.LoadBuffer(ctx, constantWAV(t, 16384, SampleRate/10, SampleRate))
	if err != nil {
		t.Fatalf("LoadBuffer: %v", err)
	}
	if _, err := m.Play(ctx, buf, engine.PlayOptions{Volume: 1, Looping: true, Pan: ptr(-1)}); err != nil {
		t.Fatalf("Play: %v", err)
	}

	frame := m.MixFrame()
	if len(frame) != FrameSamples {
		t.Fatalf("frame length = %d, want %d", len(frame), FrameSamples)
	}
	for i := 0; i < len(frame); i += 2 {
		if frame[i] != 16384 {
			t.Fatalf("left[%d] = %d, want 16384", i/2, frame[i])
		}
		if frame[i+1] != 0 {
			t.Fatalf("right[%d] = %d, want 0", i/2, frame[i+1])
		}
	}
}

func TestMixerCentredVoiceAndVolume(t *testing.T) {
	m := NewMixer()
	ctx := context.Background()

	buf, _ := m.LoadBuffer(ctx, constantWAV(t, 16384, SampleRate/10, SampleRate))
	v, err := m.Play(ctx, buf, engine.PlayOptions{Volume: 0.5, Looping: true})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	frame := m.MixFrame()
	// 0.5 signal * 0.5 volume * cos(pi/4)
	want := 0.25 * math.Cos(math.Pi/4) * 32767
	if d := math.Abs(float64(frame[0]) - want); d > 1 {
		t.Errorf("left = %d, want ~%.0f", frame[0], want)
	}
	if frame[0] != frame[1] {
		t.Errorf("centred voice unbalanced: %d vs %d", frame[0], frame[1])
	}

	if err := m.SetVolume(v, 0); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	frame = m.MixFrame()
	if frame[0] != 0 || frame[1] != 0 {
		t.Errorf("muted voice produced %d/%d", frame[0], frame[1])
	}
}

func TestMixerFadeIsGradual(t *testing.T) {
	m := NewMixer()
	ctx := context.Background()

	buf, _ := m.LoadBuffer(ctx, constantWAV(t, 16384, SampleRate/10, SampleRate))
	v, _ := m.Play(ctx, buf, engine.PlayOptions{Volume: 1, Looping: true, Pan: ptr(-1)})

	// Fade over exactly one frame.
	if err := m.FadeVolume(v, 0, FrameDuration); err != nil {
		t.Fatalf("FadeVolume: %v", err)
	}
	frame := m.MixFrame()
	first, mid, last := frame[0], frame[FrameSamples/2], frame[FrameSamples-2]
	if !(first > mid && mid > last) {
		t.Errorf("fade not decreasing: %d, %d, %d", first, mid, last)
	}
	if last != 0 {
		t.Errorf("fade did not reach 0: %d", last)
	}
}

func TestMixerStopFadesThenDrops(t *testing.T) {
	m := NewMixer()
	ctx := context.Background()

	buf, _ := m.LoadBuffer(ctx, constantWAV(t, 16384, SampleRate/10, SampleRate))
	v, _ := m.Play(ctx, buf, engine.PlayOptions{Volume: 1, Looping: true})
	if err := m.Stop(ctx, v); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := m.Stats().Voices; got != 0 {
		t.Errorf("active voices after Stop = %d, want 0", got)
	}
	if err := m.Stop(ctx, v); !errors.Is(err, ErrUnknownVoice) {
		t.Errorf("second Stop error = %v, want ErrUnknownVoice", err)
	}

	m.MixFrame() // 20ms > StopFade
	frame := m.MixFrame()
	for i, s := range frame {
		if s != 0 {
			t.Fatalf("sample %d = %d after stop, want silence", i, s)
		}
	}
	m.mu.Lock()
	n := len(m.voices)
	m.mu.Unlock()
	if n != 0 {
		t.Errorf("stopped voice still mixed: %d voices", n)
	}
}

func TestMixerOneShotVoiceEnds(t *testing.T) {
	m := NewMixer()
	ctx := context.Background()

	buf, _ := m.LoadBuffer(ctx, constantWAV(t, 1000, FrameSize/2, SampleRate))
	if _, err := m.Play(ctx, buf, engine.PlayOptions{Volume: 1}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	frame := m.MixFrame()
	if frame[0] == 0 {
		t.Error("one-shot voice silent on first frame")
	}
	if frame[FrameSamples-2] != 0 {
		t.Error("one-shot voice kept playing past its end")
	}
	if got := m.Stats().Voices; got != 0 {
		t.Errorf("voices = %d after one-shot ended, want 0", got)
	}
}

func TestMixerLoopWraps(t *testing.T) {
	m := NewMixer()
	ctx := context.Background()

	// 100-sample loop, shorter than a frame.
	buf, _ := m.LoadBuffer(ctx, constantWAV(t, 8000, 100, SampleRate))
	m.Play(ctx, buf, engine.PlayOptions{Volume: 1, Looping: true, Pan: ptr(-1)})
	frame := m.MixFrame()
	for i := 0; i < len(frame); i += 2 {
		if frame[i] == 0 {
			t.Fatalf("loop gap at sample %d", i/2)
		}
	}
}

func TestMixerErrors(t *testing.T) {
	m := NewMixer()
	ctx := context.Background()

	if _, err := m.LoadBuffer(ctx, []byte("nope")); !errors.Is(err, synth.ErrInvalidWAV) {
		t.Errorf("LoadBuffer garbage error = %v", err)
	}
	if _, err := m.Play(ctx, 42, engine.PlayOptions{Volume: 1}); !errors.Is(err, ErrUnknownBuffer) {
		t.Errorf("Play unknown buffer error = %v", err)
	}
	if err := m.DisposeBuffer(ctx, 42); !errors.Is(err, ErrUnknownBuffer) {
		t.Errorf("DisposeBuffer unknown error = %v", err)
	}
	if err := m.FadeVolume(42, 0.5, time.Second); !errors.Is(err, ErrUnknownVoice) {
		t.Errorf("FadeVolume unknown error = %v", err)
	}

	buf, _ := m.LoadBuffer(ctx, constantWAV(t, 1, 10, SampleRate))
	if _, err := m.Play(ctx, buf, engine.PlayOptions{Volume: 2}); !errors.Is(err, ErrVolumeRange) {
		t.Errorf("Play volume 2 error = %v", err)
	}
	if _, err := m.Play(ctx, buf, engine.PlayOptions{Volume: math.NaN()}); !errors.Is(err, ErrVolumeRange) {
		t.Errorf("Play volume NaN error = %v", err)
	}
	nanPan := math.NaN()
	if _, err := m.Play(ctx, buf, engine.PlayOptions{Volume: 1, Pan: &nanPan}); !errors.Is(err, ErrPanRange) {
		t.Errorf("Play pan NaN error = %v", err)
	}

	loud, _ := m.LoadBuffer(ctx, constantWAV(t, 16384, 100, SampleRate))
	v, err := m.Play(ctx, loud, engine.PlayOptions{Volume: 1, Looping: true})
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := m.FadeVolume(v, math.NaN(), 0); !errors.Is(err, ErrVolumeRange) {
		t.Errorf("FadeVolume NaN error = %v", err)
	}
	if err := m.SetVolume(v, math.NaN()); !errors.Is(err, ErrVolumeRange) {
		t.Errorf("SetVolume NaN error = %v", err)
	}
	if frame := m.MixFrame(); frame[0] == 0 {
		t.Error("voice silenced by a rejected NaN fade")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := m.Play(cancelled, buf, engine.PlayOptions{Volume: 1}); !errors.Is(err, context.Canceled) {
		t.Errorf("Play cancelled error = %v", err)
	}
}

func TestMixerDisposeKeepsPlayingVoice(t *testing.T) {
	m := NewMixer()
	ctx := context.Background()

	buf, _ := m.LoadBuffer(ctx, constantWAV(t, 16384, 1000, SampleRate))
	m.Play(ctx, buf, engine.PlayOptions{Volume: 1, Looping: true})
	if err := m.DisposeBuffer(ctx, buf); err != nil {
		t.Fatalf("DisposeBuffer: %v", err)
	}
	if got := m.Stats().Buffers; got != 0 {
		t.Errorf("buffers = %d, want 0", got)
	}
	if frame := m.MixFrame(); frame[0] == 0 {
		t.Error("voice went silent when its buffer was disposed")
	}
}

func TestLoadBufferResamples(t *testing.T) {
	m := NewMixer()
	// 0.1s at 44.1kHz becomes 4800 samples at 48kHz.
	buf, err := m.LoadBuffer(context.Background(), constantWAV(t, 0, 4410, 44100))
	if err != nil {
		t.Fatalf("LoadBuffer: %v", err)
	}
	m.mu.Lock()
	n := len(m.buffers[buf])
	m.mu.Unlock()
	if n != 4800 {
		t.Errorf("resampled length = %d, want 4800", n)
	}
}

func TestToMonoAveragesChannels(t *testing.T) {
	wav, err := synth.EncodeWAV([]int16{16384, 0, -16384, -16384}, SampleRate, 2)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	buf, err := synth.DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	got := toMono(buf)
	want := []float64{0.25, -0.5}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("mono[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// --- Run ---

func TestRunEmitsFramesAndCloses(t *testing.T) {
	m := NewMixer()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	select {
	case f := <-m.Frames():
		if len(f) != FrameSamples {
			t.Errorf("frame length = %d, want %d", len(f), FrameSamples)
		}
	case <-time.After(time.Second):
		t.Fatal("no frame from Run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	for range m.Frames() {
	}
	if m.Stats().Frames == 0 {
		t.Error("frame counter not advanced")
	}
}
