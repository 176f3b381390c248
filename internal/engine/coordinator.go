// Package engine owns the playback session: it renders preset layers,
// loads them into an audio Backend, starts looping voices and drives the
// panning sweep against them.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pion/logging"
	"golang.org/x/sync/errgroup"

	"github.com/satindergrewal/solfeggio/internal/fanout"
	"github.com/satindergrewal/solfeggio/internal/panning"
	"github.com/satindergrewal/solfeggio/internal/synth"
)

var errPanningOff = errors.New("panning is off")

const (
	DefaultRenderSeconds = 2.0
	// RestoreFade is how long voices take to return to base volume when
	// panning is switched off.
	RestoreFade = 100 * time.Millisecond
)

// Options configures a Coordinator.
type Options struct {
	Logger         logging.LeveledLogger
	SampleRate     int
	RenderSeconds  float64
	DefaultPanning panning.Config
	// Panner is used instead of a private panning engine when set.
	Panner *panning.Engine
}

// Coordinator manages at most one playback session at a time.
type Coordinator struct {
	backend        Backend
	log            logging.LeveledLogger
	sampleRate     int
	renderSeconds  float64
	defaultPanning panning.Config
	panner         *panning.Engine

	// opMu serializes the public operations.
	opMu sync.Mutex

	mu       sync.Mutex
	state    State
	sess     *session
	nextID   uint64
	disposed bool

	playing *fanout.Broadcaster[bool]
	presets *fanout.Broadcaster[*Preset]
}

// New creates an idle coordinator driving backend.
func New(backend Backend, opts Options) *Coordinator {
	c := &Coordinator{
		backend:        backend,
		log:            opts.Logger,
		sampleRate:     opts.SampleRate,
		renderSeconds:  opts.RenderSeconds,
		defaultPanning: opts.DefaultPanning,
		panner:         opts.Panner,
		playing:        fanout.NewBuffered[bool](16),
		presets:        fanout.NewBuffered[*Preset](16),
	}
	if c.log == nil {
		c.log = logging.NewDefaultLoggerFactory().NewLogger("engine")
	}
	if c.sampleRate <= 0 {
		c.sampleRate = synth.DefaultSampleRate
	}
	if c.renderSeconds <= 0 {
		c.renderSeconds = DefaultRenderSeconds
	}
	if c.defaultPanning == (panning.Config{}) {
		c.defaultPanning = panning.DefaultConfig()
	}
	if c.panner == nil {
		c.panner = panning.New()
	}
	return c
}

// PlayPreset replaces the current session with one playing p. Invalid
// presets are declined before anything is torn down. If the preset asks
// for panning and the sweep cannot start, the new session is torn down
// again and a Partial InvalidState error is returned.
func (c *Coordinator) PlayPreset(ctx context.Context, p Preset) error {
	const op = "play"
	if err := p.Validate(); err != nil {
		return declined(op, KindSynthesis, err)
	}
	preset := p.Clone()

	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.isDisposed() {
		return declined(op, KindInvalidState, ErrDisposed)
	}

	tones := plan(preset)
	wavs, err := c.render(ctx, tones)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return declined(op, KindCanceled, ctxErr)
		}
		return declined(op, KindSynthesis, err)
	}

	c.teardown(ctx)

	c.mu.Lock()
	c.state = StateLoading
	c.mu.Unlock()

	sess, err := c.load(ctx, tones, wavs)
	if err != nil {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		return partial(op, KindBackend, err)
	}
	sess.preset = preset
	sess.binaural = preset.Binaural != nil

	c.mu.Lock()
	c.nextID++
	sess.id = c.nextID
	c.sess = sess
	c.state = StatePlaying
	c.mu.Unlock()

	c.log.Infof("session %d: playing %q with %d voices", sess.id, preset.Name, len(sess.voices))
	c.playing.Publish(true)
	c.presets.Publish(&preset)

	if preset.PanningEnabled {
		cfg := c.defaultPanning
		if preset.Panning != nil {
			cfg = *preset.Panning
		}
		if err := c.startPanning(sess, cfg); err != nil {
			c.log.Warnf("session %d: panning not started: %v", sess.id, err)
			c.teardown(ctx)
			return partial(op, KindInvalidState, err)
		}
	}
	return nil
}

// render synthesizes every tone concurrently.
func (c *Coordinator) render(ctx context.Context, tones []tone) ([][]byte, error) {
	out := make([][]byte, len(tones))
	g, gctx := errgroup.WithContext(ctx)
	for i, tn := range tones {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := synth.Tone(tn.hz, tn.wave, c.renderSeconds, c.sampleRate)
			if err != nil {
				return err
			}
			out[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// load hands the rendered tones to the backend. Buffers are all loaded
// before any voice starts so the voices begin as close together as the
// backend allows. On failure everything acquired so far is released.
func (c *Coordinator) load(ctx context.Context, tones []tone, wavs [][]byte) (*session, error) {
	s := &session{}
	for _, data := range wavs {
		buf, err := c.backend.LoadBuffer(ctx, data)
		if err != nil {
			c.release(ctx, s)
			return nil, err
		}
		s.buffers = append(s.buffers, buf)
	}
	for i, tn := range tones {
		v, err := c.backend.Play(ctx, s.buffers[i], PlayOptions{Volume: tn.volume, Looping: true, Pan: tn.pan})
		if err != nil {
			c.release(ctx, s)
			return nil, err
		}
		s.voices = append(s.voices, voice{handle: v, base: tn.volume})
	}
	return s, nil
}

// teardown detaches the current session, stops panning and releases the
// session's voices and buffers. Backend errors are logged, never returned.
func (c *Coordinator) teardown(ctx context.Context) {
	c.mu.Lock()
	s := c.sess
	c.sess = nil
	c.state = StateIdle
	c.mu.Unlock()
	if s == nil {
		return
	}

	c.panner.Stop()
	c.release(ctx, s)
	c.log.Infof("session %d: stopped", s.id)
	c.playing.Publish(false)
	c.presets.Publish(nil)
}

func (c *Coordinator) release(ctx context.Context, s *session) {
	ctx = context.WithoutCancel(ctx)
	for _, v := range s.voices {
		if err := c.backend.Stop(ctx, v.handle); err != nil {
			c.log.Warnf("stop voice %d: %v", v.handle, err)
		}
	}
	for _, b := range s.buffers {
		if err := c.backend.DisposeBuffer(ctx, b); err != nil {
			c.log.Warnf("dispose buffer %d: %v", b, err)
		}
	}
	s.voices = nil
	s.buffers = nil
}

// Stop ends the current session. Stopping while idle is a no-op.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.isDisposed() {
		return declined("stop", KindInvalidState, ErrDisposed)
	}
	c.teardown(ctx)
	return nil
}

// Dispose stops everything and releases the panning engine and observers.
// The coordinator rejects every operation afterwards. Repeated calls are
// no-ops.
func (c *Coordinator) Dispose(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.isDisposed() {
		return
	}
	c.teardown(ctx)

	c.mu.Lock()
	c.disposed = true
	c.mu.Unlock()

	c.panner.Close()
	c.playing.Close()
	c.presets.Close()
	c.log.Debug("coordinator disposed")
}

// SetVolume sets every active voice to volume immediately and makes it the
// voices' new base volume.
func (c *Coordinator) SetVolume(volume float64) error {
	const op = "volume"
	if !volumeOK(volume) {
		return declined(op, KindSynthesis, ErrVolumeRange)
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.isDisposed() {
		return declined(op, KindInvalidState, ErrDisposed)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return nil
	}
	var errs []error
	for i := range c.sess.voices {
		v := &c.sess.voices[i]
		v.base = volume
		if err := c.backend.SetVolume(v.handle, volume); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return partial(op, KindBackend, errors.Join(errs...))
	}
	return nil
}

// SetPanningEnabled turns the sweep on or off for the current session.
// When enabling, cfg overrides the preset's config; a changed config
// restarts the sweep. Disabling fades every voice back to its base
// volume.
func (c *Coordinator) SetPanningEnabled(enabled bool, cfg *panning.Config) error {
	const op = "panning"
	if cfg != nil {
		if err := cfg.Validate(); err != nil {
			return declined(op, KindSynthesis, err)
		}
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()
	if c.isDisposed() {
		return declined(op, KindInvalidState, ErrDisposed)
	}

	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return declined(op, KindInvalidState, ErrNoSession)
	}

	if enabled {
		next := c.defaultPanning
		switch {
		case cfg != nil:
			next = *cfg
		case s.preset.Panning != nil:
			next = *s.preset.Panning
		}
		if cur, ok := c.panner.Config(); ok && cur == next {
			return nil
		}
		c.stopPanning(s)
		if err := c.startPanning(s, next); err != nil {
			return partial(op, KindInvalidState, err)
		}
		return nil
	}

	voices := c.stopPanning(s)
	var errs []error
	for _, v := range voices {
		if err := c.backend.FadeVolume(v.handle, v.base, RestoreFade); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return partial(op, KindBackend, errors.Join(errs...))
	}
	return nil
}

func (c *Coordinator) startPanning(s *session, cfg panning.Config) error {
	c.mu.Lock()
	s.pan = &cfg
	c.mu.Unlock()

	id := s.id
	err := c.panner.Start(cfg, func(left, right float64) {
		if err := c.applyPanning(id, left, right, true); err != nil {
			c.log.Debugf("pan tick dropped: %v", err)
		}
	})
	if err != nil {
		c.mu.Lock()
		s.pan = nil
		c.mu.Unlock()
	}
	return err
}

// stopPanning clears the session's panning state before stopping the
// sweep, so a tick racing the stop finds nothing to apply. It returns the
// session's voices.
func (c *Coordinator) stopPanning(s *session) []voice {
	c.mu.Lock()
	s.pan = nil
	voices := append([]voice(nil), s.voices...)
	c.mu.Unlock()
	c.panner.Stop()
	return voices
}

// ApplyPanning fades the current session's voices to the given channel
// multipliers. A binaural pair takes left on its first voice and right on
// its second; mono layers take the average of the two.
func (c *Coordinator) ApplyPanning(left, right float64) error {
	if !volumeOK(left) || !volumeOK(right) {
		return declined("apply panning", KindSynthesis, ErrVolumeRange)
	}
	c.mu.Lock()
	s := c.sess
	c.mu.Unlock()
	if s == nil {
		return declined("apply panning", KindInvalidState, ErrNoSession)
	}
	return c.applyPanning(s.id, left, right, false)
}

// applyPanning targets session id only. Sweep ticks pass sweep=true and
// are dropped once panning has been switched off for the session.
func (c *Coordinator) applyPanning(id uint64, left, right float64, sweep bool) error {
	const op = "apply panning"
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.sess
	if s == nil || s.id != id {
		return declined(op, KindInvalidState, ErrNoSession)
	}
	if sweep && s.pan == nil {
		return declined(op, KindInvalidState, errPanningOff)
	}

	fade := c.defaultPanning.FadeDuration()
	if s.pan != nil {
		fade = s.pan.FadeDuration()
	}

	var errs []error
	if s.binaural && len(s.voices) == 2 {
		errs = appendErr(errs, c.backend.FadeVolume(s.voices[0].handle, s.voices[0].base*left, fade))
		errs = appendErr(errs, c.backend.FadeVolume(s.voices[1].handle, s.voices[1].base*right, fade))
	} else {
		avg := (left + right) / 2
		for _, v := range s.voices {
			errs = appendErr(errs, c.backend.FadeVolume(v.handle, v.base*avg, fade))
		}
	}
	if len(errs) > 0 {
		return partial(op, KindBackend, errors.Join(errs...))
	}
	return nil
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		return append(errs, err)
	}
	return errs
}

func (c *Coordinator) isDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// State returns the lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsPlaying reports whether a session is active.
func (c *Coordinator) IsPlaying() bool {
	return c.State() == StatePlaying
}

// CurrentPreset returns a copy of the active preset.
func (c *Coordinator) CurrentPreset() (Preset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return Preset{}, false
	}
	return c.sess.preset.Clone(), true
}

// PanningEnabled reports whether the sweep is driving the current session.
func (c *Coordinator) PanningEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil && c.sess.pan != nil
}

// PanPosition returns the sweep's last position, 0 when panning is off.
func (c *Coordinator) PanPosition() float64 {
	if !c.PanningEnabled() {
		return 0
	}
	return c.panner.Position()
}

// Snapshot returns the full status in one consistent read.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	snap := Snapshot{State: c.state, Playing: c.state == StatePlaying}
	if s := c.sess; s != nil {
		p := s.preset.Clone()
		snap.Preset = &p
		snap.Voices = len(s.voices)
		if beat, ok := p.Beat(); ok {
			snap.Beat = &beat
		}
		if s.pan != nil {
			pc := *s.pan
			snap.Panning = &pc
		}
	}
	c.mu.Unlock()
	if snap.Panning != nil {
		snap.PanPosition = c.panner.Position()
	}
	return snap
}

// SubscribePlaying returns a listener receiving true when a session starts
// and false when it ends.
func (c *Coordinator) SubscribePlaying() *fanout.Listener[bool] {
	return c.playing.Subscribe()
}

func (c *Coordinator) UnsubscribePlaying(l *fanout.Listener[bool]) {
	c.playing.Unsubscribe(l)
}

// SubscribePreset returns a listener receiving each new preset, and nil
// when playback stops.
func (c *Coordinator) SubscribePreset() *fanout.Listener[*Preset] {
	return c.presets.Subscribe()
}

func (c *Coordinator) UnsubscribePreset(l *fanout.Listener[*Preset]) {
	c.presets.Unsubscribe(l)
}

// SubscribePan returns a listener receiving the pan position on every tick.
func (c *Coordinator) SubscribePan() *fanout.Listener[float64] {
	return c.panner.Subscribe()
}

func (c *Coordinator) UnsubscribePan(l *fanout.Listener[float64]) {
	c.panner.Unsubscribe(l)
}
