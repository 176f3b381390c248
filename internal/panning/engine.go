// Package panning runs a periodic left/right sweep and reports per-channel
// volume multipliers on every tick.
package panning

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/logging"

	"github.com/satindergrewal/solfeggio/internal/fanout"
)

var (
	ErrAlreadyRunning = errors.New("panning: already running")
	ErrClosed         = errors.New("panning: engine closed")
)

// TickFunc receives the volume multipliers computed on each tick.
type TickFunc func(left, right float64)

// Engine owns at most one running sweep.
type Engine struct {
	log       logging.LeveledLogger
	now       func() time.Time
	positions *fanout.Broadcaster[float64]

	mu     sync.Mutex
	cur    *run
	closed bool

	position atomic.Uint64 // math.Float64bits of the last pan position
}

type run struct {
	cfg    Config
	start  time.Time
	onTick TickFunc
	cancel context.CancelFunc
	done   chan struct{}

	// callMu is held while a tick checks stopped and calls onTick.
	callMu  sync.Mutex
	stopped atomic.Bool
	inTick  atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l logging.LeveledLogger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock replaces the time source. The default is time.Now, whose
// monotonic reading makes elapsed time immune to wall-clock jumps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an idle engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:       time.Now,
		positions: fanout.NewBuffered[float64](32),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logging.NewDefaultLoggerFactory().NewLogger("panning")
	}
	return e
}

// Start begins ticking every cfg.UpdateIntervalMs. It fails with
// ErrAlreadyRunning if a sweep is active.
func (e *Engine) Start(cfg Config, onTick TickFunc) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.cur != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		cfg:    cfg,
		start:  e.now(),
		onTick: onTick,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	e.cur = r
	e.setPosition(0)

	go e.loop(ctx, r)
	e.log.Debugf("panning started: cycle=%.2fs depth=%.2f interval=%v", cfg.CycleSeconds, cfg.Depth, cfg.Interval())
	return nil
}

// Stop cancels the sweep. Once Stop returns no new onTick call begins.
// Calling it while idle is a no-op, and calling it from inside onTick does
// not block. Stop does not wait for an onTick call that is already running:
// a caller that must not race the callback has to check its own state
// inside onTick, as the engine package does with session ids.
func (e *Engine) Stop() {
	e.mu.Lock()
	r := e.cur
	e.cur = nil
	e.mu.Unlock()
	if r == nil {
		return
	}

	r.stopped.Store(true)
	r.cancel()
	if !r.inTick.Load() {
		// Wait out a tick that passed its stopped check before we set it.
		r.callMu.Lock()
		r.callMu.Unlock()
	}
	e.log.Debug("panning stopped")
}

// IsActive reports whether a sweep is running.
func (e *Engine) IsActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cur != nil
}

// Config returns the active sweep's config.
func (e *Engine) Config() (Config, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		return Config{}, false
	}
	return e.cur.cfg, true
}

// Position returns the last computed pan position, 0 if never started.
func (e *Engine) Position() float64 {
	return math.Float64frombits(e.position.Load())
}

// Subscribe returns a listener for pan positions, one per tick.
func (e *Engine) Subscribe() *fanout.Listener[float64] {
	return e.positions.Subscribe()
}

// Unsubscribe releases a listener obtained from Subscribe.
func (e *Engine) Unsubscribe(l *fanout.Listener[float64]) {
	e.positions.Unsubscribe(l)
}

// Close stops any sweep and releases subscribers. The engine cannot be
// restarted afterwards.
func (e *Engine) Close() {
	e.Stop()
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.positions.Close()
}

func (e *Engine) loop(ctx context.Context, r *run) {
	defer close(r.done)

	ticker := time.NewTicker(r.cfg.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !e.tick(r) {
			return
		}
	}
}

// tick computes the position for r and delivers it. It returns false once
// r has been stopped.
func (e *Engine) tick(r *run) bool {
	pan := Position(e.now().Sub(r.start), r.cfg)
	left, right := Volumes(pan)

	r.callMu.Lock()
	defer r.callMu.Unlock()
	if r.stopped.Load() {
		return false
	}

	e.setPosition(pan)
	e.positions.Publish(pan)
	if r.onTick != nil {
		r.inTick.Store(true)
		r.onTick(left, right)
		r.inTick.Store(false)
	}
	return !r.stopped.Load()
}

func (e *Engine) setPosition(p float64) {
	e.position.Store(math.Float64bits(p))
}
