// Package journey holds the built-in preset catalog and a scheduler that
// wanders between adjacent presets, dwelling a random time on each.
package journey

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/satindergrewal/solfeggio/internal/engine"
)

var ErrUnknownPreset = errors.New("journey: unknown preset")

// Player starts a preset. *engine.Coordinator implements it.
type Player interface {
	PlayPreset(ctx context.Context, p engine.Preset) error
}

// Config holds journey parameters.
type Config struct {
	StartingPreset string
	DwellMin       time.Duration
	DwellMax       time.Duration
	AutoJourney    bool
	// Poll is how often dwell expiry is checked. Defaults to one second.
	Poll time.Duration
}

// Status is the current state of the journey.
type Status struct {
	Current        string  `json:"preset"`
	AutoJourney    bool    `json:"auto_journey"`
	DwellRemaining float64 `json:"dwell_remaining"` // seconds
}

// Scheduler manages preset transitions.
type Scheduler struct {
	player Player
	cfg    Config

	mu       sync.RWMutex
	current  string
	auto     bool
	dwellEnd time.Time

	overrideCh chan string
	skipCh     chan struct{}
}

// NewScheduler creates a journey scheduler. An unknown starting preset
// falls back to "research".
func NewScheduler(player Player, cfg Config) *Scheduler {
	if !IsValid(cfg.StartingPreset) {
		cfg.StartingPreset = "research"
	}
	if cfg.Poll <= 0 {
		cfg.Poll = time.Second
	}
	return &Scheduler{
		player:     player,
		cfg:        cfg,
		current:    cfg.StartingPreset,
		auto:       cfg.AutoJourney,
		overrideCh: make(chan string, 1),
		skipCh:     make(chan struct{}, 1),
	}
}

// Status returns the current journey state.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	remaining := time.Until(s.dwellEnd).Seconds()
	if remaining < 0 || !s.auto {
		remaining = 0
	}
	return Status{
		Current:        s.current,
		AutoJourney:    s.auto,
		DwellRemaining: remaining,
	}
}

// SetPreset manually moves the journey to name.
func (s *Scheduler) SetPreset(name string) error {
	if _, ok := Lookup(name); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	// Replace any override not yet picked up.
	select {
	case <-s.overrideCh:
	default:
	}
	select {
	case s.overrideCh <- name:
	default:
	}
	return nil
}

// Skip moves to an adjacent preset now.
func (s *Scheduler) Skip() {
	select {
	case s.skipCh <- struct{}{}:
	default:
	}
}

// SetAutoJourney enables or disables automatic transitions.
func (s *Scheduler) SetAutoJourney(enabled bool) {
	s.mu.Lock()
	s.auto = enabled
	if enabled {
		s.resetDwell()
	}
	s.mu.Unlock()
}

// Run plays the starting preset and then handles transitions. Blocks
// until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.mu.Lock()
	s.resetDwell()
	start := s.current
	s.mu.Unlock()

	log.Printf("Journey started with preset: %s", start)
	s.play(ctx, start)

	ticker := time.NewTicker(s.cfg.Poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case name := <-s.overrideCh:
			s.mu.Lock()
			s.current = name
			s.resetDwell()
			s.mu.Unlock()
			log.Printf("Preset manually set to: %s", name)
			s.play(ctx, name)
		case <-s.skipCh:
			s.play(ctx, s.transition())
		case <-ticker.C:
			s.mu.RLock()
			due := s.auto && time.Now().After(s.dwellEnd)
			s.mu.RUnlock()
			if due {
				s.play(ctx, s.transition())
			}
		}
	}
}

func (s *Scheduler) play(ctx context.Context, name string) {
	p, ok := Lookup(name)
	if !ok {
		log.Printf("Journey: preset %q not in catalog", name)
		return
	}
	if err := s.player.PlayPreset(ctx, p); err != nil {
		log.Printf("Journey: play %s: %v", name, err)
	}
}

// transition moves to a random neighbour and returns its name.
func (s *Scheduler) transition() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	adj := Graph[s.current]
	if len(adj) == 0 {
		s.resetDwell()
		return s.current
	}

	next := adj[rand.IntN(len(adj))]
	log.Printf("Journey transition: %s -> %s", s.current, next)
	s.current = next
	s.resetDwell()
	return next
}

// resetDwell sets a new random dwell timer. Must be called with mu held.
func (s *Scheduler) resetDwell() {
	dwell := s.cfg.DwellMin
	if spread := s.cfg.DwellMax - s.cfg.DwellMin; spread > 0 {
		dwell += rand.N(spread)
	}
	s.dwellEnd = time.Now().Add(dwell)
}
