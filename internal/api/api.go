// Package api serves the JSON control endpoints under /api.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/satindergrewal/solfeggio/internal/audio"
	"github.com/satindergrewal/solfeggio/internal/engine"
	"github.com/satindergrewal/solfeggio/internal/journey"
	"github.com/satindergrewal/solfeggio/internal/panning"
)

// Engine is the slice of *engine.Coordinator the API drives.
type Engine interface {
	PlayPreset(ctx context.Context, p engine.Preset) error
	Stop(ctx context.Context) error
	SetVolume(volume float64) error
	SetPanningEnabled(enabled bool, cfg *panning.Config) error
	Snapshot() engine.Snapshot
}

// Journey is the slice of *journey.Scheduler the API drives.
type Journey interface {
	Status() journey.Status
	SetPreset(name string) error
	Skip()
	SetAutoJourney(enabled bool)
}

// Listeners reports connected stream clients.
type Listeners struct {
	HTTP   int `json:"http"`
	WebRTC int `json:"webrtc"`
	Events int `json:"events"`
}

// Status is the body of GET /api/status.
type Status struct {
	engine.Snapshot
	Journey   journey.Status `json:"journey"`
	Mixer     audio.Stats    `json:"mixer"`
	Listeners Listeners      `json:"listeners"`
}

// Server holds the handlers' dependencies.
type Server struct {
	engine  Engine
	journey Journey

	stats     func() audio.Stats
	listeners func() Listeners
}

// Option configures a Server.
type Option func(*Server)

// WithStats reports mixer statistics in /api/status.
func WithStats(f func() audio.Stats) Option {
	return func(s *Server) { s.stats = f }
}

// WithListeners reports stream client counts in /api/status.
func WithListeners(f func() Listeners) Option {
	return func(s *Server) { s.listeners = f }
}

// New creates an API server.
func New(e Engine, j Journey, opts ...Option) *Server {
	s := &Server{engine: e, journey: j}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register adds the /api routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/presets", s.handlePresets)
	mux.HandleFunc("/api/play", post(s.handlePlay))
	mux.HandleFunc("/api/stop", post(s.handleStop))
	mux.HandleFunc("/api/volume", post(s.handleVolume))
	mux.HandleFunc("/api/panning", post(s.handlePanning))
	mux.HandleFunc("/api/journey", post(s.handleJourney))
	mux.HandleFunc("/api/skip", post(s.handleSkip))
}

func post(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := Status{
		Snapshot: s.engine.Snapshot(),
		Journey:  s.journey.Status(),
	}
	if s.stats != nil {
		st.Mixer = s.stats()
	}
	if s.listeners != nil {
		st.Listeners = s.listeners()
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, journey.Entries())
}

// handlePlay starts a catalog preset by name, or an inline preset. An
// inline preset pauses the journey so it is not replaced on the next dwell.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string         `json:"name"`
		Preset *engine.Preset `json:"preset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	switch {
	case req.Preset != nil:
		if err := s.engine.PlayPreset(r.Context(), *req.Preset); err != nil {
			writeEngineError(w, err)
			return
		}
		s.journey.SetAutoJourney(false)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "preset": req.Preset.Name})
	case req.Name != "":
		if err := s.journey.SetPreset(req.Name); err != nil {
			if errors.Is(err, journey.ErrUnknownPreset) {
				http.Error(w, "unknown preset", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "preset": req.Name})
	default:
		http.Error(w, "name or preset required", http.StatusBadRequest)
	}
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.journey.SetAutoJourney(false)
	if err := s.engine.Stop(r.Context()); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Volume *float64 `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Volume == nil {
		http.Error(w, "volume required", http.StatusBadRequest)
		return
	}
	if err := s.engine.SetVolume(*req.Volume); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "volume": *req.Volume})
}

func (s *Server) handlePanning(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool            `json:"enabled"`
		Config  *panning.Config `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := s.engine.SetPanningEnabled(req.Enabled, req.Config); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "panning": req.Enabled})
}

func (s *Server) handleJourney(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	s.journey.SetAutoJourney(req.Enabled)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "auto_journey": req.Enabled})
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	s.journey.Skip()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// statusFor maps an engine error kind to an HTTP status.
func statusFor(err error) int {
	switch engine.KindOf(err) {
	case engine.KindSynthesis:
		return http.StatusBadRequest
	case engine.KindInvalidState:
		return http.StatusConflict
	case engine.KindBackend:
		return http.StatusBadGateway
	case engine.KindCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.Printf("API: %v", err)
	}
	writeJSON(w, code, map[string]any{
		"ok":         false,
		"error":      err.Error(),
		"retry_safe": engine.IsRetrySafe(err),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
