package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pion/logging"

	"github.com/satindergrewal/solfeggio/internal/api"
	"github.com/satindergrewal/solfeggio/internal/audio"
	"github.com/satindergrewal/solfeggio/internal/config"
	"github.com/satindergrewal/solfeggio/internal/device"
	"github.com/satindergrewal/solfeggio/internal/engine"
	"github.com/satindergrewal/solfeggio/internal/fanout"
	"github.com/satindergrewal/solfeggio/internal/journey"
	"github.com/satindergrewal/solfeggio/internal/panning"
	"github.com/satindergrewal/solfeggio/internal/stream"
)

var logLevels = map[string]logging.LogLevel{
	"disabled": logging.LogLevelDisabled,
	"error":    logging.LogLevelError,
	"warn":     logging.LogLevelWarn,
	"info":     logging.LogLevelInfo,
	"debug":    logging.LogLevelDebug,
	"trace":    logging.LogLevelTrace,
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loggers := logging.NewDefaultLoggerFactory()
	if lvl, ok := logLevels[cfg.LogLevel]; ok {
		loggers.DefaultLogLevel = lvl
	} else {
		log.Printf("Unknown log level %q, using info", cfg.LogLevel)
	}

	log.Println("solfeggio starting up...")

	// Software mixer: the audio backend the coordinator drives
	mixer := audio.NewMixer(audio.WithLogger(loggers.NewLogger("mixer")))
	go mixer.Run(ctx)

	// Fan-out PCM frames to every output
	frames := fanout.New[[]int16]()
	go frames.Run(ctx, mixer.Frames())

	defaultPan := cfg.Panning()
	if err := defaultPan.Validate(); err != nil {
		log.Printf("Panning config %+v invalid (%v), using defaults", defaultPan, err)
		defaultPan = panning.DefaultConfig()
	}

	coord := engine.New(mixer, engine.Options{
		Logger:         loggers.NewLogger("engine"),
		SampleRate:     cfg.SampleRate,
		RenderSeconds:  cfg.RenderSeconds,
		DefaultPanning: defaultPan,
		Panner:         panning.New(panning.WithLogger(loggers.NewLogger("panning"))),
	})

	// Local sound card (optional)
	deviceListeners := 0
	if cfg.DeviceOutput {
		out, err := device.Open(frames, loggers.NewLogger("device"))
		if err != nil {
			log.Printf("Audio device not available: %v", err)
		} else {
			defer out.Close()
			deviceListeners = 1
		}
	}

	// Journey scheduler
	dwellMin, dwellMax := cfg.Dwell()
	sched := journey.NewScheduler(coord, journey.Config{
		StartingPreset: cfg.StartingPreset,
		DwellMin:       dwellMin,
		DwellMax:       dwellMax,
		AutoJourney:    cfg.AutoJourney,
	})
	go sched.Run(ctx)

	// Streams
	webrtcHandler := stream.NewWebRTCHandler(frames, loggers, cfg.OpusBitrate)
	defer webrtcHandler.Close()
	eventsHandler := stream.NewEventsHandler(coord)
	go eventsHandler.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/stream", stream.NewHTTPHandler(frames, "solfeggio"))
	mux.Handle("/offer", webrtcHandler)
	mux.Handle("/ws", eventsHandler)

	api.New(coord, sched,
		api.WithStats(mixer.Stats),
		api.WithListeners(func() api.Listeners {
			peers := webrtcHandler.PeerCount()
			return api.Listeners{
				HTTP:   max(frames.ListenerCount()-peers-deviceListeners, 0),
				WebRTC: peers,
				Events: eventsHandler.ClientCount(),
			}
		}),
	).Register(mux)

	server := &http.Server{Addr: cfg.Addr(), Handler: mux}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Println("Shutting down...")
		server.Close()

		// Fade voices out and release every buffer before exit.
		disposeCtx, disposeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disposeCancel()
		coord.Dispose(disposeCtx)
	}()

	log.Printf("solfeggio live on %s", cfg.Addr())
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}
	<-done
}
