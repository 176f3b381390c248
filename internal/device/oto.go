//go:build !headless

package device

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/pion/logging"

	"github.com/satindergrewal/solfeggio/internal/audio"
	"github.com/satindergrewal/solfeggio/internal/fanout"
)

// Output feeds mixer frames to the default sound device.
type Output struct {
	log      logging.LeveledLogger
	source   *fanout.Broadcaster[[]int16]
	listener *fanout.Listener[[]int16]
	reader   *frameReader

	mu     sync.Mutex
	player *oto.Player
}

// Open starts playing frames published on source. Only one oto context
// may exist per process, so Open must be called at most once.
func Open(source *fanout.Broadcaster[[]int16], log logging.LeveledLogger) (*Output, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   audio.SampleRate,
		ChannelCount: audio.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   4 * audio.FrameDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	l := source.Subscribe()
	o := &Output{
		log:      log,
		source:   source,
		listener: l,
		reader:   newFrameReader(l.C),
	}
	o.player = ctx.NewPlayer(o.reader)
	o.player.Play()
	log.Infof("audio device open: %d Hz, %d channels", audio.SampleRate, audio.Channels)
	return o, nil
}

// Underruns returns how many times the device asked for audio before a
// frame was ready.
func (o *Output) Underruns() uint64 {
	return o.reader.underruns.Load()
}

// Close stops playback and unsubscribes from the mixer.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		return nil
	}
	o.source.Unsubscribe(o.listener)
	err := o.player.Close()
	o.player = nil
	o.log.Debugf("audio device closed, %d underruns", o.Underruns())
	return err
}
