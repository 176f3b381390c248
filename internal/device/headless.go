//go:build headless

package device

import (
	"errors"

	"github.com/pion/logging"

	"github.com/satindergrewal/solfeggio/internal/fanout"
)

var ErrUnavailable = errors.New("device: built without audio output")

type Output struct{}

func Open(_ *fanout.Broadcaster[[]int16], _ logging.LeveledLogger) (*Output, error) {
	return nil, ErrUnavailable
}

func (o *Output) Underruns() uint64 { return 0 }

func (o *Output) Close() error { return nil }
