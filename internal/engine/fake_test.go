package engine

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errFake = errors.New("fake backend failure")

type fakeVoice struct {
	buf     BufferHandle
	volume  float64
	looping bool
	pan     *float64
}

type fadeCall struct {
	voice  VoiceHandle
	target float64
	d      time.Duration
}

// fakeBackend records every call and tracks live buffers and voices.
type fakeBackend struct {
	mu      sync.Mutex
	next    uint64
	buffers map[BufferHandle]int // handle -> wav length
	voices  map[VoiceHandle]*fakeVoice
	stopped []VoiceHandle
	fades   []fadeCall

	loads, plays int
	failLoadAt   int // 1-based call number that fails, 0 for never
	failPlayAt   int
	failFades    bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		buffers: make(map[BufferHandle]int),
		voices:  make(map[VoiceHandle]*fakeVoice),
	}
}

func (f *fakeBackend) LoadBuffer(_ context.Context, wav []byte) (BufferHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.loads == f.failLoadAt {
		return 0, errFake
	}
	f.next++
	h := BufferHandle(f.next)
	f.buffers[h] = len(wav)
	return h, nil
}

func (f *fakeBackend) Play(_ context.Context, buf BufferHandle, opts PlayOptions) (VoiceHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	if f.plays == f.failPlayAt {
		return 0, errFake
	}
	if _, ok := f.buffers[buf]; !ok {
		return 0, errors.New("unknown buffer")
	}
	f.next++
	h := VoiceHandle(f.next)
	f.voices[h] = &fakeVoice{buf: buf, volume: opts.Volume, looping: opts.Looping, pan: opts.Pan}
	return h, nil
}

func (f *fakeBackend) FadeVolume(v VoiceHandle, target float64, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFades {
		return errFake
	}
	fv, ok := f.voices[v]
	if !ok {
		return errors.New("unknown voice")
	}
	fv.volume = target
	f.fades = append(f.fades, fadeCall{voice: v, target: target, d: d})
	return nil
}

func (f *fakeBackend) SetVolume(v VoiceHandle, volume float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fv, ok := f.voices[v]
	if !ok {
		return errors.New("unknown voice")
	}
	fv.volume = volume
	return nil
}

func (f *fakeBackend) Stop(_ context.Context, v VoiceHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.voices, v)
	f.stopped = append(f.stopped, v)
	return nil
}

func (f *fakeBackend) DisposeBuffer(_ context.Context, b BufferHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.buffers, b)
	return nil
}

func (f *fakeBackend) liveVoices() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.voices)
}

func (f *fakeBackend) liveBuffers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buffers)
}

func (f *fakeBackend) voice(h VoiceHandle) fakeVoice {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.voices[h]; ok {
		return *v
	}
	return fakeVoice{}
}

func (f *fakeBackend) fadeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fades)
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads + f.plays
}
