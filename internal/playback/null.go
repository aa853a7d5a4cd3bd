package playback

import (
	"context"
	"sync"
)

// NullTransport is the no-media backend. It tracks just enough state for the
// coordinator's bookkeeping to behave sensibly: loads succeed, play and pause
// flip the playing flag, and the position mirrors the last seek. Used when no
// real player backend is configured, and as a base for test doubles.
type NullTransport struct {
	mu       sync.Mutex
	track    Track
	playing  bool
	position int64
}

// NewNullTransport creates an idle null transport.
func NewNullTransport() *NullTransport {
	return &NullTransport{}
}

func (t *NullTransport) Load(_ context.Context, track Track) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.track = track
	t.playing = false
	t.position = 0
	return nil
}

func (t *NullTransport) Play(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = true
	return nil
}

func (t *NullTransport) Pause(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = false
	return nil
}

func (t *NullTransport) SeekTo(_ context.Context, positionMs int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.position = positionMs
	return nil
}

func (t *NullTransport) SkipBack(context.Context) error { return nil }

func (t *NullTransport) SkipForward(context.Context) error { return nil }

func (t *NullTransport) SetSpeed(context.Context, float64) error { return nil }

func (t *NullTransport) SetRepeat(context.Context, RepeatMode) error { return nil }

func (t *NullTransport) SetShuffle(context.Context, bool) error { return nil }

func (t *NullTransport) Status(context.Context) (Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state := StatePaused
	if t.playing {
		state = StatePlaying
	}
	if t.track.URL == "" {
		state = StateIdle
	}
	return Status{State: state, PositionMs: t.position}, nil
}

func (t *NullTransport) Stop(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = false
	t.position = 0
	t.track = Track{}
	return nil
}

func (t *NullTransport) Close() error { return nil }
