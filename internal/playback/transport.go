// Package playback coordinates the active media transport: queue navigation,
// position auto-save, sleep timer, and the observable playback snapshot.
package playback

import "context"

// State is the transport's coarse playback state.
type State int

const (
	StateIdle State = iota
	StatePreparing
	StatePlaying
	StatePaused
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreparing:
		return "preparing"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// RepeatMode is the transport-level repeat setting.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

// Track is a playable item with its display metadata.
type Track struct {
	BookID string
	URL    string
	Title  string
	Artist string
}

// Status is a point-in-time read of the transport.
type Status struct {
	State      State
	PositionMs int64
	DurationMs int64
}

// Playing reports whether the transport is actively advancing.
func (s Status) Playing() bool {
	return s.State == StatePlaying
}

// Transport is the media engine the coordinator drives. Skip increments for
// SkipBack and SkipForward are whatever the transport defines; the
// coordinator adds no increment logic of its own.
type Transport interface {
	Load(ctx context.Context, track Track) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	SeekTo(ctx context.Context, positionMs int64) error
	SkipBack(ctx context.Context) error
	SkipForward(ctx context.Context) error
	SetSpeed(ctx context.Context, speed float64) error
	SetRepeat(ctx context.Context, repeat RepeatMode) error
	SetShuffle(ctx context.Context, enabled bool) error
	Status(ctx context.Context) (Status, error)
	Stop(ctx context.Context) error
	Close() error
}
