// Package sse implements Server-Sent Events for pushing playback and
// per-user state changes to connected clients.
package sse

import (
	"time"

	"github.com/fablesound/fable-server/internal/domain"
	"github.com/fablesound/fable-server/internal/playback"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventPlayerSnapshot carries the current playback snapshot.
	EventPlayerSnapshot EventType = "player.snapshot"

	// EventBookmarksChanged carries the active user's bookmark list.
	EventBookmarksChanged EventType = "bookmarks.changed"
	// EventPositionsChanged carries the active user's positions by book ID.
	EventPositionsChanged EventType = "positions.changed"
	// EventPlaylistsChanged carries the active user's playlists.
	EventPlaylistsChanged EventType = "playlists.changed"
	// EventRecentChanged carries the active user's recently played list.
	EventRecentChanged EventType = "recent.changed"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients. The Data field holds
// the event payload as a JSON-marshalable value.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// NewEvent creates an event of the given type stamped with the current time.
func NewEvent(eventType EventType, data any) Event {
	return Event{
		Timestamp: time.Now(),
		Data:      data,
		Type:      eventType,
	}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return NewEvent(EventHeartbeat, nil)
}

// NewPlayerSnapshotEvent creates a playback snapshot event.
func NewPlayerSnapshotEvent(snapshot playback.Snapshot) Event {
	return NewEvent(EventPlayerSnapshot, snapshot)
}

// NewBookmarksChangedEvent creates a bookmark list event.
func NewBookmarksChangedEvent(bookmarks []domain.Bookmark) Event {
	return NewEvent(EventBookmarksChanged, bookmarks)
}

// NewPositionsChangedEvent creates a positions event.
func NewPositionsChangedEvent(positions map[string]domain.PlaybackPosition) Event {
	return NewEvent(EventPositionsChanged, positions)
}

// NewPlaylistsChangedEvent creates a playlists event.
func NewPlaylistsChangedEvent(playlists []domain.Playlist) Event {
	return NewEvent(EventPlaylistsChanged, playlists)
}

// NewRecentChangedEvent creates a recently played event. The payload is the
// ordered list of book IDs, most recent first.
func NewRecentChangedEvent(bookIDs []string) Event {
	return NewEvent(EventRecentChanged, bookIDs)
}
