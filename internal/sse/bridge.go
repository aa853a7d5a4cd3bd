package sse

import (
	"github.com/fablesound/fable-server/internal/domain"
	"github.com/fablesound/fable-server/internal/playback"
	"github.com/fablesound/fable-server/internal/service"
)

// Bridge subscribes to the playback and per-user observables and republishes
// every change as an SSE event. It is the server-side replacement for the
// client's state bindings: anything the snapshot or a store publishes reaches
// connected clients without polling.
type Bridge struct {
	cancels []func()
}

// NewBridge wires the observables to the manager. Call Close to detach.
func NewBridge(
	manager *Manager,
	coordinator *playback.Coordinator,
	bookmarks *service.BookmarkService,
	positions *service.PositionService,
	playlists *service.PlaylistService,
	recent *service.RecentService,
) *Bridge {
	b := &Bridge{}
	b.cancels = append(b.cancels,
		coordinator.Observe().Subscribe(func(s playback.Snapshot) {
			manager.Emit(NewPlayerSnapshotEvent(s))
		}),
		bookmarks.Observe().Subscribe(func(v []domain.Bookmark) {
			manager.Emit(NewBookmarksChangedEvent(v))
		}),
		positions.Observe().Subscribe(func(v map[string]domain.PlaybackPosition) {
			manager.Emit(NewPositionsChangedEvent(v))
		}),
		playlists.Observe().Subscribe(func(v []domain.Playlist) {
			manager.Emit(NewPlaylistsChangedEvent(v))
		}),
		recent.Observe().Subscribe(func(v []string) {
			manager.Emit(NewRecentChangedEvent(v))
		}),
	)
	return b
}

// Close detaches the bridge from every observable.
func (b *Bridge) Close() {
	for _, cancel := range b.cancels {
		cancel()
	}
	b.cancels = nil
}
