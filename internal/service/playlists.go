package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/fablesound/fable-server/internal/docstore"
	"github.com/fablesound/fable-server/internal/domain"
	domainerrors "github.com/fablesound/fable-server/internal/errors"
	"github.com/fablesound/fable-server/internal/id"
	"github.com/fablesound/fable-server/internal/identity"
	"github.com/fablesound/fable-server/internal/observe"
)

// PlaylistService holds every user's playlists in memory and publishes the
// active user's slice. Only the mutated playlist document is written
// remotely; mutations never rewrite the whole collection.
type PlaylistService struct {
	mu     sync.Mutex
	store  docstore.Client
	logger *slog.Logger

	active string
	byUser map[string][]domain.Playlist
	value  *observe.Value[[]domain.Playlist]
}

// NewPlaylistService creates a playlist store bound to the anonymous identity.
func NewPlaylistService(store docstore.Client, logger *slog.Logger) *PlaylistService {
	return &PlaylistService{
		store:  store,
		logger: logger,
		active: identity.Anonymous,
		byUser: make(map[string][]domain.Playlist),
		value:  observe.NewValue[[]domain.Playlist](nil),
	}
}

// Observe returns the observable holding the active user's playlists.
func (s *PlaylistService) Observe() *observe.Value[[]domain.Playlist] {
	return s.value
}

// OnIdentityChange switches the visible slice and reloads authenticated
// identities in the background. Redundant notifications are absorbed.
func (s *PlaylistService) OnIdentityChange(userID string) {
	s.mu.Lock()
	if userID == s.active {
		s.mu.Unlock()
		return
	}
	s.active = userID
	snapshot := clonePlaylists(s.byUser[userID])
	s.mu.Unlock()

	s.value.Publish(snapshot)

	if identity.IsAnonymous(userID) {
		return
	}
	go s.reload(userID)
}

func (s *PlaylistService) reload(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	docs, err := s.store.List(ctx, docstore.PlaylistsPrefix(userID))
	if err != nil {
		s.logger.Warn("failed to load playlists", "user_id", userID, "error", err)
		return
	}
	loaded, err := docstore.DecodeAll[domain.Playlist](docs)
	if err != nil {
		s.logger.Warn("failed to decode playlists", "user_id", userID, "error", err)
		return
	}

	s.mu.Lock()
	if s.active != userID {
		s.mu.Unlock()
		return
	}
	s.byUser[userID] = loaded
	snapshot := clonePlaylists(loaded)
	s.mu.Unlock()

	s.value.Publish(snapshot)
}

// All returns the active user's playlists. Synchronous and wait-free.
func (s *PlaylistService) All() []domain.Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePlaylists(s.byUser[s.active])
}

// Get returns one of the active user's playlists by ID.
func (s *PlaylistService) Get(playlistID string) (domain.Playlist, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.byUser[s.active] {
		if p.ID == playlistID {
			return *p.Clone(), true
		}
	}
	return domain.Playlist{}, false
}

// Create adds a playlist for the active user. The name is trimmed and must be
// non-blank. initialBookID, when non-empty, becomes the first member.
func (s *PlaylistService) Create(name, initialBookID string) (*domain.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.Validation("playlist name is required")
	}

	playlist := domain.Playlist{
		ID:   id.MustGenerate("pl"),
		Name: name,
	}
	if initialBookID != "" {
		playlist.BookIDs = []string{initialBookID}
	}

	s.mu.Lock()
	userID := s.active
	s.byUser[userID] = append(s.byUser[userID], playlist)
	snapshot := clonePlaylists(s.byUser[userID])
	s.mu.Unlock()

	s.value.Publish(snapshot)

	if !identity.IsAnonymous(userID) {
		go s.persist(userID, playlist)
	}
	return playlist.Clone(), nil
}

// Rename changes a playlist's name. The new name is trimmed and must be
// non-blank.
func (s *PlaylistService) Rename(playlistID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domainerrors.Validation("playlist name is required")
	}
	return s.mutate(playlistID, func(p *domain.Playlist) bool {
		if p.Name == name {
			return false
		}
		p.Name = name
		return true
	})
}

// AddBook adds bookID to a playlist. Adding a member that is already present
// is a no-op and skips the remote write.
func (s *PlaylistService) AddBook(playlistID, bookID string) error {
	return s.mutate(playlistID, func(p *domain.Playlist) bool {
		return p.AddBook(bookID)
	})
}

// RemoveBook removes bookID from a playlist. Removing an absent member is a
// no-op and skips the remote write.
func (s *PlaylistService) RemoveBook(playlistID, bookID string) error {
	return s.mutate(playlistID, func(p *domain.Playlist) bool {
		return p.RemoveBook(bookID)
	})
}

// Delete removes a playlist locally and issues a remote delete.
func (s *PlaylistService) Delete(playlistID string) error {
	s.mu.Lock()
	userID := s.active
	list := s.byUser[userID]
	idx := slices.IndexFunc(list, func(p domain.Playlist) bool { return p.ID == playlistID })
	if idx < 0 {
		s.mu.Unlock()
		return domainerrors.NotFound("playlist not found")
	}
	s.byUser[userID] = slices.Delete(list, idx, idx+1)
	snapshot := clonePlaylists(s.byUser[userID])
	s.mu.Unlock()

	s.value.Publish(snapshot)

	if !identity.IsAnonymous(userID) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			if err := s.store.Delete(ctx, docstore.PlaylistPath(userID, playlistID)); err != nil {
				s.logger.Warn("failed to delete playlist remotely",
					"user_id", userID, "playlist_id", playlistID, "error", err)
			}
		}()
	}
	return nil
}

// mutate applies fn to the named playlist under the lock. When fn reports a
// change the observable republishes and only that playlist is persisted.
func (s *PlaylistService) mutate(playlistID string, fn func(*domain.Playlist) bool) error {
	s.mu.Lock()
	userID := s.active
	list := s.byUser[userID]
	idx := slices.IndexFunc(list, func(p domain.Playlist) bool { return p.ID == playlistID })
	if idx < 0 {
		s.mu.Unlock()
		return domainerrors.NotFound("playlist not found")
	}
	changed := fn(&list[idx])
	if !changed {
		s.mu.Unlock()
		return nil
	}
	updated := *list[idx].Clone()
	snapshot := clonePlaylists(list)
	s.mu.Unlock()

	s.value.Publish(snapshot)

	if !identity.IsAnonymous(userID) {
		go s.persist(userID, updated)
	}
	return nil
}

func (s *PlaylistService) persist(userID string, playlist domain.Playlist) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.store.Set(ctx, docstore.PlaylistPath(userID, playlist.ID), playlist); err != nil {
		s.logger.Warn("failed to persist playlist",
			"user_id", userID, "playlist_id", playlist.ID, "error", err)
	}
}

// clonePlaylists deep-copies a playlist slice so published snapshots cannot
// alias the store's backing arrays.
func clonePlaylists(list []domain.Playlist) []domain.Playlist {
	if list == nil {
		return nil
	}
	out := make([]domain.Playlist, len(list))
	for i, p := range list {
		out[i] = *p.Clone()
	}
	return out
}
