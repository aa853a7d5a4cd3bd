package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/fablesound/fable-server/internal/docstore"
	"github.com/fablesound/fable-server/internal/domain"
	"github.com/fablesound/fable-server/internal/id"
	"github.com/fablesound/fable-server/internal/identity"
	"github.com/fablesound/fable-server/internal/observe"
)

// persistTimeout bounds each fire-and-forget remote write. The caller never
// waits on it either way.
const persistTimeout = 10 * time.Second

// BookmarkService holds every user's bookmarks in memory and publishes the
// active user's slice, sorted ascending by position.
//
// The in-memory slice is authoritative once loaded. Remote writes are best
// effort and only happen for authenticated identities; anonymous bookmarks
// live and die with the process.
type BookmarkService struct {
	mu     sync.Mutex
	store  docstore.Client
	logger *slog.Logger

	active string
	byUser map[string][]domain.Bookmark
	value  *observe.Value[[]domain.Bookmark]
}

// NewBookmarkService creates a bookmark store bound to the anonymous identity.
func NewBookmarkService(store docstore.Client, logger *slog.Logger) *BookmarkService {
	return &BookmarkService{
		store:  store,
		logger: logger,
		active: identity.Anonymous,
		byUser: make(map[string][]domain.Bookmark),
		value:  observe.NewValue[[]domain.Bookmark](nil),
	}
}

// Observe returns the observable holding the active user's bookmarks.
func (s *BookmarkService) Observe() *observe.Value[[]domain.Bookmark] {
	return s.value
}

// OnIdentityChange switches the visible slice to userID's cached data and,
// for authenticated identities, reloads it from the remote store in the
// background. Redundant notifications for the current identity are absorbed.
func (s *BookmarkService) OnIdentityChange(userID string) {
	s.mu.Lock()
	if userID == s.active {
		s.mu.Unlock()
		return
	}
	s.active = userID
	snapshot := slices.Clone(s.byUser[userID])
	s.mu.Unlock()

	s.value.Publish(snapshot)

	if identity.IsAnonymous(userID) {
		return
	}
	go s.reload(userID)
}

// reload fetches userID's bookmarks and applies them only if userID is still
// the active identity when the response arrives. Failures leave the cached
// slice untouched.
func (s *BookmarkService) reload(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	docs, err := s.store.List(ctx, docstore.BookmarksPrefix(userID))
	if err != nil {
		s.logger.Warn("failed to load bookmarks", "user_id", userID, "error", err)
		return
	}
	loaded, err := docstore.DecodeAll[domain.Bookmark](docs)
	if err != nil {
		s.logger.Warn("failed to decode bookmarks", "user_id", userID, "error", err)
		return
	}
	slices.SortFunc(loaded, func(a, b domain.Bookmark) int {
		return cmp.Compare(a.PositionMs, b.PositionMs)
	})

	s.mu.Lock()
	if s.active != userID {
		// Identity changed while the load was in flight. Discard.
		s.mu.Unlock()
		return
	}
	s.byUser[userID] = loaded
	snapshot := slices.Clone(loaded)
	s.mu.Unlock()

	s.value.Publish(snapshot)
}

// All returns the active user's bookmarks. Synchronous and wait-free.
func (s *BookmarkService) All() []domain.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.byUser[s.active])
}

// ForBook returns the active user's bookmarks for one book, sorted ascending
// by position.
func (s *BookmarkService) ForBook(bookID string) []domain.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Bookmark
	for _, b := range s.byUser[s.active] {
		if b.BookID == bookID {
			out = append(out, b)
		}
	}
	return out
}

// Add creates a bookmark for the active user. Returns nil without touching
// any state when bookID is blank or positionMs is negative. A blank label
// gets the default "Bookmark at {position}".
func (s *BookmarkService) Add(bookID string, positionMs int64, label string) *domain.Bookmark {
	if bookID == "" || positionMs < 0 {
		return nil
	}
	if label == "" {
		label = "Bookmark at " + domain.FormatPosition(positionMs)
	}

	bookmark := domain.Bookmark{
		ID:         id.MustGenerate("bmk"),
		BookID:     bookID,
		PositionMs: positionMs,
		Label:      label,
		CreatedAt:  time.Now().UnixMilli(),
	}

	s.mu.Lock()
	userID := s.active
	s.byUser[userID] = domain.InsertBookmark(s.byUser[userID], bookmark)
	snapshot := slices.Clone(s.byUser[userID])
	s.mu.Unlock()

	s.value.Publish(snapshot)

	if !identity.IsAnonymous(userID) {
		go s.persist(userID, bookmark)
	}
	return &bookmark
}

// Delete removes a bookmark by ID from the active user's slice. Unknown IDs
// are a no-op.
func (s *BookmarkService) Delete(bookmarkID string) {
	s.mu.Lock()
	userID := s.active
	list := s.byUser[userID]
	idx := slices.IndexFunc(list, func(b domain.Bookmark) bool { return b.ID == bookmarkID })
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.byUser[userID] = slices.Delete(list, idx, idx+1)
	snapshot := slices.Clone(s.byUser[userID])
	s.mu.Unlock()

	s.value.Publish(snapshot)

	if !identity.IsAnonymous(userID) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			if err := s.store.Delete(ctx, docstore.BookmarkPath(userID, bookmarkID)); err != nil {
				s.logger.Warn("failed to delete bookmark remotely",
					"user_id", userID, "bookmark_id", bookmarkID, "error", err)
			}
		}()
	}
}

func (s *BookmarkService) persist(userID string, bookmark domain.Bookmark) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.store.Set(ctx, docstore.BookmarkPath(userID, bookmark.ID), bookmark); err != nil {
		s.logger.Warn("failed to persist bookmark",
			"user_id", userID, "bookmark_id", bookmark.ID, "error", err)
	}
}
