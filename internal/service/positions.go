package service

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/fablesound/fable-server/internal/docstore"
	"github.com/fablesound/fable-server/internal/domain"
	"github.com/fablesound/fable-server/internal/identity"
	"github.com/fablesound/fable-server/internal/observe"
)

// PositionService tracks the last saved playback position per (user, book).
// Saves are last-write-wins and replace the previous entry wholesale.
type PositionService struct {
	mu     sync.Mutex
	store  docstore.Client
	logger *slog.Logger

	active string
	byUser map[string]map[string]domain.PlaybackPosition
	value  *observe.Value[map[string]domain.PlaybackPosition]
}

// NewPositionService creates a position store bound to the anonymous identity.
func NewPositionService(store docstore.Client, logger *slog.Logger) *PositionService {
	return &PositionService{
		store:  store,
		logger: logger,
		active: identity.Anonymous,
		byUser: make(map[string]map[string]domain.PlaybackPosition),
		value:  observe.NewValue(map[string]domain.PlaybackPosition{}),
	}
}

// Observe returns the observable holding the active user's positions by book ID.
func (s *PositionService) Observe() *observe.Value[map[string]domain.PlaybackPosition] {
	return s.value
}

// OnIdentityChange switches the visible slice and reloads authenticated
// identities in the background. Redundant notifications are absorbed.
func (s *PositionService) OnIdentityChange(userID string) {
	s.mu.Lock()
	if userID == s.active {
		s.mu.Unlock()
		return
	}
	s.active = userID
	snapshot := maps.Clone(s.byUser[userID])
	s.mu.Unlock()

	if snapshot == nil {
		snapshot = map[string]domain.PlaybackPosition{}
	}
	s.value.Publish(snapshot)

	if identity.IsAnonymous(userID) {
		return
	}
	go s.reload(userID)
}

func (s *PositionService) reload(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	docs, err := s.store.List(ctx, docstore.PositionsPrefix(userID))
	if err != nil {
		s.logger.Warn("failed to load positions", "user_id", userID, "error", err)
		return
	}
	positions, err := docstore.DecodeAll[domain.PlaybackPosition](docs)
	if err != nil {
		s.logger.Warn("failed to decode positions", "user_id", userID, "error", err)
		return
	}
	loaded := make(map[string]domain.PlaybackPosition, len(positions))
	for _, p := range positions {
		loaded[p.BookID] = p
	}

	s.mu.Lock()
	if s.active != userID {
		s.mu.Unlock()
		return
	}
	s.byUser[userID] = loaded
	snapshot := maps.Clone(loaded)
	s.mu.Unlock()

	s.value.Publish(snapshot)
}

// Get returns the active user's saved position for a book, if any.
// Synchronous and wait-free.
func (s *PositionService) Get(bookID string) (domain.PlaybackPosition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byUser[s.active][bookID]
	return p, ok
}

// Save records a position for the active user, replacing any prior entry for
// the book. Saves with a blank book ID, a non-positive position, or an
// unknown duration are dropped silently so a bad sample never overwrites a
// good saved position.
func (s *PositionService) Save(bookID string, positionMs, durationMs int64) {
	p := domain.PlaybackPosition{
		BookID:     bookID,
		PositionMs: positionMs,
		DurationMs: durationMs,
		UpdatedAt:  time.Now().UnixMilli(),
	}
	if bookID == "" || !p.Resumable() {
		return
	}

	s.mu.Lock()
	userID := s.active
	if s.byUser[userID] == nil {
		s.byUser[userID] = make(map[string]domain.PlaybackPosition)
	}
	s.byUser[userID][bookID] = p
	snapshot := maps.Clone(s.byUser[userID])
	s.mu.Unlock()

	s.value.Publish(snapshot)

	if !identity.IsAnonymous(userID) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			if err := s.store.Set(ctx, docstore.PositionPath(userID, bookID), p); err != nil {
				s.logger.Warn("failed to persist position",
					"user_id", userID, "book_id", bookID, "error", err)
			}
		}()
	}
}
