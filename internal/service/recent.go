package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/fablesound/fable-server/internal/docstore"
	"github.com/fablesound/fable-server/internal/domain"
	"github.com/fablesound/fable-server/internal/identity"
	"github.com/fablesound/fable-server/internal/observe"
)

// RecentService tracks the recently played list, most recent first, capped at
// domain.RecentLimit. The whole list lives in a single document per user.
type RecentService struct {
	mu     sync.Mutex
	store  docstore.Client
	logger *slog.Logger

	active string
	byUser map[string][]string
	value  *observe.Value[[]string]
}

// NewRecentService creates a recently-played store bound to the anonymous
// identity.
func NewRecentService(store docstore.Client, logger *slog.Logger) *RecentService {
	return &RecentService{
		store:  store,
		logger: logger,
		active: identity.Anonymous,
		byUser: make(map[string][]string),
		value:  observe.NewValue[[]string](nil),
	}
}

// Observe returns the observable holding the active user's recent book IDs.
func (s *RecentService) Observe() *observe.Value[[]string] {
	return s.value
}

// OnIdentityChange switches the visible slice and reloads authenticated
// identities in the background. Redundant notifications are absorbed.
func (s *RecentService) OnIdentityChange(userID string) {
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

func (s *RecentService) reload(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	var doc domain.RecentlyPlayed
	err := s.store.Get(ctx, docstore.RecentlyPlayedPath(userID), &doc)
	if err != nil {
		// A missing document is a user with no history yet; anything else is
		// logged and the cached slice stands.
		if !errors.Is(err, docstore.ErrNotFound) {
			s.logger.Warn("failed to load recently played", "user_id", userID, "error", err)
			return
		}
		doc.BookIDs = nil
	}

	s.mu.Lock()
	if s.active != userID {
		s.mu.Unlock()
		return
	}
	s.byUser[userID] = doc.BookIDs
	snapshot := slices.Clone(doc.BookIDs)
	s.mu.Unlock()

	s.value.Publish(snapshot)
}

// List returns the active user's recent book IDs, most recent first.
// Synchronous and wait-free.
func (s *RecentService) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.byUser[s.active])
}

// MarkPlayed moves bookID to the front of the active user's list, dropping
// any older occurrence and truncating to the cap. Blank IDs are a no-op.
func (s *RecentService) MarkPlayed(bookID string) {
	if bookID == "" {
		return
	}

	s.mu.Lock()
	userID := s.active
	updated := domain.PushRecent(s.byUser[userID], bookID)
	s.byUser[userID] = updated
	snapshot := slices.Clone(updated)
	s.mu.Unlock()

	s.value.Publish(snapshot)

	if !identity.IsAnonymous(userID) {
		doc := domain.RecentlyPlayed{
			BookIDs:   snapshot,
			UpdatedAt: time.Now().UnixMilli(),
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			if err := s.store.Set(ctx, docstore.RecentlyPlayedPath(userID), doc); err != nil {
				s.logger.Warn("failed to persist recently played",
					"user_id", userID, "error", err)
			}
		}()
	}
}
