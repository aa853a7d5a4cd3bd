// Package api provides the HTTP API server and handlers for the Fable service.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/fablesound/fable-server/internal/identity"
	"github.com/fablesound/fable-server/internal/playback"
	"github.com/fablesound/fable-server/internal/ratelimit"
	"github.com/fablesound/fable-server/internal/service"
	"github.com/fablesound/fable-server/internal/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	authService     *service.AuthService
	catalogService  *service.CatalogService
	bookmarkService *service.BookmarkService
	positionService *service.PositionService
	playlistService *service.PlaylistService
	recentService   *service.RecentService
	coordinator     *playback.Coordinator
	session         *identity.Session
	streamHandler   *sse.Handler

	router      *chi.Mux
	api         huma.API
	authLimiter *ratelimit.KeyedLimiter
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	authService *service.AuthService,
	catalogService *service.CatalogService,
	bookmarkService *service.BookmarkService,
	positionService *service.PositionService,
	playlistService *service.PlaylistService,
	recentService *service.RecentService,
	coordinator *playback.Coordinator,
	session *identity.Session,
	streamHandler *sse.Handler,
	logger *slog.Logger,
) *Server {
	s := &Server{
		authService:     authService,
		catalogService:  catalogService,
		bookmarkService: bookmarkService,
		positionService: positionService,
		playlistService: playlistService,
		recentService:   recentService,
		coordinator:     coordinator,
		session:         session,
		streamHandler:   streamHandler,
		router:          chi.NewRouter(),
		authLimiter:     ratelimit.New(20.0/60.0, 10),
		logger:          logger,
	}

	s.setupMiddleware()

	RegisterErrorHandler()
	s.api = humachi.New(s.router, huma.DefaultConfig("Fable API", "1.0.0"))

	s.registerAuthRoutes()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures the chi-native routes. Auth routes are registered
// separately through huma.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Live state stream.
		r.Get("/sync/stream", s.streamHandler.ServeHTTP)

		// Catalog (public reads).
		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Get("/search", s.handleSearchBooks)
			r.Get("/{id}", s.handleGetBook)
		})

		// Catalog administration.
		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/books", s.handleUpsertBook)
			r.Delete("/books/{id}", s.handleDeleteBook)
			r.Post("/seed", s.handleSeed)
		})

		// Per-user state. These act on the active session identity.
		r.Group(func(r chi.Router) {
			r.Use(s.withIdentity)

			r.Route("/bookmarks", func(r chi.Router) {
				r.Get("/", s.handleListBookmarks)
				r.Post("/", s.handleAddBookmark)
				r.Delete("/{id}", s.handleDeleteBookmark)
			})

			r.Route("/positions", func(r chi.Router) {
				r.Get("/{bookId}", s.handleGetPosition)
				r.Put("/{bookId}", s.handleSavePosition)
			})

			r.Route("/playlists", func(r chi.Router) {
				r.Get("/", s.handleListPlaylists)
				r.Post("/", s.handleCreatePlaylist)
				r.Get("/{id}", s.handleGetPlaylist)
				r.Patch("/{id}", s.handleRenamePlaylist)
				r.Delete("/{id}", s.handleDeletePlaylist)
				r.Post("/{id}/books", s.handleAddPlaylistBook)
				r.Delete("/{id}/books/{bookId}", s.handleRemovePlaylistBook)
			})

			r.Get("/recent", s.handleListRecent)

			r.Route("/player", func(r chi.Router) {
				r.Get("/", s.handlePlayerSnapshot)
				r.Post("/play", s.handlePlay)
				r.Post("/pause-toggle", s.handlePlayPause)
				r.Post("/seek", s.handleSeek)
				r.Post("/rewind", s.handleRewind)
				r.Post("/forward", s.handleFastForward)
				r.Post("/next", s.handleSkipNext)
				r.Post("/previous", s.handleSkipPrevious)
				r.Post("/mode", s.handleCycleMode)
				r.Post("/speed", s.handleCycleSpeed)
				r.Post("/sleep", s.handleSetSleepTimer)
				r.Post("/sleep/clear", s.handleClearSleepTimer)
			})
		})
	})
}
