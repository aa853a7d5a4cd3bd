package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/fablesound/fable-server/internal/api"
	"github.com/fablesound/fable-server/internal/config"
	"github.com/fablesound/fable-server/internal/identity"
	"github.com/fablesound/fable-server/internal/logger"
	"github.com/fablesound/fable-server/internal/service"
	"github.com/fablesound/fable-server/internal/sse"
	"github.com/fablesound/fable-server/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

// SSEHandle runs the SSE manager and keeps the observable bridge attached
// until shutdown.
type SSEHandle struct {
	Handler *sse.Handler
	manager *sse.Manager
	bridge  *sse.Bridge
}

// Shutdown detaches the bridge and drains the manager.
func (h *SSEHandle) Shutdown() error {
	h.bridge.Close()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.manager.Shutdown(ctx)
}

// ProvideSSE provides the SSE manager, bridge, and HTTP handler.
func ProvideSSE(i do.Injector) (*SSEHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	coordinator := do.MustInvoke[*CoordinatorHandle](i)
	bookmarkService := do.MustInvoke[*service.BookmarkService](i)
	positionService := do.MustInvoke[*service.PositionService](i)
	playlistService := do.MustInvoke[*service.PlaylistService](i)
	recentService := do.MustInvoke[*service.RecentService](i)

	manager := sse.NewManager(log.Logger)
	// The broadcast loop runs until Shutdown closes the event queue.
	go manager.Start(context.Background())

	bridge := sse.NewBridge(
		manager,
		coordinator.Coordinator,
		bookmarkService,
		positionService,
		playlistService,
		recentService,
	)

	return &SSEHandle{
		Handler: sse.NewHandler(manager, log.Logger),
		manager: manager,
		bridge:  bridge,
	}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server, already listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	authService := do.MustInvoke[*service.AuthService](i)
	catalogService := do.MustInvoke[*service.CatalogService](i)
	bookmarkService := do.MustInvoke[*service.BookmarkService](i)
	positionService := do.MustInvoke[*service.PositionService](i)
	playlistService := do.MustInvoke[*service.PlaylistService](i)
	recentService := do.MustInvoke[*service.RecentService](i)
	coordinator := do.MustInvoke[*CoordinatorHandle](i)
	session := do.MustInvoke[*identity.Session](i)
	sseHandle := do.MustInvoke[*SSEHandle](i)

	if cfg.Catalog.SeedOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := catalogService.SeedIfEmpty(ctx); err != nil {
			log.Error("Failed to seed catalog", "error", err)
		}
	}

	handler := api.NewServer(
		authService,
		catalogService,
		bookmarkService,
		positionService,
		playlistService,
		recentService,
		coordinator.Coordinator,
		session,
		sseHandle.Handler,
		log.Logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}

// SeedWatcherHandle runs the seed-file watcher until shutdown.
type SeedWatcherHandle struct {
	cancel context.CancelFunc
}

// Shutdown stops the watcher.
func (h *SeedWatcherHandle) Shutdown() error {
	if h.cancel != nil {
		h.cancel()
	}
	return nil
}

// ProvideSeedWatcher provides the optional seed-file watcher.
func ProvideSeedWatcher(i do.Injector) (*SeedWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	catalogService := do.MustInvoke[*service.CatalogService](i)

	if cfg.Catalog.SeedFile == "" {
		return &SeedWatcherHandle{}, nil
	}

	apply := func(ctx context.Context, path string) error {
		reqs, err := service.LoadSeedFile(path)
		if err != nil {
			return err
		}
		books, err := catalogService.UpsertBooks(ctx, reqs)
		if err != nil {
			return err
		}
		log.Info("applied seed file", "path", path, "books", len(books))
		return nil
	}

	w, err := watcher.New(cfg.Catalog.SeedFile, apply, log.Logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("seed watcher stopped", "error", err)
		}
	}()

	return &SeedWatcherHandle{cancel: cancel}, nil
}
