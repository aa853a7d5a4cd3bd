// Package di provides dependency injection configuration for the Fable
// server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/fablesound/fable-server/internal/auth"
	"github.com/fablesound/fable-server/internal/config"
	"github.com/fablesound/fable-server/internal/di/providers"
	"github.com/fablesound/fable-server/internal/identity"
	"github.com/fablesound/fable-server/internal/logger"
	"github.com/fablesound/fable-server/internal/playback"
	"github.com/fablesound/fable-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage layer
	do.Provide(injector, providers.ProvideDocStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideSession)
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideAuthService)

	// Catalog and per-user stores
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideBookmarkService)
	do.Provide(injector, providers.ProvidePositionService)
	do.Provide(injector, providers.ProvidePlaylistService)
	do.Provide(injector, providers.ProvideRecentService)

	// Playback
	do.Provide(injector, providers.ProvideResolver)
	do.Provide(injector, providers.ProvideTransport)
	do.Provide(injector, providers.ProvideCoordinator)

	// Server and workers
	do.Provide(injector, providers.ProvideSSE)
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideSeedWatcher)

	return injector
}

// Bootstrap initializes all services. Invoking each one triggers lazy
// construction in dependency order.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[providers.AuthKey](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*identity.Session](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*auth.TokenService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.AuthService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.CatalogService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.BookmarkService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.PositionService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.PlaylistService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.RecentService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.ResolverHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[playback.Transport](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CoordinatorHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SSEHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SeedWatcherHandle](injector); err != nil {
		return err
	}
	return nil
}
