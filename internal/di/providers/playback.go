package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/fablesound/fable-server/internal/config"
	"github.com/fablesound/fable-server/internal/logger"
	"github.com/fablesound/fable-server/internal/media"
	"github.com/fablesound/fable-server/internal/playback"
	"github.com/fablesound/fable-server/internal/service"
	"github.com/fablesound/fable-server/internal/transport/mpris"
)

// ResolverHandle holds the optional storage-reference resolver. Resolver is
// nil when no object store is configured; audio URLs then play as stored.
type ResolverHandle struct {
	Resolver *media.Resolver
}

// ProvideResolver provides the storage-reference resolver.
func ProvideResolver(i do.Injector) (*ResolverHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Media.ObjectStoreEndpoint == "" {
		log.Info("no object store configured, storage references will not resolve")
		return &ResolverHandle{}, nil
	}

	objects, err := media.NewMinioStore(
		cfg.Media.ObjectStoreEndpoint,
		cfg.Media.ObjectStoreAccessKey,
		cfg.Media.ObjectStoreSecretKey,
		cfg.Media.ObjectStoreUseSSL,
		cfg.Media.PresignTTL,
	)
	if err != nil {
		return nil, err
	}
	return &ResolverHandle{Resolver: media.NewResolver(objects, log.Logger)}, nil
}

// ProvideTransport provides the configured media transport backend.
func ProvideTransport(i do.Injector) (playback.Transport, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Transport.Backend {
	case "mpris":
		log.Info("using MPRIS transport", "bus_name", cfg.Transport.MPRISBusName)
		return mpris.New(cfg.Transport.MPRISBusName, log.Logger)
	case "", "none":
		log.Info("no media transport configured")
		return playback.NewNullTransport(), nil
	default:
		return nil, fmt.Errorf("unknown transport backend %q", cfg.Transport.Backend)
	}
}

// CoordinatorHandle wraps the coordinator for lifecycle management.
type CoordinatorHandle struct {
	*playback.Coordinator
}

// Shutdown performs the final position save and releases the transport.
func (h *CoordinatorHandle) Shutdown() error {
	return h.Coordinator.Close()
}

// ProvideCoordinator provides the playback coordinator.
func ProvideCoordinator(i do.Injector) (*CoordinatorHandle, error) {
	transport := do.MustInvoke[playback.Transport](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	positions := do.MustInvoke[*service.PositionService](i)
	recent := do.MustInvoke[*service.RecentService](i)
	resolverHandle := do.MustInvoke[*ResolverHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	// A nil *Resolver must stay a nil interface inside the coordinator.
	var resolver playback.URLResolver
	if resolverHandle.Resolver != nil {
		resolver = resolverHandle.Resolver
	}

	return &CoordinatorHandle{
		Coordinator: playback.NewCoordinator(transport, catalog, positions, recent, resolver, log.Logger),
	}, nil
}
