package providers

import (
	"github.com/samber/do/v2"

	"github.com/fablesound/fable-server/internal/auth"
	"github.com/fablesound/fable-server/internal/config"
	"github.com/fablesound/fable-server/internal/identity"
	"github.com/fablesound/fable-server/internal/logger"
	"github.com/fablesound/fable-server/internal/service"
)

// ProvideSession provides the active-identity session.
func ProvideSession(i do.Injector) (*identity.Session, error) {
	return identity.NewSession(), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)
	return auth.NewTokenService(key, cfg.Auth.AccessTokenDuration)
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	session := do.MustInvoke[*identity.Session](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewAuthService(store, tokens, session, log.Logger), nil
}

// ProvideCatalogService provides the catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	store := do.MustInvoke[*StoreHandle](i)
	index := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewCatalogService(store, index.Index, cfg.Media.CurrentHost, cfg.Media.LegacyHost, log.Logger), nil
}

// The four per-user stores subscribe to the session at construction so
// identity changes fan out to each of them.

// ProvideBookmarkService provides the bookmark store.
func ProvideBookmarkService(i do.Injector) (*service.BookmarkService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	session := do.MustInvoke[*identity.Session](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewBookmarkService(store, log.Logger)
	session.Subscribe(svc.OnIdentityChange)
	return svc, nil
}

// ProvidePositionService provides the playback position store.
func ProvidePositionService(i do.Injector) (*service.PositionService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	session := do.MustInvoke[*identity.Session](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewPositionService(store, log.Logger)
	session.Subscribe(svc.OnIdentityChange)
	return svc, nil
}

// ProvidePlaylistService provides the playlist store.
func ProvidePlaylistService(i do.Injector) (*service.PlaylistService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	session := do.MustInvoke[*identity.Session](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewPlaylistService(store, log.Logger)
	session.Subscribe(svc.OnIdentityChange)
	return svc, nil
}

// ProvideRecentService provides the recently played store.
func ProvideRecentService(i do.Injector) (*service.RecentService, error) {
	store := do.MustInvoke[*StoreHandle](i)
	session := do.MustInvoke[*identity.Session](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewRecentService(store, log.Logger)
	session.Subscribe(svc.OnIdentityChange)
	return svc, nil
}
