// Package providers contains dependency injection providers for the Fable
// server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/fablesound/fable-server/internal/auth"
	"github.com/fablesound/fable-server/internal/config"
	"github.com/fablesound/fable-server/internal/logger"
)

// AuthKey is the raw PASETO symmetric key.
type AuthKey []byte

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Fable Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
	)

	return log, nil
}

// ProvideAuthKey loads or generates the token signing key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key, err := auth.LoadOrGenerateKey(cfg.KeyPath())
	if err != nil {
		return nil, err
	}
	return AuthKey(key), nil
}
