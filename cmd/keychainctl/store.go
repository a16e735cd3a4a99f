package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ericfisherdev/keychainquery/internal/adapter/driven/keyprovider"
	"github.com/ericfisherdev/keychainquery/internal/adapter/driven/oskeyring"
	sqliteadapter "github.com/ericfisherdev/keychainquery/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/keychainquery/internal/config"
	"github.com/ericfisherdev/keychainquery/internal/domain/port/driven"
)

// openStore builds the SecureStore selected by cfg. The returned close
// function releases whatever the store holds open.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (driven.SecureStore, func() error, error) {
	switch cfg.Store {
	case config.StoreOSKeyring:
		store, err := oskeyring.Open(oskeyring.Config{
			ServiceName:  cfg.KeyringService,
			Backends:     cfg.KeyringBackends,
			FileDir:      cfg.KeyringFileDir,
			FilePassword: cfg.KeyringPassword,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("os keyring opened", zap.String("service", cfg.KeyringService))
		return store, func() error { return nil }, nil

	case config.StoreSQLite:
		key := cfg.SecretKey
		if key == nil {
			k, err := keyprovider.New(cfg.KeyringService).Key()
			if err != nil {
				// Attribute-only commands still work without a key.
				logger.Warn("master key unavailable, secrets cannot be read or written", zap.Error(err))
			}
			key = k
		}

		db, err := sqliteadapter.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("database opened", zap.String("path", db.Path()))

		repo := sqliteadapter.NewCredentialRepo(db, key, sqliteadapter.WithAccessGroups(cfg.AccessGroups...))
		return repo, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
