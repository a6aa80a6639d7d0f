package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"valetsite/internal/config"
	"valetsite/internal/content"
	"valetsite/internal/content/dynamo"
	"valetsite/internal/content/remote"
	"valetsite/internal/secrets"
	"valetsite/internal/store"
)

// openContentStore picks the configured backend. db is the local sqlite database, always open.
func openContentStore(ctx context.Context, cfg config.Config, db *store.DB) (content.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		return db, nil
	case config.BackendMemory:
		return content.NewMemory(), nil
	case config.BackendDynamoDB:
		st, err := dynamo.Open(ctx, cfg.Store.Table, cfg.Store.Region)
		if err != nil {
			return nil, fmt.Errorf("open dynamodb store: %w", err)
		}
		return st, nil
	case config.BackendRemote:
		token, err := secrets.GetStoreToken(cfg.Store.KeyringAccount)
		if err != nil && !errors.Is(err, secrets.ErrNoToken) {
			return nil, err
		}
		if token == "" {
			logger.Warn("no content store token; requests go out unauthenticated",
				zap.String("keyring_account", cfg.Store.KeyringAccount))
		}
		c, err := remote.New(remote.Config{
			BaseURL:   cfg.Store.BaseURL,
			Token:     token,
			Timeout:   cfg.Store.Timeout,
			ReqPerSec: cfg.Store.ReqPerSec,
			Burst:     cfg.Store.Burst,
		})
		if err != nil {
			return nil, fmt.Errorf("open remote store: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func openLocalDB(cfg config.Config) (*store.DB, error) {
	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db.Pool); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
