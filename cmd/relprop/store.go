package main

import (
	"context"
	"errors"

	"github.com/algomatic/relprop/pkg/persistence"
	"go.uber.org/zap"
)

// resolveStore opens a Postgres-backed store when dbURL is set,
// otherwise a local FileStore rooted at storeDir -- the same
// either-backend choice data persistence gets throughout the pack
// (e.g. probe's --persist-results/--db-url pair), except here a
// database is optional rather than the only option, since a single
// CLI run has no daemon to keep a pool warm for.
func resolveStore(ctx context.Context, dbURL, storeDir string, logger *zap.Logger) (persistence.Store, error) {
	if dbURL != "" {
		store, err := persistence.NewPgStore(ctx, dbURL, logger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	}
	return persistence.NewFileStore(storeDir)
}

func mustCloseStore(store persistence.Store, logger *zap.Logger) {
	if err := store.Close(); err != nil {
		logger.Warn("closing store", zap.Error(err))
	}
}

var errMissingStoreKey = errors.New("--key is required")
