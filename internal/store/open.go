package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type Options struct {
	Driver      string
	DSN         string
	AutoMigrate bool
}

// Open builds the ItemStore selected by opts.Driver.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (ItemStore, error) {
	logger = logger.Named("store")

	switch opts.Driver {
	case DriverMemory, "":
		logger.Info("using in-memory item store")
		return NewMemoryStore(), nil
	case DriverPostgres:
		if opts.DSN == "" {
			return nil, fmt.Errorf("postgres store requires a DSN")
		}
		pg, err := OpenPostgres(ctx, opts.DSN)
		if err != nil {
			return nil, err
		}
		if opts.AutoMigrate {
			applied, err := Migrate(ctx, pg.DB())
			if err != nil {
				pg.Close()
				return nil, err
			}
			logger.Info("migrations applied", zap.Strings("files", applied))
		}
		logger.Info("using postgres item store")
		return pg, nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", opts.Driver)
	}
}
