package config

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
	"github.com/AntonStoeckl/tour-catalog-go/catalog/memengine"
	"github.com/AntonStoeckl/tour-catalog-go/catalog/mongoengine"
	"github.com/AntonStoeckl/tour-catalog-go/catalog/postgresengine"
)

// Store is a catalog.CollectionStore that can also be wiped, as needed by the import command.
type Store interface {
	catalog.CollectionStore
	DeleteAll(ctx context.Context) error
}

// CloseFunc releases the connections behind a Store.
type CloseFunc func()

// OpenStore connects the configured engine, prepares its schema or indexes and returns the store.
// The returned CloseFunc is never nil and must be called once the store is no longer used.
func OpenStore(ctx context.Context, cfg Config, logger catalog.Logger) (Store, CloseFunc, error) {
	noop := func() {}

	switch cfg.Store {
	case StorePostgres:
		return openPostgresStore(ctx, cfg, logger)

	case StoreMongoDB:
		client, err := NewMongoClient(ctx, cfg.MongoDB)
		if err != nil {
			return nil, noop, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }

		store, err := mongoengine.NewCollectionStore(
			client.Database(cfg.MongoDB.Database),
			mongoengine.WithCollectionName(cfg.Collection),
			mongoengine.WithLogger(logger),
		)
		if err != nil {
			closeFn()
			return nil, noop, err
		}

		if err = store.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, noop, err
		}

		return store, closeFn, nil

	case StoreMemory:
		store, err := memengine.NewCollectionStore(memengine.WithLogger(logger))
		if err != nil {
			return nil, noop, err
		}

		return store, noop, nil

	default:
		return nil, noop, cfg.Validate()
	}
}

func openPostgresStore(ctx context.Context, cfg Config, logger catalog.Logger) (Store, CloseFunc, error) {
	noop := func() {}
	options := []postgresengine.Option{
		postgresengine.WithTableName(cfg.Collection),
		postgresengine.WithLogger(logger),
	}

	var (
		store   postgresengine.CollectionStore
		closeFn CloseFunc
		err     error
	)

	switch cfg.Postgres.Driver {
	case DriverSQL:
		var db *sql.DB
		if db, err = NewSQLDB(ctx, cfg.Postgres); err != nil {
			return nil, noop, err
		}
		closeFn = func() { _ = db.Close() }
		store, err = postgresengine.NewCollectionStoreFromSQLDB(db, options...)

	case DriverSQLX:
		var db *sqlx.DB
		if db, err = NewSQLXDB(ctx, cfg.Postgres); err != nil {
			return nil, noop, err
		}
		closeFn = func() { _ = db.Close() }
		store, err = postgresengine.NewCollectionStoreFromSQLX(db, options...)

	default:
		var pool *pgxpool.Pool
		if pool, err = NewPGXPool(ctx, cfg.Postgres); err != nil {
			return nil, noop, err
		}
		closeFn = pool.Close
		store, err = postgresengine.NewCollectionStoreFromPGXPool(pool, options...)
	}

	if err != nil {
		closeFn()
		return nil, noop, err
	}

	if err = store.EnsureSchema(ctx); err != nil {
		closeFn()
		return nil, noop, err
	}

	return store, closeFn, nil
}
