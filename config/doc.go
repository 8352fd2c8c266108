// Package config provides the process configuration of the catalog commands.
//
// Settings are read from environment variables, optionally seeded from .env files (godotenv).
// Variables set in the process environment always win over values from a file.
//
// Supported variables:
//
//	CATALOG_STORE             postgres | mongodb | memory (default postgres)
//	CATALOG_POSTGRES_DSN      required for the postgres store
//	CATALOG_POSTGRES_DRIVER   pgx | sql | sqlx (default pgx)
//	CATALOG_MONGODB_URI       required for the mongodb store
//	CATALOG_MONGODB_DATABASE  default natours
//	CATALOG_COLLECTION        table or collection name (default tours)
//	CATALOG_LOG_LEVEL         debug | info | warn | error (default info)
//
// The package also builds the database connections and the matching catalog.CollectionStore.
package config
