package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvStore            = "CATALOG_STORE"
	EnvPostgresDSN      = "CATALOG_POSTGRES_DSN"
	EnvPostgresDriver   = "CATALOG_POSTGRES_DRIVER"
	EnvMongoDBURI       = "CATALOG_MONGODB_URI"
	EnvMongoDBDatabase  = "CATALOG_MONGODB_DATABASE"
	EnvCollection       = "CATALOG_COLLECTION"
	EnvLogLevel         = "CATALOG_LOG_LEVEL"
	defaultEnvFile      = ".env"
	defaultCollection   = "tours"
	defaultDatabaseName = "natours"
)

// StoreKind selects the storage engine.
type StoreKind string

const (
	StorePostgres StoreKind = "postgres"
	StoreMongoDB  StoreKind = "mongodb"
	StoreMemory   StoreKind = "memory"
)

// PostgresDriver selects the client library used to talk to PostgreSQL.
type PostgresDriver string

const (
	DriverPGX  PostgresDriver = "pgx"
	DriverSQL  PostgresDriver = "sql"
	DriverSQLX PostgresDriver = "sqlx"
)

var (
	// ErrInvalidConfig is returned when the configuration is incomplete or contains unknown values.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrLoadingEnvFileFailed is returned when an existing .env file could not be parsed.
	ErrLoadingEnvFileFailed = errors.New("loading env file failed")
)

// PostgresConfig holds the PostgreSQL connection settings.
type PostgresConfig struct {
	DSN    string
	Driver PostgresDriver
}

// MongoDBConfig holds the MongoDB connection settings.
type MongoDBConfig struct {
	URI      string
	Database string
}

// Config holds all configuration of a catalog command.
type Config struct {
	Store      StoreKind
	Collection string
	LogLevel   slog.Level
	Postgres   PostgresConfig
	MongoDB    MongoDBConfig
}

// Load reads the configuration from the process environment, seeded from the given env files.
// Without files, ./.env is used if it exists. Missing files are skipped.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{defaultEnvFile}
	}

	values := make(map[string]string)

	for _, file := range envFiles {
		fileValues, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, errors.Join(ErrLoadingEnvFileFailed, err)
		}

		for key, value := range fileValues {
			if _, seen := values[key]; !seen {
				values[key] = value
			}
		}
	}

	for _, key := range []string{
		EnvStore, EnvPostgresDSN, EnvPostgresDriver, EnvMongoDBURI, EnvMongoDBDatabase, EnvCollection, EnvLogLevel,
	} {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			values[key] = value
		}
	}

	return FromValues(values)
}

// FromValues builds and validates a Config from variable values, applying the defaults.
func FromValues(values map[string]string) (Config, error) {
	get := func(key, fallback string) string {
		if value := strings.TrimSpace(values[key]); value != "" {
			return value
		}
		return fallback
	}

	cfg := Config{
		Store:      StoreKind(strings.ToLower(get(EnvStore, string(StorePostgres)))),
		Collection: get(EnvCollection, defaultCollection),
		Postgres: PostgresConfig{
			DSN:    get(EnvPostgresDSN, ""),
			Driver: PostgresDriver(strings.ToLower(get(EnvPostgresDriver, string(DriverPGX)))),
		},
		MongoDB: MongoDBConfig{
			URI:      get(EnvMongoDBURI, ""),
			Database: get(EnvMongoDBDatabase, defaultDatabaseName),
		},
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(get(EnvLogLevel, slog.LevelInfo.String()))); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports the first missing or unknown setting.
func (c Config) Validate() error {
	switch c.Store {
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return invalid(EnvPostgresDSN + " is required for the postgres store")
		}

		switch c.Postgres.Driver {
		case DriverPGX, DriverSQL, DriverSQLX:
		default:
			return invalid(EnvPostgresDriver + " must be one of pgx, sql, sqlx")
		}

	case StoreMongoDB:
		if c.MongoDB.URI == "" {
			return invalid(EnvMongoDBURI + " is required for the mongodb store")
		}

	case StoreMemory:

	default:
		return invalid(EnvStore + " must be one of postgres, mongodb, memory")
	}

	return nil
}

func invalid(reason string) error {
	return errors.Join(ErrInvalidConfig, errors.New(reason))
}
