package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultServerSelectionTimeout = 10 * time.Second

// MongoClientOptions creates the client options for the configured URI, pinned to the stable server API v1.
func MongoClientOptions(cfg MongoDBConfig) *options.ClientOptions {
	return options.Client().
		ApplyURI(cfg.URI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetServerSelectionTimeout(defaultServerSelectionTimeout)
}

// NewMongoClient connects and pings a mongo.Client.
func NewMongoClient(ctx context.Context, cfg MongoDBConfig) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, MongoClientOptions(cfg))
	if err != nil {
		return nil, errors.Join(ErrConnectingDatabaseFailed, err)
	}

	if pingErr := client.Ping(ctx, nil); pingErr != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Join(ErrConnectingDatabaseFailed, pingErr)
	}

	return client, nil
}
