package postgresengine

import (
	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

// Option defines a functional option for configuring CollectionStore.
type Option func(*CollectionStore) error

// WithTableName sets the table name for the CollectionStore.
func WithTableName(tableName string) Option {
	return func(s *CollectionStore) error {
		if tableName == "" {
			return catalog.ErrEmptyCollectionName
		}

		s.tableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the CollectionStore.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: document counts, durations, concurrency conflicts (production-safe)
// Warn level: non-critical issues like failing to close rows
// Error level: failures that cause the operation to fail.
func WithLogger(logger catalog.Logger) Option {
	return func(s *CollectionStore) error {
		s.logger = logger
		return nil
	}
}
