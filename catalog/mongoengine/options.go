package mongoengine

import (
	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

// Option defines a functional option for configuring CollectionStore.
type Option func(*CollectionStore) error

// WithCollectionName sets the name of the collection holding the tours.
func WithCollectionName(collectionName string) Option {
	return func(s *CollectionStore) error {
		if collectionName == "" {
			return catalog.ErrEmptyCollectionName
		}

		s.collectionName = collectionName

		return nil
	}
}

// WithLogger sets the logger for the CollectionStore.
// Commands with timing are logged at debug level, document counts and conflicts at info level.
func WithLogger(logger catalog.Logger) Option {
	return func(s *CollectionStore) error {
		s.logger = logger
		return nil
	}
}
