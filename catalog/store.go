package catalog

import (
	"context"
)

// CollectionStore is the boundary to the persistence engine holding the tours.
//
// Implementations must report unique-key collisions as *UniquenessConflict
// and queries they can not execute (unknown operators, type mismatches) as *QueryParseError.
// They add no visibility rules of their own, those are applied by the hooks of the TourRepository.
type CollectionStore interface {
	// Find applies the Query in the order filter -> sort -> skip -> limit -> projection.
	Find(ctx context.Context, query Query) (Documents, error)

	// Create inserts a new Tour and returns it as stored.
	Create(ctx context.Context, tour Tour) (Tour, error)

	// Update replaces the stored Tour with the same ID if its version equals expectedVersion,
	// increments the version, and returns the Tour as stored.
	// It returns ErrConcurrencyConflict if the version did not match or the Tour is gone.
	Update(ctx context.Context, tour Tour, expectedVersion VersionUint) (Tour, error)

	// Delete removes the Tour with the given ID. It returns ErrDocumentNotFound if nothing was removed.
	Delete(ctx context.Context, id string) error

	// Aggregate runs the Pipeline stages in order and returns the resulting documents.
	Aggregate(ctx context.Context, pipeline Pipeline) (Documents, error)
}
