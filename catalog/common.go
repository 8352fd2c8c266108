package catalog

import (
	"errors"
)

var ErrEmptyCollectionName = errors.New("empty collection name supplied")
var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrNilCollectionStore = errors.New("collection store must not be nil")
var ErrConcurrencyConflict = errors.New("concurrency error, no rows were affected")
var ErrDocumentNotFound = errors.New("no document found")

var (
	// ErrQueryingDocumentsFailed is returned when the store could not execute a find.
	ErrQueryingDocumentsFailed = errors.New("querying documents failed")

	// ErrCreatingDocumentFailed is returned when the store could not execute an insert.
	ErrCreatingDocumentFailed = errors.New("creating document failed")

	// ErrUpdatingDocumentFailed is returned when the store could not execute an update.
	ErrUpdatingDocumentFailed = errors.New("updating document failed")

	// ErrDeletingDocumentFailed is returned when the store could not execute a delete.
	ErrDeletingDocumentFailed = errors.New("deleting document failed")

	// ErrAggregatingDocumentsFailed is returned when the store could not execute an aggregation.
	ErrAggregatingDocumentsFailed = errors.New("aggregating documents failed")

	// ErrBuildingQueryFailed is returned when a store specific query could not be built.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrScanningDocumentFailed is returned when a stored row or document could not be read back.
	ErrScanningDocumentFailed = errors.New("scanning document failed")

	// ErrEnsuringSchemaFailed is returned when a store could not create its table or indexes.
	ErrEnsuringSchemaFailed = errors.New("ensuring schema failed")

	// ErrDecodingTourFailed is returned when a Document can't be turned into a Tour.
	ErrDecodingTourFailed = errors.New("decoding tour from document failed")
)

// VersionUint is the optimistic concurrency revision of a stored Tour (the "__v" field).
type VersionUint = uint
