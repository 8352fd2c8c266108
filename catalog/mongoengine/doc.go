// Package mongoengine stores tours in a MongoDB collection.
//
// Documents are stored in their catalog.Document form, so filters, sort, projection and
// aggregation pipelines translate almost one to one into MongoDB query and pipeline documents.
// EnsureIndexes creates the unique name index that backs the uniqueness rule of the catalog.
package mongoengine
