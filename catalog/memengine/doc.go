// Package memengine provides an in-process implementation of catalog.CollectionStore.
//
// It evaluates filters, sort, projection, pagination, and every aggregation stage in Go,
// with the matching rules of a document database: list fields match if any element matches,
// and "ne" matches documents that lack the field.
//
// It is meant for tests and dry runs, nothing is persisted.
package memengine
