// Package postgresengine stores tours in a PostgreSQL table.
//
// Scalar tour fields are plain columns with their camelCase names, images and startDates are
// native arrays, startLocation and locations are jsonb. Every statement is rendered with goqu
// and executed through one of the supported connection types:
//
//	store, err := postgresengine.NewCollectionStoreFromPGXPool(pool)
//	store, err := postgresengine.NewCollectionStoreFromSQLDB(db)
//	store, err := postgresengine.NewCollectionStoreFromSQLX(dbx)
//
// Rows are read back as JSON (row_to_json) so that projections and aggregation
// results of any shape decode the same way.
//
// Aggregation pipelines are translated into nested sub-selects, one per stage.
package postgresengine
