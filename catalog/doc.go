// Package catalog provides the data-access core of the tour catalog:
// the validated Tour schema, the lifecycle hook pipeline, and the query feature pipeline.
//
// The package is storage agnostic. Concrete engines implement CollectionStore:
//   - postgresengine: PostgreSQL (pgx, sql.DB, sqlx)
//   - mongoengine: MongoDB
//   - memengine: in-process, for tests and dry runs
//
// Key types:
//   - Tour, TourInput: the entity and its raw candidate payload
//   - Query, Predicate, Projection: the structured query descriptor
//   - Features: turns request Params into a Query (filter, sort, fields, paginate)
//   - Pipeline, Stage: typed aggregation stages
//   - Hooks: lifecycle hooks keyed by HookEvent
//   - TourRepository: the single choke point running the hooks around every store call
//
// Common usage pattern:
//
//	store, _ := postgresengine.NewCollectionStoreFromPGXPool(pool)
//	repo, _ := catalog.NewTourRepository(store, catalog.WithLogger(logger))
//
//	tours, err := repo.Find(ctx, catalog.Params(request.URL.Query()))
//	if err != nil {
//		// handle error, errors.Is(err, catalog.ErrQueryParse) for bad input
//	}
//
//	tour, err := repo.Create(ctx, catalog.TourInput{Name: "The Forest Hiker", ...})
package catalog
