package catalog

import (
	"context"
	"time"
)

const (
	logMsgParseParamsFailed  = "failed to build query from params"
	logMsgReadFailed         = "reading tours failed"
	logMsgPersistFailed      = "persisting tour failed"
	logMsgAggregateFailed    = "aggregating tours failed"
	logMsgHookFault          = "post hook failed"
	logMsgOperationCompleted = "catalog operation completed"
)

// TourRepository is the single choke point for every read, aggregate and write of tours.
//
// Every operation runs the registered lifecycle hooks around the CollectionStore call:
//   - Find, FindQuery, FindByID, FindBySlug: pre-query -> store.Find -> post-query
//   - Update, Delete: the target is loaded through the same query path first
//   - Create, Update: validate -> pre-persist -> store write -> post-persist
//   - Aggregate: pre-aggregate -> store.Aggregate
//
// Secret tours are never visible, with or without the DefaultHooks.
type TourRepository struct {
	store            CollectionStore
	hooks            Hooks
	hooksConfigured  bool
	clock            func() time.Time
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// NewTourRepository creates a TourRepository on top of a CollectionStore.
// Without WithHooks the DefaultHooks are registered, using the configured Logger.
func NewTourRepository(store CollectionStore, options ...Option) (TourRepository, error) {
	if store == nil {
		return TourRepository{}, ErrNilCollectionStore
	}

	r := TourRepository{
		store: store,
		clock: time.Now,
	}

	for _, option := range options {
		if err := option(&r); err != nil {
			return TourRepository{}, err
		}
	}

	if !r.hooksConfigured {
		r.hooks = DefaultHooks(r.logger)
	}

	return r, nil
}

// Hooks returns the registered lifecycle hooks.
func (r TourRepository) Hooks() Hooks {
	return r.hooks
}

// Find builds a Query from request Params and reads the matching tours.
func (r TourRepository) Find(ctx context.Context, params Params) (Documents, error) {
	query, err := BuildQueryFromParams(params)
	if err != nil {
		r.logErrorContext(ctx, logMsgParseParamsFailed, err)
		return nil, err
	}

	return r.FindQuery(ctx, query)
}

// FindQuery reads the tours matching an already built Query.
// Hidden fields are only returned when the projection includes them explicitly.
func (r TourRepository) FindQuery(ctx context.Context, query Query) (Documents, error) {
	obs, ctx := r.startObservation(ctx, OperationFind)
	op := NewOperation(OperationFind, r.clock)

	docs, err := r.runQuery(ctx, op, withHiddenFields(query))
	obs.finish(err, len(docs))

	return docs, err
}

// FindByID reads one visible tour. It returns ErrDocumentNotFound if there is none.
func (r TourRepository) FindByID(ctx context.Context, id string) (Document, error) {
	return r.findOne(ctx, OperationFindByID, P(FieldID, id))
}

// FindBySlug reads one visible tour. It returns ErrDocumentNotFound if there is none.
func (r TourRepository) FindBySlug(ctx context.Context, tourSlug string) (Document, error) {
	return r.findOne(ctx, OperationFindBySlug, P(FieldSlug, tourSlug))
}

func (r TourRepository) findOne(ctx context.Context, name OperationName, predicate Predicate) (Document, error) {
	obs, ctx := r.startObservation(ctx, name)
	op := NewOperation(name, r.clock)

	query := BuildQuery().Where(predicate).Select(Excluding(FieldVersion)).Page(0, 1)

	docs, err := r.runQuery(ctx, op, withHiddenFields(query))
	if err == nil && len(docs) == 0 {
		err = ErrDocumentNotFound
	}

	obs.finish(err, len(docs))
	if err != nil {
		return nil, err
	}

	return docs[0], nil
}

// Create builds a Tour from input (defaults, trimming, new ID), validates it and persists it.
// Nothing is written if validation or a pre-persist hook fails.
func (r TourRepository) Create(ctx context.Context, input TourInput) (Tour, error) {
	obs, ctx := r.startObservation(ctx, OperationCreate)
	op := NewOperation(OperationCreate, r.clock)

	tour := BuildTour(input, r.clock())

	created, err := r.persist(ctx, op, tour, func(ctx context.Context, tour Tour) (Tour, error) {
		return r.store.Create(ctx, tour)
	})
	obs.finish(err, 1)

	return created, err
}

// Update loads a visible tour, applies change to it, then validates and persists the result.
// The slug is re-derived by the pre-persist hooks.
// It returns ErrConcurrencyConflict if the tour was changed by somebody else in between.
func (r TourRepository) Update(ctx context.Context, id string, change func(tour *Tour) error) (Tour, error) {
	obs, ctx := r.startObservation(ctx, OperationUpdate)
	op := NewOperation(OperationUpdate, r.clock)

	updated, err := r.update(ctx, op, id, change)
	obs.finish(err, 1)

	return updated, err
}

func (r TourRepository) update(ctx context.Context, op *Operation, id string, change func(tour *Tour) error) (Tour, error) {
	current, err := r.loadTour(ctx, op, id)
	if err != nil {
		return Tour{}, err
	}

	changed := current
	if err = change(&changed); err != nil {
		return Tour{}, err
	}

	changed.ID = current.ID
	changed.Version = current.Version
	changed.CreatedAt = current.CreatedAt
	trimTextFields(&changed)

	return r.persist(ctx, op, changed, func(ctx context.Context, tour Tour) (Tour, error) {
		return r.store.Update(ctx, tour, current.Version)
	})
}

// Delete removes a visible tour. Secret tours can not be deleted through the repository.
func (r TourRepository) Delete(ctx context.Context, id string) error {
	obs, ctx := r.startObservation(ctx, OperationDelete)
	op := NewOperation(OperationDelete, r.clock)

	_, err := r.loadTour(ctx, op, id)
	if err == nil {
		err = r.store.Delete(ctx, id)
	}

	if err != nil {
		r.logErrorContext(ctx, logMsgPersistFailed, err, logAttrOperation, op.Name.String(), logAttrTourID, id)
	}

	obs.finish(err, 1)

	return err
}

// Aggregate runs the pre-aggregate hooks and then the (possibly extended) Pipeline in the store.
func (r TourRepository) Aggregate(ctx context.Context, pipeline Pipeline) (Documents, error) {
	obs, ctx := r.startObservation(ctx, OperationAggregate)
	op := NewOperation(OperationAggregate, r.clock)

	docs, err := r.aggregate(ctx, op, pipeline)
	obs.finish(err, len(docs))

	return docs, err
}

func (r TourRepository) aggregate(ctx context.Context, op *Operation, pipeline Pipeline) (Documents, error) {
	if err := r.hooks.RunPreAggregate(ctx, op, &pipeline); err != nil {
		r.logErrorContext(ctx, logMsgAggregateFailed, err)
		return nil, err
	}

	pipeline = pipelineWithoutSecretTours(pipeline)

	docs, err := r.store.Aggregate(ctx, pipeline)
	if err != nil {
		r.logErrorContext(ctx, logMsgAggregateFailed, err)
		return nil, err
	}

	return docs, nil
}

// runQuery is the read path shared by every read variant.
// Secret tours are excluded after the pre-query hooks ran, so no registry can lift the exclusion.
// Post-query hooks run exactly once per successful store read, also for empty results.
func (r TourRepository) runQuery(ctx context.Context, op *Operation, query Query) (Documents, error) {
	if err := r.hooks.RunPreQuery(ctx, op, &query); err != nil {
		r.logErrorContext(ctx, logMsgReadFailed, err, logAttrOperation, op.Name.String())
		return nil, err
	}

	query = withoutSecretTours(query)

	docs, err := r.store.Find(ctx, query)
	if err != nil {
		r.logErrorContext(ctx, logMsgReadFailed, err, logAttrOperation, op.Name.String())
		return nil, err
	}

	result := make(Documents, 0, len(docs))
	for _, doc := range docs {
		result = append(result, WithDurationWeeks(doc))
	}

	op.Results = len(result)
	r.reportFaults(ctx, r.hooks.RunPostQuery(ctx, op, result))

	return result, nil
}

// loadTour reads the complete stored Tour through the query path, so only visible tours are found.
func (r TourRepository) loadTour(ctx context.Context, op *Operation, id string) (Tour, error) {
	query := BuildQuery().Where(P(FieldID, id)).Page(0, 1)

	docs, err := r.runQuery(ctx, op, query)
	if err != nil {
		return Tour{}, err
	}

	if len(docs) == 0 {
		return Tour{}, ErrDocumentNotFound
	}

	return TourFromDocument(docs[0])
}

type writeFunc func(ctx context.Context, tour Tour) (Tour, error)

// persist is the write path shared by Create and Update.
func (r TourRepository) persist(ctx context.Context, op *Operation, tour Tour, write writeFunc) (Tour, error) {
	if err := Validate(tour); err != nil {
		r.logErrorContext(ctx, logMsgPersistFailed, err, logAttrOperation, op.Name.String(), logAttrTourName, tour.Name)
		return Tour{}, err
	}

	if err := r.hooks.RunPrePersist(ctx, op, &tour); err != nil {
		r.logErrorContext(ctx, logMsgPersistFailed, err, logAttrOperation, op.Name.String(), logAttrTourName, tour.Name)
		return Tour{}, err
	}

	stored, err := write(ctx, tour)
	if err != nil {
		r.logErrorContext(ctx, logMsgPersistFailed, err, logAttrOperation, op.Name.String(), logAttrTourName, tour.Name)
		return Tour{}, err
	}

	r.reportFaults(ctx, r.hooks.RunPostPersist(ctx, op, stored))

	return stored, nil
}

// withHiddenFields leaves the hidden fields out unless an inclusion projection names them.
func withHiddenFields(query Query) Query {
	return query.Select(query.Projection().AlsoExcluding(hiddenTourFields...))
}
