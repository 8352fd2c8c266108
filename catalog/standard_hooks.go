package catalog

import (
	"context"
	"errors"

	"github.com/gosimple/slug"
)

const (
	HookDeriveSlug            = "derive-slug"
	HookLogPersistedTour      = "log-persisted-tour"
	HookExcludeSecretTours    = "exclude-secret-tours"
	HookStartQueryTimer       = "start-query-timer"
	HookMeasureQueryDuration  = "measure-query-duration"
	HookExcludeSecretFromAggr = "exclude-secret-tours-from-aggregation"
)

const (
	logMsgTourPersisted = "tour persisted"
	logMsgQueryTimed    = "query took"
	logAttrTourID       = "tour_id"
	logAttrTourName     = "tour_name"
	logAttrTourSlug     = "tour_slug"
	logAttrVersion      = "version"
	logAttrOperation    = "operation"
	logAttrResultCount  = "result_count"
	logAttrDurationMS   = "duration_ms"
	logAttrError        = "error"
	logAttrHook         = "hook"
	logAttrHookEvent    = "hook_event"
)

// ErrQueryTimerNotStarted is reported by MeasureQueryDuration when no start time was recorded for the Operation.
var ErrQueryTimerNotStarted = errors.New("query timer was not started")

// DeriveSlug sets the slug to the lower-cased, dash separated form of the name.
func DeriveSlug(_ context.Context, _ *Operation, tour *Tour) error {
	tour.Slug = slug.Make(tour.Name)

	return nil
}

// ExcludeSecretTours adds the implicit "secretTour != true" predicate.
func ExcludeSecretTours(_ context.Context, _ *Operation, query *Query) error {
	*query = withoutSecretTours(*query)

	return nil
}

func secretTourPredicate() Predicate {
	return PredicateOf(FieldSecretTour, OpNe, true)
}

// withoutSecretTours is idempotent, Where drops the repeated predicate.
func withoutSecretTours(query Query) Query {
	return query.Where(secretTourPredicate())
}

// StartQueryTimer records the start time of the query on the Operation.
func StartQueryTimer(_ context.Context, op *Operation, _ *Query) error {
	op.StartedAt = op.Now()

	return nil
}

// ExcludeSecretToursFromAggregation puts a "secretTour != true" MatchStage in front of every other stage.
func ExcludeSecretToursFromAggregation(_ context.Context, _ *Operation, pipeline *Pipeline) error {
	*pipeline = pipelineWithoutSecretTours(*pipeline)

	return nil
}

// pipelineWithoutSecretTours prepends the exclusion stage unless the Pipeline already starts with it.
func pipelineWithoutSecretTours(pipeline Pipeline) Pipeline {
	if stages := pipeline.Stages(); len(stages) > 0 {
		if match, ok := stages[0].(MatchStage); ok && len(match.Predicates) == 1 && isSecretTourPredicate(match.Predicates[0]) {
			return pipeline
		}
	}

	return pipeline.Prepend(Match(secretTourPredicate()))
}

func isSecretTourPredicate(p Predicate) bool {
	if p.Field() != FieldSecretTour || p.Operator() != OpNe {
		return false
	}

	val, ok := p.Val().(bool)

	return ok && val
}

// LogPersistedTour returns a post-persist hook emitting the persisted Tour at info level.
// A nil logger yields a hook that does nothing.
func LogPersistedTour(logger Logger) PersistedHook {
	return func(_ context.Context, op *Operation, tour Tour) error {
		if logger != nil {
			logger.Info(
				logMsgTourPersisted,
				logAttrOperation, op.Name.String(),
				logAttrTourID, tour.ID,
				logAttrTourName, tour.Name,
				logAttrTourSlug, tour.Slug,
				logAttrVersion, tour.Version,
			)
		}

		return nil
	}
}

// MeasureQueryDuration returns a post-query hook computing Operation.Elapsed from the start time
// recorded by StartQueryTimer and logging it at debug level.
func MeasureQueryDuration(logger Logger) ResultHook {
	return func(_ context.Context, op *Operation, docs Documents) error {
		if op.StartedAt.IsZero() {
			return ErrQueryTimerNotStarted
		}

		op.Elapsed = op.Now().Sub(op.StartedAt)

		if logger != nil {
			logger.Debug(
				logMsgQueryTimed,
				logAttrOperation, op.Name.String(),
				logAttrDurationMS, durationToMilliseconds(op.Elapsed),
				logAttrResultCount, len(docs),
			)
		}

		return nil
	}
}

// DefaultHooks registers the standard hooks of the catalog.
func DefaultHooks(logger Logger) Hooks {
	return NewHooks().
		OnPrePersist(HookDeriveSlug, DeriveSlug).
		OnPostPersist(HookLogPersistedTour, LogPersistedTour(logger)).
		OnPreQuery(HookExcludeSecretTours, ExcludeSecretTours).
		OnPreQuery(HookStartQueryTimer, StartQueryTimer).
		OnPostQuery(HookMeasureQueryDuration, MeasureQueryDuration(logger)).
		OnPreAggregate(HookExcludeSecretFromAggr, ExcludeSecretToursFromAggregation)
}
