package catalog

import (
	"context"
	"slices"
)

// HookEvent is the lifecycle event a hook is bound to.
type HookEvent int

const (
	PrePersist HookEvent = iota + 1
	PostPersist
	PreQuery
	PostQuery
	PreAggregate
)

func (e HookEvent) String() string {
	switch e {
	case PrePersist:
		return "pre-persist"
	case PostPersist:
		return "post-persist"
	case PreQuery:
		return "pre-query"
	case PostQuery:
		return "post-query"
	case PreAggregate:
		return "pre-aggregate"
	default:
		return "unknown"
	}
}

// PersistHook runs before a create or update reaches the store. Mutations of tour are persisted.
type PersistHook func(ctx context.Context, op *Operation, tour *Tour) error

// PersistedHook runs after a successful write. It gets a copy of the committed Tour.
type PersistedHook func(ctx context.Context, op *Operation, tour Tour) error

// QueryHook runs before a read. The store executes the Query as the hook leaves it.
type QueryHook func(ctx context.Context, op *Operation, query *Query) error

// ResultHook runs once after every successful read, also for empty results. It gets a copy of the result.
type ResultHook func(ctx context.Context, op *Operation, docs Documents) error

// AggregateHook runs before an aggregation. The store executes the Pipeline as the hook leaves it.
type AggregateHook func(ctx context.Context, op *Operation, pipeline *Pipeline) error

type registered[H any] struct {
	name string
	hook H
}

// Hooks is an immutable registry of lifecycle hooks.
// Hooks of the same HookEvent run sequentially in registration order.
type Hooks struct {
	prePersist   []registered[PersistHook]
	postPersist  []registered[PersistedHook]
	preQuery     []registered[QueryHook]
	postQuery    []registered[ResultHook]
	preAggregate []registered[AggregateHook]
}

// NewHooks returns an empty registry.
func NewHooks() Hooks {
	return Hooks{}
}

func (h Hooks) OnPrePersist(name string, hook PersistHook) Hooks {
	h.prePersist = append(slices.Clip(h.prePersist), registered[PersistHook]{name: name, hook: hook})
	return h
}

func (h Hooks) OnPostPersist(name string, hook PersistedHook) Hooks {
	h.postPersist = append(slices.Clip(h.postPersist), registered[PersistedHook]{name: name, hook: hook})
	return h
}

func (h Hooks) OnPreQuery(name string, hook QueryHook) Hooks {
	h.preQuery = append(slices.Clip(h.preQuery), registered[QueryHook]{name: name, hook: hook})
	return h
}

func (h Hooks) OnPostQuery(name string, hook ResultHook) Hooks {
	h.postQuery = append(slices.Clip(h.postQuery), registered[ResultHook]{name: name, hook: hook})
	return h
}

func (h Hooks) OnPreAggregate(name string, hook AggregateHook) Hooks {
	h.preAggregate = append(slices.Clip(h.preAggregate), registered[AggregateHook]{name: name, hook: hook})
	return h
}

// Names returns the names of the hooks registered for event, in execution order.
func (h Hooks) Names(event HookEvent) []string {
	switch event {
	case PrePersist:
		return hookNames(h.prePersist)
	case PostPersist:
		return hookNames(h.postPersist)
	case PreQuery:
		return hookNames(h.preQuery)
	case PostQuery:
		return hookNames(h.postQuery)
	case PreAggregate:
		return hookNames(h.preAggregate)
	default:
		return nil
	}
}

func hookNames[H any](hooks []registered[H]) []string {
	names := make([]string, 0, len(hooks))
	for _, r := range hooks {
		names = append(names, r.name)
	}

	return names
}

// RunPrePersist runs the pre-persist hooks, stopping at the first failure.
func (h Hooks) RunPrePersist(ctx context.Context, op *Operation, tour *Tour) error {
	for _, r := range h.prePersist {
		if err := r.hook(ctx, op, tour); err != nil {
			return &HookExecutionError{Event: PrePersist, Hook: r.name, Err: err}
		}
	}

	return nil
}

// RunPostPersist runs every post-persist hook and returns one *ObservabilityFault per failed hook.
func (h Hooks) RunPostPersist(ctx context.Context, op *Operation, tour Tour) []error {
	var faults []error
	for _, r := range h.postPersist {
		if err := r.hook(ctx, op, tour); err != nil {
			faults = append(faults, &ObservabilityFault{Event: PostPersist, Hook: r.name, Err: err})
		}
	}

	return faults
}

// RunPreQuery runs the pre-query hooks, stopping at the first failure.
func (h Hooks) RunPreQuery(ctx context.Context, op *Operation, query *Query) error {
	for _, r := range h.preQuery {
		if err := r.hook(ctx, op, query); err != nil {
			return &HookExecutionError{Event: PreQuery, Hook: r.name, Err: err}
		}
	}

	return nil
}

// RunPostQuery runs every post-query hook and returns one *ObservabilityFault per failed hook.
// Each hook gets its own copy of docs.
func (h Hooks) RunPostQuery(ctx context.Context, op *Operation, docs Documents) []error {
	var faults []error
	for _, r := range h.postQuery {
		if err := r.hook(ctx, op, CloneDocuments(docs)); err != nil {
			faults = append(faults, &ObservabilityFault{Event: PostQuery, Hook: r.name, Err: err})
		}
	}

	return faults
}

// RunPreAggregate runs the pre-aggregate hooks, stopping at the first failure.
func (h Hooks) RunPreAggregate(ctx context.Context, op *Operation, pipeline *Pipeline) error {
	for _, r := range h.preAggregate {
		if err := r.hook(ctx, op, pipeline); err != nil {
			return &HookExecutionError{Event: PreAggregate, Hook: r.name, Err: err}
		}
	}

	return nil
}
