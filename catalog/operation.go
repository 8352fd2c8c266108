package catalog

import (
	"time"
)

// OperationName identifies the kind of repository operation a hook runs around.
type OperationName string

const (
	OperationFind       OperationName = "find"
	OperationFindByID   OperationName = "findById"
	OperationFindBySlug OperationName = "findBySlug"
	OperationCreate     OperationName = "create"
	OperationUpdate     OperationName = "update"
	OperationDelete     OperationName = "delete"
	OperationAggregate  OperationName = "aggregate"
)

func (n OperationName) String() string {
	return string(n)
}

// Operation is the per-operation state shared by the pre- and post- hooks of ONE repository call.
// A new Operation is created for every call and handed to the hooks explicitly,
// e.g. the query timer writes StartedAt in pre-query and reads it back in post-query.
type Operation struct {
	Name      OperationName
	StartedAt time.Time
	Elapsed   time.Duration
	Results   int

	now func() time.Time
}

// NewOperation creates an Operation using clock as its time source (time.Now when nil).
func NewOperation(name OperationName, clock func() time.Time) *Operation {
	if clock == nil {
		clock = time.Now
	}

	return &Operation{Name: name, now: clock}
}

// Now returns the current time of the Operation's clock.
func (op *Operation) Now() time.Time {
	return op.now()
}
