package catalog

import (
	"cmp"
	"fmt"
	"slices"
)

type FieldNameString = string

/***** Operator *****/

// Operator is the tagged variant of a filter predicate.
type Operator string

const (
	OpEq  Operator = "eq"
	OpNe  Operator = "ne"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpIn  Operator = "in"
)

// ParseOperator maps the bracketed suffix of a filter key (e.g. "gte" in "duration[gte]") to an Operator.
// Only comparison operators are accepted from request parameters.
func ParseOperator(s string) (Operator, bool) {
	switch Operator(s) {
	case OpGt, OpGte, OpLt, OpLte:
		return Operator(s), true
	default:
		return "", false
	}
}

/***** Predicate *****/

// Predicate is one "field operator value" condition. All predicates of a Query must match.
type Predicate struct {
	field FieldNameString
	op    Operator
	val   any
}

// P builds an equality Predicate.
func P(field FieldNameString, val any) Predicate {
	return Predicate{field: field, op: OpEq, val: val}
}

// PredicateOf builds a Predicate with an explicit Operator.
func PredicateOf(field FieldNameString, op Operator, val any) Predicate {
	return Predicate{field: field, op: op, val: val}
}

// In builds a Predicate matching any of the given values.
func In(field FieldNameString, vals ...any) Predicate {
	return Predicate{field: field, op: OpIn, val: slices.Clone(vals)}
}

func (p Predicate) Field() FieldNameString {
	return p.field
}

func (p Predicate) Operator() Operator {
	return p.op
}

func (p Predicate) Val() any {
	return p.val
}

// Vals returns the values of an OpIn Predicate, or the single value of any other Predicate.
func (p Predicate) Vals() []any {
	if vals, ok := p.val.([]any); ok && p.op == OpIn {
		return vals
	}

	return []any{p.val}
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %v", p.field, p.op, p.val)
}

/***** SortField *****/

type SortField struct {
	field      FieldNameString
	descending bool
}

func Asc(field FieldNameString) SortField {
	return SortField{field: field}
}

func Desc(field FieldNameString) SortField {
	return SortField{field: field, descending: true}
}

func (s SortField) Field() FieldNameString {
	return s.field
}

func (s SortField) Descending() bool {
	return s.descending
}

/***** Projection *****/

type ProjectionMode int

const (
	// ProjectAll returns every stored field.
	ProjectAll ProjectionMode = iota

	// ProjectInclude returns only the listed fields (plus _id).
	ProjectInclude

	// ProjectExclude returns every stored field except the listed ones.
	ProjectExclude
)

type Projection struct {
	mode   ProjectionMode
	fields []FieldNameString
}

// Including builds an inclusion Projection. Empty and duplicate field names are removed.
func Including(field FieldNameString, fields ...FieldNameString) Projection {
	return Projection{mode: ProjectInclude, fields: sanitizeFields(field, fields...)}
}

// Excluding builds an exclusion Projection. Empty and duplicate field names are removed.
func Excluding(field FieldNameString, fields ...FieldNameString) Projection {
	return Projection{mode: ProjectExclude, fields: sanitizeFields(field, fields...)}
}

func (p Projection) Mode() ProjectionMode {
	return p.mode
}

func (p Projection) Fields() []FieldNameString {
	return p.fields
}

// Returns reports whether a field survives the Projection.
func (p Projection) Returns(field FieldNameString) bool {
	switch p.mode {
	case ProjectInclude:
		return field == FieldID || slices.Contains(p.fields, field)
	case ProjectExclude:
		return !slices.Contains(p.fields, field)
	default:
		return true
	}
}

// AlsoExcluding adds fields to an exclusion (or an all-fields) Projection.
// An inclusion Projection is returned unchanged because it never returns unlisted fields.
func (p Projection) AlsoExcluding(fields ...FieldNameString) Projection {
	if len(fields) == 0 {
		return p
	}

	switch p.mode {
	case ProjectInclude:
		return p
	case ProjectAll:
		return Excluding(fields[0], fields[1:]...)
	default:
		return Excluding(fields[0], append(slices.Clone(p.fields), fields...)...)
	}
}

func sanitizeFields(field FieldNameString, fields ...FieldNameString) []FieldNameString {
	allFields := append([]FieldNameString{field}, fields...)
	allFields = slices.DeleteFunc(allFields, func(f FieldNameString) bool { return f == "" })
	slices.Sort(allFields)
	allFields = slices.Compact(allFields)
	allFields = slices.Clip(allFields)

	return allFields
}

/***** Query *****/

// Query is the structured, storage-engine-agnostic query descriptor:
// filter (all predicates must match) + sort + projection + pagination.
//
// A Query is immutable, every method returns a modified copy.
// Stores apply it in the order filter -> sort -> skip -> limit -> projection.
type Query struct {
	predicates []Predicate
	sort       []SortField
	projection Projection
	skip       int
	limit      int
}

// BuildQuery starts an empty Query matching every document.
func BuildQuery() Query {
	return Query{}
}

func (q Query) Predicates() []Predicate {
	return q.predicates
}

func (q Query) Sort() []SortField {
	return q.sort
}

func (q Query) Projection() Projection {
	return q.projection
}

func (q Query) Skip() int {
	return q.skip
}

// Limit returns the result cap, 0 means no cap.
func (q Query) Limit() int {
	return q.limit
}

// Where adds one or multiple Predicate(s).
//
// It sanitizes the input:
//   - removing Predicate(s) without a field
//   - sorting all Predicate(s) by field, then operator, then rendered value
//   - removing exact duplicates
//
// Applying the same Predicate(s) again leaves the Query unchanged.
func (q Query) Where(predicate Predicate, predicates ...Predicate) Query {
	allPredicates := append(slices.Clone(q.predicates), predicate)
	allPredicates = append(allPredicates, predicates...)
	allPredicates = slices.DeleteFunc(allPredicates, func(p Predicate) bool { return p.field == "" })

	slices.SortStableFunc(allPredicates, func(a, b Predicate) int {
		return cmp.Or(
			cmp.Compare(a.field, b.field),
			cmp.Compare(a.op, b.op),
			cmp.Compare(fmt.Sprint(a.val), fmt.Sprint(b.val)),
		)
	})

	allPredicates = slices.CompactFunc(allPredicates, func(a, b Predicate) bool {
		return a.field == b.field && a.op == b.op && fmt.Sprint(a.val) == fmt.Sprint(b.val)
	})
	q.predicates = slices.Clip(allPredicates)

	return q
}

// OrderBy replaces the sort order. Fields are applied as a composite ordering in the given order.
func (q Query) OrderBy(sortFields ...SortField) Query {
	q.sort = slices.DeleteFunc(slices.Clone(sortFields), func(s SortField) bool { return s.field == "" })

	return q
}

// Select replaces the Projection.
func (q Query) Select(projection Projection) Query {
	q.projection = projection

	return q
}

// Page sets skip and limit. Negative values are treated as 0.
func (q Query) Page(skip, limit int) Query {
	q.skip = max(skip, 0)
	q.limit = max(limit, 0)

	return q
}
