package memengine

import (
	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

// matchesAll reports whether doc satisfies every predicate.
func matchesAll(doc catalog.Document, predicates []catalog.Predicate) (bool, error) {
	for _, predicate := range predicates {
		ok, err := matches(doc, predicate)
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}

// matches evaluates one predicate. A list field matches if any of its elements matches,
// ne is the negation of eq, so documents without the field match ne.
func matches(doc catalog.Document, predicate catalog.Predicate) (bool, error) {
	value, found := doc[predicate.Field()]

	switch predicate.Operator() {
	case catalog.OpEq:
		return found && anyElement(value, func(v any) bool { return valuesEqual(v, predicate.Val()) }), nil

	case catalog.OpNe:
		return !found || !anyElement(value, func(v any) bool { return valuesEqual(v, predicate.Val()) }), nil

	case catalog.OpIn:
		return found && anyElement(value, func(v any) bool {
			for _, candidate := range predicate.Vals() {
				if valuesEqual(v, candidate) {
					return true
				}
			}
			return false
		}), nil

	case catalog.OpGt, catalog.OpGte, catalog.OpLt, catalog.OpLte:
		return found && anyElement(value, func(v any) bool {
			c, comparable := compareValues(v, predicate.Val())
			return comparable && holds(predicate.Operator(), c)
		}), nil

	default:
		return false, &catalog.QueryParseError{
			Param:  predicate.Field(),
			Reason: "unsupported operator " + string(predicate.Operator()),
		}
	}
}

func holds(op catalog.Operator, c int) bool {
	switch op {
	case catalog.OpGt:
		return c > 0
	case catalog.OpGte:
		return c >= 0
	case catalog.OpLt:
		return c < 0
	case catalog.OpLte:
		return c <= 0
	default:
		return false
	}
}

func anyElement(value any, check func(v any) bool) bool {
	if list, ok := value.([]any); ok {
		for _, item := range list {
			if check(item) {
				return true
			}
		}
		return false
	}

	return check(value)
}
