package catalog

import (
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

const (
	ParamPage   = "page"
	ParamSort   = "sort"
	ParamLimit  = "limit"
	ParamFields = "fields"
)

const (
	defaultPage  = 1
	defaultLimit = 100
	descPrefix   = "-"
	listSep      = ","
)

var reservedParams = []string{ParamPage, ParamSort, ParamLimit, ParamFields}

// Params is the request parameter surface: string keys mapping to one or more string values.
// url.Values converts to Params directly.
type Params map[string][]string

// With returns a copy of the Params where key is set to the given values.
func (p Params) With(key string, values ...string) Params {
	cloned := maps.Clone(p)
	if cloned == nil {
		cloned = Params{}
	}
	cloned[key] = slices.Clone(values)

	return cloned
}

// first returns the first value for key, or "" and false.
func (p Params) first(key string) (string, bool) {
	values, ok := p[key]
	if !ok || len(values) == 0 {
		return "", false
	}

	return values[0], true
}

// list joins all values of key and splits them at commas, dropping empty entries.
func (p Params) list(key string) []string {
	var items []string
	for _, value := range p[key] {
		for _, item := range strings.Split(value, listSep) {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
	}

	return items
}

// Features turns Params into a Query through four independent transformations.
//
// Every transformation returns a new Features value, so they compose fluently:
//
//	query, err := catalog.NewFeatures(params).Filter().Sort().LimitFields().Paginate().Query()
//
// The first parse error is kept and reported by Query, later transformations are skipped.
type Features struct {
	params Params
	query  Query
	err    error
}

// NewFeatures starts a Features pipeline over the given Params with an empty Query.
func NewFeatures(params Params) Features {
	return Features{params: params, query: BuildQuery()}
}

// Query returns the built Query or the first parse error.
func (f Features) Query() (Query, error) {
	if f.err != nil {
		return Query{}, f.err
	}

	return f.query, nil
}

// Filter turns every non-reserved parameter into predicates.
//
//   - field=value -> field eq value
//   - field=a&field=b -> field in (a, b)
//   - field[gte|gt|lte|lt]=value -> comparison predicate
//
// Any other bracketed operator is a *QueryParseError.
func (f Features) Filter() Features {
	if f.err != nil {
		return f
	}

	keys := slices.Sorted(maps.Keys(f.params))
	for _, key := range keys {
		if slices.Contains(reservedParams, key) {
			continue
		}

		predicates, err := parseFilterParam(key, f.params[key])
		if err != nil {
			f.err = err
			return f
		}

		if len(predicates) > 0 {
			f.query = f.query.Where(predicates[0], predicates[1:]...)
		}
	}

	return f
}

func parseFilterParam(key string, rawValues []string) ([]Predicate, error) {
	field, op, err := parseFilterKey(key)
	if err != nil {
		return nil, err
	}

	if len(rawValues) == 0 {
		return nil, nil
	}

	values := make([]any, 0, len(rawValues))
	for _, raw := range rawValues {
		value, coerceErr := CoerceFilterValue(key, field, raw)
		if coerceErr != nil {
			return nil, coerceErr
		}
		values = append(values, value)
	}

	if op == OpEq {
		if len(values) == 1 {
			return []Predicate{P(field, values[0])}, nil
		}
		return []Predicate{In(field, values...)}, nil
	}

	predicates := make([]Predicate, 0, len(values))
	for _, value := range values {
		predicates = append(predicates, PredicateOf(field, op, value))
	}

	return predicates, nil
}

func parseFilterKey(key string) (FieldNameString, Operator, error) {
	field, rest, hasBracket := strings.Cut(key, "[")
	if field == "" {
		return "", "", &QueryParseError{Param: key, Reason: "missing field name"}
	}

	if !hasBracket {
		return field, OpEq, nil
	}

	opString, found := strings.CutSuffix(rest, "]")
	if !found || strings.ContainsAny(opString, "[]") {
		return "", "", &QueryParseError{Param: key, Reason: "malformed operator"}
	}

	op, ok := ParseOperator(opString)
	if !ok {
		return "", "", &QueryParseError{Param: key, Reason: "unknown operator " + strconv.Quote(opString)}
	}

	return field, op, nil
}

// Sort applies the comma separated sort parameter, "-" prefix for descending.
// Without a sort parameter the Query is ordered by createdAt, newest first.
func (f Features) Sort() Features {
	if f.err != nil {
		return f
	}

	items := f.params.list(ParamSort)
	if len(items) == 0 {
		f.query = f.query.OrderBy(Desc(FieldCreatedAt))
		return f
	}

	sortFields := make([]SortField, 0, len(items))
	for _, item := range items {
		field, descending := strings.CutPrefix(item, descPrefix)
		if field == "" {
			f.err = &QueryParseError{Param: ParamSort, Reason: "missing field name in " + strconv.Quote(item)}
			return f
		}

		if descending {
			sortFields = append(sortFields, Desc(field))
		} else {
			sortFields = append(sortFields, Asc(field))
		}
	}

	f.query = f.query.OrderBy(sortFields...)

	return f
}

// LimitFields applies the comma separated fields parameter as a Projection.
// Either all fields carry the "-" prefix (exclusion) or none (inclusion).
// Without a fields parameter only the version field is excluded.
func (f Features) LimitFields() Features {
	if f.err != nil {
		return f
	}

	items := f.params.list(ParamFields)
	if len(items) == 0 {
		f.query = f.query.Select(Excluding(FieldVersion))
		return f
	}

	var included, excluded []FieldNameString
	for _, item := range items {
		field, exclude := strings.CutPrefix(item, descPrefix)
		if field == "" {
			f.err = &QueryParseError{Param: ParamFields, Reason: "missing field name in " + strconv.Quote(item)}
			return f
		}

		if exclude {
			excluded = append(excluded, field)
		} else {
			included = append(included, field)
		}
	}

	switch {
	case len(included) > 0 && len(excluded) > 0:
		f.err = &QueryParseError{Param: ParamFields, Reason: "can not mix included and excluded fields"}
	case len(included) > 0:
		f.query = f.query.Select(Including(included[0], included[1:]...))
	default:
		f.query = f.query.Select(Excluding(excluded[0], excluded[1:]...))
	}

	return f
}

// Paginate applies page and limit, skip = (page-1) * limit.
// Missing, non-numeric or non-positive values fall back to page 1 and limit 100. The limit has no upper bound.
func (f Features) Paginate() Features {
	if f.err != nil {
		return f
	}

	page := positiveIntParam(f.params, ParamPage, defaultPage)
	limit := positiveIntParam(f.params, ParamLimit, defaultLimit)

	f.query = f.query.Page(skipFor(page, limit), limit)

	return f
}

// skipFor saturates at math.MaxInt, so a page beyond the addressable range stays empty.
func skipFor(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}

	return (page - 1) * limit
}

func positiveIntParam(params Params, key string, fallback int) int {
	raw, ok := params.first(key)
	if !ok {
		return fallback
	}

	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}

	return n
}

// BuildQueryFromParams runs the full Features pipeline: filter, sort, fields, paginate.
func BuildQueryFromParams(params Params) (Query, error) {
	return NewFeatures(params).Filter().Sort().LimitFields().Paginate().Query()
}
