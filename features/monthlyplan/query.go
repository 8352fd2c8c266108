package monthlyplan

import (
	"strconv"
	"time"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

const (
	paramYear = "year"

	fieldMonth         = "month"
	fieldNumTourStarts = "numTourStarts"
	fieldTours         = "tours"

	monthsPerYear = 12
)

// Query is the input of the QueryHandler.
type Query struct {
	Year int
}

// BuildQuery creates a Query for the given year.
func BuildQuery(year int) Query {
	return Query{Year: year}
}

// ParseQuery creates a Query from the raw year parameter, e.g. a path segment.
func ParseQuery(rawYear string) (Query, error) {
	year, err := strconv.Atoi(rawYear)
	if err != nil {
		return Query{}, &catalog.QueryParseError{Param: paramYear, Reason: "not an integer: " + rawYear, Err: err}
	}

	query := BuildQuery(year)
	if err := query.Validate(); err != nil {
		return Query{}, err
	}

	return query, nil
}

// Validate rejects years that can not be planned.
func (q Query) Validate() error {
	if q.Year <= 0 {
		return &catalog.QueryParseError{Param: paramYear, Reason: "must be a positive year"}
	}

	return nil
}

// BuildPipeline returns the aggregation pipeline behind the query.
func (q Query) BuildPipeline() catalog.Pipeline {
	from := time.Date(q.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	until := from.AddDate(1, 0, 0)

	return catalog.BuildPipeline(
		catalog.Unwind(catalog.FieldStartDates),
		catalog.Match(
			catalog.PredicateOf(catalog.FieldStartDates, catalog.OpGte, from),
			catalog.PredicateOf(catalog.FieldStartDates, catalog.OpLt, until),
		),
		catalog.GroupBy(catalog.GroupKey{Field: catalog.FieldStartDates, Part: catalog.Month}, fieldMonth,
			catalog.Accumulator{As: fieldNumTourStarts, Op: catalog.Count},
			catalog.Accumulator{As: fieldTours, Op: catalog.Push, Field: catalog.FieldName},
		),
		catalog.SortBy(catalog.Desc(fieldNumTourStarts)),
		catalog.LimitTo(monthsPerYear),
	)
}
