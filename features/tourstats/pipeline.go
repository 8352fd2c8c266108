package tourstats

import (
	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

const (
	// MinRatingsAverage is the lowest ratingsAverage a tour needs to be counted.
	MinRatingsAverage = 4.5

	fieldNumTours   = "numTours"
	fieldNumRatings = "numRatings"
	fieldAvgRating  = "avgRating"
	fieldAvgPrice   = "avgPrice"
	fieldMinPrice   = "minPrice"
	fieldMaxPrice   = "maxPrice"
)

// BuildPipeline returns the aggregation pipeline behind the query.
func BuildPipeline() catalog.Pipeline {
	return catalog.BuildPipeline(
		catalog.Match(catalog.PredicateOf(catalog.FieldRatingsAverage, catalog.OpGte, MinRatingsAverage)),
		catalog.GroupBy(catalog.GroupKey{Field: catalog.FieldDifficulty}, catalog.FieldDifficulty,
			catalog.Accumulator{As: fieldNumTours, Op: catalog.Count},
			catalog.Accumulator{As: fieldNumRatings, Op: catalog.Sum, Field: catalog.FieldRatingsQuantity},
			catalog.Accumulator{As: fieldAvgRating, Op: catalog.Avg, Field: catalog.FieldRatingsAverage},
			catalog.Accumulator{As: fieldAvgPrice, Op: catalog.Avg, Field: catalog.FieldPrice},
			catalog.Accumulator{As: fieldMinPrice, Op: catalog.Min, Field: catalog.FieldPrice},
			catalog.Accumulator{As: fieldMaxPrice, Op: catalog.Max, Field: catalog.FieldPrice},
		),
		catalog.SortBy(catalog.Asc(fieldAvgPrice)),
	)
}
