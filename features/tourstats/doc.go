// Package tourstats implements the Tour Stats query use case.
//
// Tours rated 4.5 or better are grouped by difficulty. Each group reports the number of tours,
// the number of ratings, the average rating and the average, lowest and highest price.
// Groups are ordered by average price, cheapest first.
//
// The aggregation runs through the repository, so secret tours are never counted.
package tourstats
