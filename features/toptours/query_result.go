package toptours

import (
	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

// TourSummary is the short form of a tour returned by the alias.
type TourSummary struct {
	ID             string
	Name           string
	Price          float64
	RatingsAverage float64
	Summary        string
	Difficulty     catalog.Difficulty
}

// TopTours represents the query result.
type TopTours struct {
	Tours []TourSummary
	Count int
}
