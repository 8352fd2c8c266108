package tourstats

import (
	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

// DifficultyStats are the statistics of all qualifying tours of one difficulty.
type DifficultyStats struct {
	Difficulty catalog.Difficulty
	NumTours   int
	NumRatings int
	AvgRating  float64
	AvgPrice   float64
	MinPrice   float64
	MaxPrice   float64
}

// TourStats represents the query result.
type TourStats struct {
	Groups []DifficultyStats
	Count  int
}
