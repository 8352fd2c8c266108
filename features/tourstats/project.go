package tourstats

import (
	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

// Project turns the aggregated documents into a TourStats.
// It is a pure function and keeps the order of the documents.
// Storage engines differ in the numeric types they return, so every number goes through catalog.AsFloat.
func Project(docs catalog.Documents) TourStats {
	groups := make([]DifficultyStats, 0, len(docs))

	for _, doc := range docs {
		difficulty, _ := doc[catalog.FieldDifficulty].(string)

		groups = append(groups, DifficultyStats{
			Difficulty: catalog.Difficulty(difficulty),
			NumTours:   intValue(doc[fieldNumTours]),
			NumRatings: intValue(doc[fieldNumRatings]),
			AvgRating:  floatValue(doc[fieldAvgRating]),
			AvgPrice:   floatValue(doc[fieldAvgPrice]),
			MinPrice:   floatValue(doc[fieldMinPrice]),
			MaxPrice:   floatValue(doc[fieldMaxPrice]),
		})
	}

	return TourStats{
		Groups: groups,
		Count:  len(groups),
	}
}

func floatValue(v any) float64 {
	f, _ := catalog.AsFloat(v)
	return f
}

func intValue(v any) int {
	return int(floatValue(v))
}
