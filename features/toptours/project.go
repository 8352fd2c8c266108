package toptours

import (
	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

// Project turns the found documents into TopTours, keeping their order.
func Project(docs catalog.Documents) TopTours {
	tours := make([]TourSummary, 0, len(docs))

	for _, doc := range docs {
		id, _ := doc[catalog.FieldID].(string)
		name, _ := doc[catalog.FieldName].(string)
		summary, _ := doc[catalog.FieldSummary].(string)
		difficulty, _ := doc[catalog.FieldDifficulty].(string)
		price, _ := catalog.AsFloat(doc[catalog.FieldPrice])
		ratingsAverage, _ := catalog.AsFloat(doc[catalog.FieldRatingsAverage])

		tours = append(tours, TourSummary{
			ID:             id,
			Name:           name,
			Price:          price,
			RatingsAverage: ratingsAverage,
			Summary:        summary,
			Difficulty:     catalog.Difficulty(difficulty),
		})
	}

	return TopTours{
		Tours: tours,
		Count: len(tours),
	}
}
