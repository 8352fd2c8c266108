package monthlyplan

import (
	"time"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

// Project turns the aggregated documents into a MonthlyPlan for the queried year.
// It is a pure function and keeps the order of the documents.
func Project(docs catalog.Documents, query Query) MonthlyPlan {
	months := make([]MonthPlan, 0, len(docs))

	for _, doc := range docs {
		month, _ := catalog.AsFloat(doc[fieldMonth])
		numTourStarts, _ := catalog.AsFloat(doc[fieldNumTourStarts])

		months = append(months, MonthPlan{
			Month:         time.Month(int(month)),
			NumTourStarts: int(numTourStarts),
			Tours:         tourNames(doc[fieldTours]),
		})
	}

	return MonthlyPlan{
		Year:   query.Year,
		Months: months,
	}
}

func tourNames(v any) []string {
	var values []any

	switch list := v.(type) {
	case []any:
		values = list
	case []string:
		return list
	}

	names := make([]string, 0, len(values))
	for _, value := range values {
		if name, ok := value.(string); ok {
			names = append(names, name)
		}
	}

	return names
}
