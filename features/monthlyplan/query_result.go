package monthlyplan

import (
	"time"
)

// MonthPlan lists the tour starts of one month.
type MonthPlan struct {
	Month         time.Month
	NumTourStarts int
	Tours         []string
}

// MonthlyPlan represents the query result.
type MonthlyPlan struct {
	Year   int
	Months []MonthPlan
}
