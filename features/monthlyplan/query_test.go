package monthlyplan_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
	"github.com/AntonStoeckl/tour-catalog-go/features/monthlyplan"
)

func Test_Query_BuildPipeline_CoversExactlyTheQueriedYear(t *testing.T) {
	// act
	stages := monthlyplan.BuildQuery(2021).BuildPipeline().Stages()

	// assert
	require.Len(t, stages, 5)
	assert.Equal(t, catalog.Unwind(catalog.FieldStartDates), stages[0])

	match, ok := stages[1].(catalog.MatchStage)
	require.True(t, ok)
	require.Len(t, match.Predicates, 2)
	assert.Equal(t, catalog.OpGte, match.Predicates[0].Operator())
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), match.Predicates[0].Val())
	assert.Equal(t, catalog.OpLt, match.Predicates[1].Operator())
	assert.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), match.Predicates[1].Val())

	assert.Equal(t, catalog.LimitTo(12), stages[4])
}

func Test_Project_AcceptsTheNumericTypesOfEveryEngine(t *testing.T) {
	// arrange
	docs := catalog.Documents{
		{"month": int64(4), "numTourStarts": int64(2), "tours": []any{"The Forest Hiker", "The Sea Explorer"}},
		{"month": 7.0, "numTourStarts": 1.0, "tours": []any{"The Forest Hiker"}},
	}

	// act
	plan := monthlyplan.Project(docs, monthlyplan.BuildQuery(2021))

	// assert
	assert.Equal(t, monthlyplan.MonthlyPlan{
		Year: 2021,
		Months: []monthlyplan.MonthPlan{
			{Month: time.April, NumTourStarts: 2, Tours: []string{"The Forest Hiker", "The Sea Explorer"}},
			{Month: time.July, NumTourStarts: 1, Tours: []string{"The Forest Hiker"}},
		},
	}, plan)
}
