package toptours_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
	"github.com/AntonStoeckl/tour-catalog-go/catalog/memengine"
	"github.com/AntonStoeckl/tour-catalog-go/features/toptours"
	"github.com/AntonStoeckl/tour-catalog-go/testutil/helper"
)

var createdAt = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

type finderSpy struct {
	params catalog.Params
	err    error
}

func (f *finderSpy) Find(_ context.Context, params catalog.Params) (catalog.Documents, error) {
	f.params = params
	return nil, f.err
}

func givenRepositoryWithTours(t *testing.T) catalog.TourRepository {
	t.Helper()

	ctx := context.Background()
	store, err := memengine.NewCollectionStore()
	require.NoError(t, err)

	given := func(name string, difficulty catalog.Difficulty, price, rating float64, secret bool) {
		helper.GivenStoredTour(t, ctx, store, helper.FixtureTourInput(name), createdAt, func(tour *catalog.Tour) {
			tour.Difficulty = difficulty
			tour.Price = price
			tour.RatingsAverage = rating
			tour.SecretTour = secret
		})
	}

	given("The Forest Hiker", catalog.Easy, 397, 4.7, false)
	given("The Sea Explorer", catalog.Medium, 497, 4.8, false)
	given("The Snow Adventurer", catalog.Difficult, 997, 4.9, false)
	given("The City Wanderer", catalog.Easy, 1197, 4.8, false)
	given("The Park Camper", catalog.Easy, 297, 4.7, false)
	given("The Sports Lover", catalog.Difficult, 2997, 4.3, false)
	given("The Wine Taster", catalog.Easy, 1997, 4.4, false)
	given("The Secret Garden", catalog.Easy, 100, 5, true)

	repo, err := catalog.NewTourRepository(store)
	require.NoError(t, err)

	return repo
}

func names(result toptours.TopTours) []string {
	list := make([]string, 0, len(result.Tours))
	for _, tour := range result.Tours {
		list = append(list, tour.Name)
	}

	return list
}

func Test_QueryHandler_Handle_ReturnsTheFiveBestRatedToursCheaperFirst(t *testing.T) {
	// arrange
	repo := givenRepositoryWithTours(t)
	handler, err := toptours.NewQueryHandler(repo)
	require.NoError(t, err)

	// act
	result, err := handler.Handle(context.Background(), catalog.Params{})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 5, result.Count)
	assert.Equal(t, []string{
		"The Snow Adventurer",
		"The Sea Explorer",
		"The City Wanderer",
		"The Park Camper",
		"The Forest Hiker",
	}, names(result))

	first := result.Tours[0]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 997.0, first.Price)
	assert.Equal(t, 4.9, first.RatingsAverage)
	assert.Equal(t, catalog.Difficult, first.Difficulty)
	assert.Equal(t, "Breathtaking hike through the Canadian Banff National Park", first.Summary)
}

func Test_QueryHandler_Handle_KeepsTheFiltersOfTheCaller(t *testing.T) {
	// arrange
	repo := givenRepositoryWithTours(t)
	handler, err := toptours.NewQueryHandler(repo)
	require.NoError(t, err)

	params := catalog.Params{}.
		With(catalog.FieldDifficulty, "easy").
		With(catalog.ParamLimit, "50")

	// act
	result, err := handler.Handle(context.Background(), params)

	// assert
	require.NoError(t, err)
	assert.Equal(t, []string{
		"The City Wanderer",
		"The Park Camper",
		"The Forest Hiker",
		"The Wine Taster",
	}, names(result))
}

func Test_QueryHandler_Handle_When_FindFails(t *testing.T) {
	// arrange
	finder := &finderSpy{err: catalog.ErrQueryingDocumentsFailed}
	metrics := helper.NewMetricsCollectorSpy()
	handler, err := toptours.NewQueryHandler(finder, toptours.WithMetrics(metrics))
	require.NoError(t, err)

	// act
	result, err := handler.Handle(context.Background(), catalog.Params{})

	// assert
	assert.ErrorIs(t, err, catalog.ErrQueryingDocumentsFailed)
	assert.Equal(t, toptours.TopTours{}, result)
	assert.Equal(t, []string{"5"}, finder.params[catalog.ParamLimit])
	assert.Equal(t, 1, metrics.CountCounterRecords("queryhandler_handle_calls_total",
		map[string]string{"query_type": "TopTours", "status": "error"}))
}

func Test_AliasParams_OverridesLimitSortAndFieldsOnly(t *testing.T) {
	// arrange
	params := catalog.Params{}.
		With("price[lt]", "1000").
		With(catalog.ParamPage, "2").
		With(catalog.ParamSort, "name").
		With(catalog.ParamFields, "description")

	// act
	aliased := toptours.AliasParams(params)

	// assert
	assert.Equal(t, catalog.Params{
		"price[lt]":         {"1000"},
		catalog.ParamPage:   {"2"},
		catalog.ParamLimit:  {"5"},
		catalog.ParamSort:   {"-ratingsAverage,price"},
		catalog.ParamFields: {"name,price,ratingsAverage,summary,difficulty"},
	}, aliased)
	assert.Equal(t, []string{"name"}, params[catalog.ParamSort], "the caller's params are not modified")
}
