package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
	"github.com/AntonStoeckl/tour-catalog-go/catalog/memengine"
	"github.com/AntonStoeckl/tour-catalog-go/testutil/helper"
)

const devData = `[
  {
    "name": "The Forest Hiker",
    "duration": 5,
    "maxGroupSize": 25,
    "difficulty": "easy",
    "ratingsAverage": 4.7,
    "ratingsQuantity": 37,
    "price": 397,
    "summary": "Breathtaking hike through the Canadian Banff National Park",
    "imageCover": "tour-1-cover.jpg",
    "images": ["tour-1-1.jpg", "tour-1-2.jpg", "tour-1-3.jpg"],
    "startDates": ["2021-04-25,10:00", "2021-07-20T10:00:00Z", "2021-10-05"]
  },
  {
    "name": "The Sea Explorer",
    "duration": 7,
    "maxGroupSize": 15,
    "difficulty": "medium",
    "price": 497,
    "summary": "Exploring the jaw-dropping US east coast by foot and by boat",
    "imageCover": "tour-2-cover.jpg",
    "startLocation": {"description": "Miami, USA", "coordinates": [-80.185942, 25.774772]}
  }
]`

func givenImporter(t *testing.T) (importer, *memengine.CollectionStore, *helper.TestLogHandler) {
	t.Helper()

	store, err := memengine.NewCollectionStore()
	require.NoError(t, err)

	logger, logHandler := helper.NewTestLogger(false)
	imp, err := newImporter(store, logger)
	require.NoError(t, err)

	return imp, store, logHandler
}

func Test_DecodeTours_ReadsTheDevDataFormat(t *testing.T) {
	// act
	inputs, err := decodeTours(strings.NewReader(devData))

	// assert
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	hiker := inputs[0]
	assert.Equal(t, "The Forest Hiker", hiker.Name)
	require.NotNil(t, hiker.RatingsAverage)
	assert.Equal(t, 4.7, *hiker.RatingsAverage)
	require.NotNil(t, hiker.RatingsQuantity)
	assert.Equal(t, 37, *hiker.RatingsQuantity)
	assert.Equal(t, []time.Time{
		time.Date(2021, 4, 25, 10, 0, 0, 0, time.UTC),
		time.Date(2021, 7, 20, 10, 0, 0, 0, time.UTC),
		time.Date(2021, 10, 5, 0, 0, 0, 0, time.UTC),
	}, hiker.StartDates)

	explorer := inputs[1]
	assert.Nil(t, explorer.RatingsAverage)
	assert.Empty(t, explorer.StartDates)
	require.NotNil(t, explorer.StartLocation)
	assert.Equal(t, "Miami, USA", explorer.StartLocation.Description)
}

func Test_DecodeTours_When_InputIsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not_an_array", input: `{"name": "The Forest Hiker"}`},
		{name: "unknown_start_date_format", input: `[{"name": "The Forest Hiker", "startDates": ["25.04.2021"]}]`},
		{name: "truncated", input: `[{"name": "The Forest Hiker"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := decodeTours(strings.NewReader(tc.input))

			// assert
			assert.ErrorIs(t, err, ErrDecodingToursFailed)
		})
	}
}

func Test_ImportTours_CreatesEveryTourThroughTheRepository(t *testing.T) {
	// arrange
	ctx := context.Background()
	imp, store, logHandler := givenImporter(t)
	inputs, err := decodeTours(strings.NewReader(devData))
	require.NoError(t, err)

	// act
	imported, err := imp.importTours(ctx, inputs)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Equal(t, 2, store.Len())

	doc, findErr := imp.repo.FindBySlug(ctx, "the-sea-explorer")
	require.NoError(t, findErr)
	assert.Equal(t, 4.5, doc[catalog.FieldRatingsAverage], "defaults apply to absent fields")
	assert.True(t, logHandler.HasInfoLogWithMessage("tours imported").WithAttribute("count", "2").Assert())
}

func Test_ImportTours_When_ATourIsRejected(t *testing.T) {
	// arrange
	ctx := context.Background()
	imp, store, _ := givenImporter(t)
	invalid := helper.FixtureTourInput("Too short")

	// act
	imported, err := imp.importTours(ctx, []catalog.TourInput{
		helper.FixtureTourInput("The Forest Hiker"),
		invalid,
		helper.FixtureTourInput("The Sea Explorer"),
	})

	// assert
	assert.ErrorIs(t, err, ErrImportingTourFailed)
	assert.ErrorIs(t, err, catalog.ErrValidationFailed)
	assert.Equal(t, 1, imported)
	assert.Equal(t, 1, store.Len(), "the import stops at the first failure")
}

func Test_DeleteAll_WipesTheStore(t *testing.T) {
	// arrange
	ctx := context.Background()
	imp, store, _ := givenImporter(t)
	helper.GivenStoredTour(t, ctx, store, helper.FixtureTourInput("The Forest Hiker"), time.Now(), nil)

	// act
	err := imp.deleteAll(ctx)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}
