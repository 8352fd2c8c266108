package catalog_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
	"github.com/AntonStoeckl/tour-catalog-go/testutil/helper"
)

var fakeNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

func validTour() catalog.Tour {
	return catalog.BuildTour(helper.FixtureTourInput("The Forest Hiker"), fakeNow)
}

func Test_Validate_When_TourIsValid(t *testing.T) {
	// arrange
	tour := validTour()

	// act
	err := catalog.Validate(tour)

	// assert
	assert.NoError(t, err)
}

//nolint:funlen
func Test_Validate_When_OneConstraintIsViolated(t *testing.T) {
	discount := 500.0

	tests := []struct {
		name   string
		mutate func(tour *catalog.Tour)
		field  string
		rule   string
	}{
		{name: "missing_name", mutate: func(tour *catalog.Tour) { tour.Name = "" }, field: "name", rule: "required"},
		{name: "short_name", mutate: func(tour *catalog.Tour) { tour.Name = "Too short" }, field: "name", rule: "min"},
		{name: "long_name", mutate: func(tour *catalog.Tour) { tour.Name = strings.Repeat("x", 41) }, field: "name", rule: "max"},
		{name: "missing_duration", mutate: func(tour *catalog.Tour) { tour.Duration = 0 }, field: "duration", rule: "required"},
		{name: "negative_duration", mutate: func(tour *catalog.Tour) { tour.Duration = -3 }, field: "duration", rule: "gt"},
		{name: "missing_max_group_size", mutate: func(tour *catalog.Tour) { tour.MaxGroupSize = 0 }, field: "maxGroupSize", rule: "required"},
		{name: "missing_difficulty", mutate: func(tour *catalog.Tour) { tour.Difficulty = "" }, field: "difficulty", rule: "required"},
		{name: "unknown_difficulty", mutate: func(tour *catalog.Tour) { tour.Difficulty = "extreme" }, field: "difficulty", rule: "oneof"},
		{name: "rating_below_range", mutate: func(tour *catalog.Tour) { tour.RatingsAverage = 0.9 }, field: "ratingsAverage", rule: "min"},
		{name: "rating_above_range", mutate: func(tour *catalog.Tour) { tour.RatingsAverage = 5.1 }, field: "ratingsAverage", rule: "max"},
		{name: "negative_ratings_quantity", mutate: func(tour *catalog.Tour) { tour.RatingsQuantity = -1 }, field: "ratingsQuantity", rule: "min"},
		{name: "missing_price", mutate: func(tour *catalog.Tour) { tour.Price = 0 }, field: "price", rule: "required"},
		{name: "negative_price", mutate: func(tour *catalog.Tour) { tour.Price = -1 }, field: "price", rule: "gt"},
		{name: "discount_above_price", mutate: func(tour *catalog.Tour) { tour.PriceDiscount = &discount }, field: "priceDiscount", rule: "ltfield"},
		{name: "missing_summary", mutate: func(tour *catalog.Tour) { tour.Summary = "" }, field: "summary", rule: "required"},
		{name: "missing_image_cover", mutate: func(tour *catalog.Tour) { tour.ImageCover = "" }, field: "imageCover", rule: "required"},
		{
			name: "start_location_not_a_point",
			mutate: func(tour *catalog.Tour) {
				tour.StartLocation = &catalog.GeoPoint{Type: "Polygon", Coordinates: []float64{-115.57, 51.17}}
			},
			field: "startLocation.type",
			rule:  "eq",
		},
		{
			name: "location_with_one_coordinate",
			mutate: func(tour *catalog.Tour) {
				tour.Locations = []catalog.Location{{Type: "Point", Coordinates: []float64{-116.21}, Day: 1}}
			},
			field: "locations[0].coordinates",
			rule:  "len",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			tour := validTour()
			tc.mutate(&tour)

			// act
			err := catalog.Validate(tour)

			// assert
			require.Error(t, err)
			assert.ErrorIs(t, err, catalog.ErrValidationFailed)

			var validationErr *catalog.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, []string{tc.field}, validationErr.Fields())
			assert.True(t, validationErr.HasViolation(tc.field, tc.rule), "expected rule %s, got %v", tc.rule, validationErr.Violations)
			assert.NotEmpty(t, validationErr.Violations[0].Message)
		})
	}
}

func Test_Validate_When_SeveralConstraintsAreViolated_ReportsAll(t *testing.T) {
	// arrange
	tour := validTour()
	tour.Name = ""
	tour.Price = 0
	tour.Difficulty = "extreme"

	// act
	err := catalog.Validate(tour)

	// assert
	var validationErr *catalog.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.ElementsMatch(t, []string{"name", "difficulty", "price"}, validationErr.Fields())
	assert.Contains(t, err.Error(), "name: is required")
	assert.Contains(t, err.Error(), "difficulty: must be one of: easy, medium, difficult")
}

func Test_BuildTour_AppliesDefaultsAndTrims(t *testing.T) {
	// arrange
	input := helper.FixtureTourInput("   The Sea Explorer  ")
	input.Summary = "  Exploring the jaw-dropping US east coast by foot and by boat "
	input.Description = " "
	input.StartLocation = &catalog.GeoPoint{Coordinates: []float64{-80.18, 25.77}, Address: "Miami, USA"}

	// act
	tour := catalog.BuildTour(input, fakeNow)

	// assert
	assert.NotEmpty(t, tour.ID)
	assert.Equal(t, "The Sea Explorer", tour.Name)
	assert.Equal(t, "Exploring the jaw-dropping US east coast by foot and by boat", tour.Summary)
	assert.Empty(t, tour.Description)
	assert.Equal(t, 4.5, tour.RatingsAverage)
	assert.Equal(t, 0, tour.RatingsQuantity)
	assert.Equal(t, fakeNow, tour.CreatedAt)
	assert.False(t, tour.SecretTour)
	assert.Equal(t, "Point", tour.StartLocation.Type)
	assert.Empty(t, tour.Slug, "the slug is derived by the pre-persist hooks")
}

func Test_BuildTour_KeepsExplicitValues(t *testing.T) {
	// arrange
	rating := 4.9
	quantity := 37
	secret := true
	createdAt := fakeNow.Add(-24 * time.Hour)
	input := helper.FixtureTourInput("The Snow Adventurer")
	input.RatingsAverage = &rating
	input.RatingsQuantity = &quantity
	input.SecretTour = &secret
	input.CreatedAt = &createdAt

	// act
	tour := catalog.BuildTour(input, fakeNow)

	// assert
	assert.Equal(t, 4.9, tour.RatingsAverage)
	assert.Equal(t, 37, tour.RatingsQuantity)
	assert.True(t, tour.SecretTour)
	assert.Equal(t, createdAt, tour.CreatedAt)
}

func Test_DurationWeeks_IsDerivedFromDuration(t *testing.T) {
	// arrange
	tour := validTour()
	tour.Duration = 14

	// act
	weeks := tour.DurationWeeks()
	doc := catalog.WithDurationWeeks(catalog.DocumentFromTour(tour))

	// assert
	assert.Equal(t, 2.0, weeks)
	assert.Equal(t, 2.0, doc[catalog.FieldDurationWeeks])
}

func Test_TourFromDocument_RoundTripsTheStoredFields(t *testing.T) {
	// arrange
	discount := 97.0
	tour := validTour()
	tour.Slug = "the-forest-hiker"
	tour.Version = 3
	tour.PriceDiscount = &discount
	tour.Locations = []catalog.Location{{Type: "Point", Coordinates: []float64{-116.21, 51.42}, Description: "Lake", Day: 2}}

	// act
	decoded, err := catalog.TourFromDocument(catalog.WithDurationWeeks(catalog.DocumentFromTour(tour)))

	// assert
	require.NoError(t, err)
	assert.Equal(t, tour, decoded)
}

func Test_CoerceFilterValue(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		raw      string
		expected any
		wantErr  bool
	}{
		{name: "integer_field", field: "duration", raw: "5", expected: 5.0},
		{name: "number_field", field: "price", raw: "497.5", expected: 497.5},
		{name: "bool_field", field: "secretTour", raw: "true", expected: true},
		{name: "text_field", field: "difficulty", raw: "easy", expected: "easy"},
		{name: "date_field", field: "startDates", raw: "2021-06-19", expected: time.Date(2021, 6, 19, 0, 0, 0, 0, time.UTC)},
		{name: "unknown_field_keeps_raw", field: "foo", raw: "bar", expected: "bar"},
		{name: "not_a_number", field: "duration", raw: "five", wantErr: true},
		{name: "not_a_bool", field: "secretTour", raw: "maybe", wantErr: true},
		{name: "object_field", field: "startLocation", raw: "x", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			value, err := catalog.CoerceFilterValue(tc.field, tc.field, tc.raw)

			// assert
			if tc.wantErr {
				assert.ErrorIs(t, err, catalog.ErrQueryParse)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, value)
		})
	}
}
