package helper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

// FakeClock returns a clock that always reports the given time.
func FakeClock(at time.Time) func() time.Time {
	return func() time.Time {
		return at
	}
}

// GivenUniqueTourName returns a valid (10-40 characters), unique tour name.
func GivenUniqueTourName(t testing.TB) string {
	id, err := uuid.NewV7()
	require.NoError(t, err, "error in arranging test data")

	return "Test Tour " + id.String()[24:]
}

// FixtureTourInput returns a valid TourInput with the given name.
func FixtureTourInput(name string) catalog.TourInput {
	return catalog.TourInput{
		Name:         name,
		Duration:     5,
		MaxGroupSize: 25,
		Difficulty:   string(catalog.Easy),
		Price:        397,
		Summary:      "Breathtaking hike through the Canadian Banff National Park",
		Description:  "Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris.",
		ImageCover:   "tour-1-cover.jpg",
		Images:       []string{"tour-1-1.jpg", "tour-1-2.jpg", "tour-1-3.jpg"},
		StartDates: []time.Time{
			time.Date(2021, 4, 25, 9, 0, 0, 0, time.UTC),
			time.Date(2021, 7, 20, 9, 0, 0, 0, time.UTC),
		},
	}
}

// GivenStoredTour writes a Tour straight into the store, bypassing the repository and its hooks.
// Use mutate to create states the repository would never persist, e.g. secret tours.
func GivenStoredTour(
	t testing.TB,
	ctx context.Context,
	store catalog.CollectionStore,
	input catalog.TourInput,
	createdAt time.Time,
	mutate func(tour *catalog.Tour),
) catalog.Tour {

	tour := catalog.BuildTour(input, createdAt)
	require.NoError(t, catalog.DeriveSlug(ctx, nil, &tour), "error in arranging test data")

	if mutate != nil {
		mutate(&tour)
	}

	stored, err := store.Create(ctx, tour)
	require.NoError(t, err, "error in arranging test data")

	return stored
}

// DocumentIDs returns the _id values of the documents in order.
func DocumentIDs(docs catalog.Documents) []string {
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id, _ := doc[catalog.FieldID].(string)
		ids = append(ids, id)
	}

	return ids
}

// DocumentNames returns the name values of the documents in order.
func DocumentNames(docs catalog.Documents) []string {
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		name, _ := doc[catalog.FieldName].(string)
		names = append(names, name)
	}

	return names
}
