package mongoengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

func Test_FilterDocument_CombinesPredicatesOfOneField(t *testing.T) {
	// arrange
	query := catalog.BuildQuery().Where(
		catalog.PredicateOf(catalog.FieldPrice, catalog.OpLte, 997.0),
		catalog.PredicateOf(catalog.FieldPrice, catalog.OpGte, 397.0),
		catalog.In(catalog.FieldDifficulty, "easy", "medium"),
	)

	// act
	filter, err := filterDocument(query.Predicates())

	// assert
	require.NoError(t, err)
	assert.Equal(t, bson.D{
		{Key: catalog.FieldDifficulty, Value: bson.D{{Key: "$in", Value: bson.A{"easy", "medium"}}}},
		{Key: catalog.FieldPrice, Value: bson.D{{Key: "$gte", Value: 397.0}, {Key: "$lte", Value: 997.0}}},
	}, filter)
}

func Test_FilterDocument_When_OperatorIsUnknown(t *testing.T) {
	// act
	_, err := filterDocument([]catalog.Predicate{catalog.PredicateOf(catalog.FieldName, "regex", "^The")})

	// assert
	assert.ErrorIs(t, err, catalog.ErrQueryParse)
}

func Test_FindOptions(t *testing.T) {
	// arrange
	query := catalog.BuildQuery().
		OrderBy(catalog.Desc(catalog.FieldPrice), catalog.Asc(catalog.FieldRatingsAverage)).
		Select(catalog.Excluding(catalog.FieldVersion, catalog.FieldCreatedAt)).
		Page(20, 10)

	// act
	opts := findOptions(query)

	// assert
	assert.Equal(t, bson.D{{Key: catalog.FieldPrice, Value: -1}, {Key: catalog.FieldRatingsAverage, Value: 1}}, opts.Sort)
	assert.Equal(t, bson.D{{Key: catalog.FieldVersion, Value: 0}, {Key: catalog.FieldCreatedAt, Value: 0}}, opts.Projection)
	require.NotNil(t, opts.Skip)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(20), *opts.Skip)
	assert.Equal(t, int64(10), *opts.Limit)
}

func Test_FindOptions_When_QueryIsEmpty(t *testing.T) {
	// act
	opts := findOptions(catalog.BuildQuery())

	// assert
	assert.Nil(t, opts.Sort)
	assert.Nil(t, opts.Projection)
	assert.Nil(t, opts.Skip)
	assert.Nil(t, opts.Limit)
}

func Test_PipelineDocuments_TranslatesEveryStage(t *testing.T) {
	// arrange
	from := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	pipeline := catalog.BuildPipeline(
		catalog.Unwind(catalog.FieldStartDates),
		catalog.Match(catalog.PredicateOf(catalog.FieldStartDates, catalog.OpGte, from)),
		catalog.GroupBy(catalog.GroupKey{Field: catalog.FieldStartDates, Part: catalog.Month}, "month",
			catalog.Accumulator{As: "numTourStarts", Op: catalog.Count},
			catalog.Accumulator{As: "tours", Op: catalog.Push, Field: catalog.FieldName},
		),
		catalog.SortBy(catalog.Desc("numTourStarts")),
		catalog.LimitTo(12),
	)

	// act
	stages, err := pipelineDocuments(pipeline)

	// assert
	require.NoError(t, err)
	assert.Equal(t, mongo.Pipeline{
		{{Key: "$unwind", Value: "$startDates"}},
		{{Key: "$match", Value: bson.D{{Key: catalog.FieldStartDates, Value: bson.D{{Key: "$gte", Value: from}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$month", Value: "$startDates"}}},
			{Key: "numTourStarts", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "tours", Value: bson.D{{Key: "$push", Value: "$name"}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "month", Value: "$_id"},
			{Key: "numTourStarts", Value: 1},
			{Key: "tours", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "numTourStarts", Value: -1}}}},
		{{Key: "$limit", Value: int64(12)}},
	}, stages)
}

func Test_PipelineDocuments_When_StageCanNotBeTranslated(t *testing.T) {
	tests := []struct {
		name     string
		pipeline catalog.Pipeline
	}{
		{
			name:     "unwinding_a_scalar",
			pipeline: catalog.BuildPipeline(catalog.Unwind(catalog.FieldPrice)),
		},
		{
			name: "unknown_accumulator",
			pipeline: catalog.BuildPipeline(catalog.GroupBy(catalog.GroupKey{Field: catalog.FieldDifficulty}, "",
				catalog.Accumulator{As: "median", Op: "median", Field: catalog.FieldPrice})),
		},
		{
			name: "unknown_date_part",
			pipeline: catalog.BuildPipeline(catalog.GroupBy(catalog.GroupKey{Field: catalog.FieldStartDates, Part: "week"}, "",
				catalog.Accumulator{As: "n", Op: catalog.Count})),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := pipelineDocuments(tc.pipeline)

			// assert
			assert.ErrorIs(t, err, catalog.ErrQueryParse)
		})
	}
}

func Test_DocumentFromBSON_RestoresTheDocumentValueTypes(t *testing.T) {
	// arrange
	createdAt := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	raw := bson.M{
		catalog.FieldID:         "a1",
		catalog.FieldDuration:   int32(5),
		catalog.FieldPrice:      int32(397),
		catalog.FieldCreatedAt:  primitive.NewDateTimeFromTime(createdAt),
		catalog.FieldStartDates: primitive.A{primitive.NewDateTimeFromTime(createdAt)},
		catalog.FieldStartLocation: primitive.D{
			{Key: "type", Value: "Point"},
			{Key: "coordinates", Value: primitive.A{-80.185942, 25.774772}},
		},
		"numTours": int32(3),
	}

	// act
	doc := documentFromBSON(raw)

	// assert
	assert.Equal(t, "a1", doc[catalog.FieldID])
	assert.Equal(t, int64(5), doc[catalog.FieldDuration])
	assert.Equal(t, 397.0, doc[catalog.FieldPrice])
	assert.Equal(t, createdAt, doc[catalog.FieldCreatedAt])
	assert.Equal(t, []any{createdAt}, doc[catalog.FieldStartDates])
	assert.Equal(t, map[string]any{"type": "Point", "coordinates": []any{-80.185942, 25.774772}},
		doc[catalog.FieldStartLocation])
	assert.Equal(t, int64(3), doc["numTours"])
}
