package mongoengine

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

const (
	sortAscending  = 1
	sortDescending = -1
	fieldRef       = "$"
)

var operators = map[catalog.Operator]string{
	catalog.OpEq:  "$eq",
	catalog.OpNe:  "$ne",
	catalog.OpGt:  "$gt",
	catalog.OpGte: "$gte",
	catalog.OpLt:  "$lt",
	catalog.OpLte: "$lte",
	catalog.OpIn:  "$in",
}

var accumulators = map[catalog.AccumulatorOp]string{
	catalog.Count: "$sum",
	catalog.Sum:   "$sum",
	catalog.Avg:   "$avg",
	catalog.Min:   "$min",
	catalog.Max:   "$max",
	catalog.Push:  "$push",
}

var dateParts = map[catalog.DatePart]string{
	catalog.Month: "$month",
	catalog.Year:  "$year",
}

/***** find *****/

func findOptions(query catalog.Query) *options.FindOptions {
	opts := options.Find()

	if sort := sortDocument(query.Sort()); len(sort) > 0 {
		opts.SetSort(sort)
	}

	if projection := projectionDocument(query.Projection()); projection != nil {
		opts.SetProjection(projection)
	}

	if query.Skip() > 0 {
		opts.SetSkip(int64(query.Skip()))
	}

	if query.Limit() > 0 {
		opts.SetLimit(int64(query.Limit()))
	}

	return opts
}

// filterDocument combines all predicates of one field into one operator document.
func filterDocument(predicates []catalog.Predicate) (bson.D, error) {
	filter := bson.D{}
	byField := make(map[string]int)

	for _, predicate := range predicates {
		op, known := operators[predicate.Operator()]
		if !known {
			return nil, &catalog.QueryParseError{
				Param:  predicate.Field(),
				Reason: "unsupported operator " + string(predicate.Operator()),
			}
		}

		var value any = predicate.Val()
		if predicate.Operator() == catalog.OpIn {
			value = bson.A(predicate.Vals())
		}

		idx, seen := byField[predicate.Field()]
		if !seen {
			filter = append(filter, bson.E{Key: predicate.Field(), Value: bson.D{}})
			idx = len(filter) - 1
			byField[predicate.Field()] = idx
		}

		operatorDoc := filter[idx].Value.(bson.D)
		filter[idx].Value = append(operatorDoc, bson.E{Key: op, Value: value})
	}

	return filter, nil
}

func sortDocument(sortFields []catalog.SortField) bson.D {
	sort := bson.D{}

	for _, sortField := range sortFields {
		direction := sortAscending
		if sortField.Descending() {
			direction = sortDescending
		}

		sort = append(sort, bson.E{Key: sortField.Field(), Value: direction})
	}

	return sort
}

func projectionDocument(projection catalog.Projection) bson.D {
	var flag int

	switch projection.Mode() {
	case catalog.ProjectInclude:
		flag = 1
	case catalog.ProjectExclude:
		flag = 0
	default:
		return nil
	}

	doc := bson.D{}
	for _, field := range projection.Fields() {
		doc = append(doc, bson.E{Key: field, Value: flag})
	}

	return doc
}

/***** aggregation *****/

func pipelineDocuments(pipeline catalog.Pipeline) (mongo.Pipeline, error) {
	stages := mongo.Pipeline{}
	grouped := false

	for _, stage := range pipeline.Stages() {
		switch s := stage.(type) {
		case catalog.MatchStage:
			filter, err := filterDocument(s.Predicates)
			if err != nil {
				return nil, err
			}
			stages = append(stages, bson.D{{Key: "$match", Value: filter}})

		case catalog.UnwindStage:
			if kind, known := catalog.TourFieldKind(s.Field); known && !grouped && !isListKind(kind) {
				return nil, &catalog.QueryParseError{Param: s.Field, Reason: "only list fields can be unwound"}
			}
			stages = append(stages, bson.D{{Key: "$unwind", Value: fieldRef + s.Field}})

		case catalog.GroupStage:
			groupStages, err := groupDocuments(s)
			if err != nil {
				return nil, err
			}
			stages = append(stages, groupStages...)
			grouped = true

		case catalog.SortStage:
			if sort := sortDocument(s.Fields); len(sort) > 0 {
				stages = append(stages, bson.D{{Key: "$sort", Value: sort}})
			}

		case catalog.LimitStage:
			if s.N > 0 {
				stages = append(stages, bson.D{{Key: "$limit", Value: int64(s.N)}})
			}

		default:
			return nil, &catalog.QueryParseError{Reason: fmt.Sprintf("unsupported aggregation stage %T", stage)}
		}
	}

	return stages, nil
}

func isListKind(kind catalog.FieldKind) bool {
	return kind == catalog.KindTextList || kind == catalog.KindTimeList || kind == catalog.KindObjectList
}

// groupDocuments renders $group, followed by a $project that renames _id when the key goes elsewhere.
func groupDocuments(stage catalog.GroupStage) ([]bson.D, error) {
	key, err := groupKey(stage.Key)
	if err != nil {
		return nil, err
	}

	group := bson.D{{Key: catalog.FieldID, Value: key}}
	for _, acc := range stage.Accumulators {
		op, known := accumulators[acc.Op]
		if !known {
			return nil, &catalog.QueryParseError{Param: acc.As, Reason: "unsupported accumulator " + string(acc.Op)}
		}

		var operand any = fieldRef + acc.Field
		if acc.Op == catalog.Count {
			operand = 1
		}

		group = append(group, bson.E{Key: acc.As, Value: bson.D{{Key: op, Value: operand}}})
	}

	stages := []bson.D{{{Key: "$group", Value: group}}}

	if stage.KeyAs == "" || stage.KeyAs == catalog.FieldID {
		return stages, nil
	}

	project := bson.D{
		{Key: catalog.FieldID, Value: 0},
		{Key: stage.KeyAs, Value: fieldRef + catalog.FieldID},
	}
	for _, acc := range stage.Accumulators {
		project = append(project, bson.E{Key: acc.As, Value: 1})
	}

	return append(stages, bson.D{{Key: "$project", Value: project}}), nil
}

func groupKey(key catalog.GroupKey) (any, error) {
	if key.Field == "" {
		return nil, nil
	}

	if key.Part == catalog.WholeValue {
		return fieldRef + key.Field, nil
	}

	op, known := dateParts[key.Part]
	if !known {
		return nil, &catalog.QueryParseError{Param: key.Field, Reason: "unsupported date part " + string(key.Part)}
	}

	return bson.D{{Key: op, Value: fieldRef + key.Field}}, nil
}
