package mongoengine

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

// documentFromBSON converts a decoded BSON document into a catalog.Document.
func documentFromBSON(raw bson.M) catalog.Document {
	doc := make(catalog.Document, len(raw))

	for field, value := range raw {
		doc[field] = normalizeField(field, fromBSON(value))
	}

	return doc
}

// fromBSON replaces the driver's primitive types with plain Go values, recursively.
func fromBSON(v any) any {
	switch value := v.(type) {
	case primitive.DateTime:
		return value.Time().UTC()
	case int32:
		return int64(value)
	case primitive.A:
		list := make([]any, 0, len(value))
		for _, item := range value {
			list = append(list, fromBSON(item))
		}
		return list
	case primitive.M:
		m := make(map[string]any, len(value))
		for key, item := range value {
			m[key] = fromBSON(item)
		}
		return m
	case primitive.D:
		m := make(map[string]any, len(value))
		for _, e := range value {
			m[e.Key] = fromBSON(e.Value)
		}
		return m
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return v
	}
}

// normalizeField restores the canonical value type of known tour fields.
func normalizeField(field string, v any) any {
	if kind, known := catalog.TourFieldKind(field); known && kind == catalog.KindNumber {
		if i, ok := v.(int64); ok {
			return float64(i)
		}
	}

	return catalog.NormalizeFieldValue(field, v)
}
