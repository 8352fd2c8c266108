package postgresengine

import (
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

var rowJSON = jsoniter.Config{UseNumber: true}.Froze()

type jsonNumber interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

// decodeRow turns one row_to_json / json_build_object result into a Document.
// Known tour fields get their canonical value types, integral numbers of other fields become int64.
func decodeRow(raw string) (catalog.Document, error) {
	var doc map[string]any
	if err := rowJSON.UnmarshalFromString(raw, &doc); err != nil {
		return nil, errors.Join(catalog.ErrScanningDocumentFailed, err)
	}

	for field, value := range doc {
		doc[field] = normalizeColumn(field, decodeNumbers(value))
	}

	return doc, nil
}

func decodeNumbers(v any) any {
	switch value := v.(type) {
	case jsonNumber:
		if i, err := value.Int64(); err == nil {
			return i
		}
		f, _ := value.Float64()
		return f

	case []any:
		for i, item := range value {
			value[i] = decodeNumbers(item)
		}
		return value

	case map[string]any:
		for key, item := range value {
			value[key] = decodeNumbers(item)
		}
		return value

	default:
		return v
	}
}

func normalizeColumn(field string, v any) any {
	kind, known := catalog.TourFieldKind(field)
	if !known {
		return v
	}

	switch kind {
	case catalog.KindNumber:
		if i, ok := v.(int64); ok {
			return float64(i)
		}

	case catalog.KindInteger:
		if f, ok := v.(float64); ok {
			return int64(f)
		}

	case catalog.KindTime:
		return parseTimestamp(v)

	case catalog.KindTimeList:
		// an unwound list holds one element only
		if list, ok := v.([]any); ok {
			for i, item := range list {
				list[i] = parseTimestamp(item)
			}
			return list
		}
		return parseTimestamp(v)

	case catalog.KindObject:
		if point, ok := v.(map[string]any); ok {
			floatCoordinates(point)
		}

	case catalog.KindObjectList:
		if list, ok := v.([]any); ok {
			for _, item := range list {
				if point, isMap := item.(map[string]any); isMap {
					floatCoordinates(point)
				}
			}
		} else if point, isMap := v.(map[string]any); isMap {
			floatCoordinates(point)
		}

	default:
	}

	return v
}

func parseTimestamp(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return v
	}

	return t.UTC()
}

func floatCoordinates(point map[string]any) {
	coordinates, ok := point["coordinates"].([]any)
	if !ok {
		return
	}

	for i, c := range coordinates {
		if integral, isInt := c.(int64); isInt {
			coordinates[i] = float64(integral)
		}
	}
}
