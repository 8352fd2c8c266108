package catalog

import (
	"errors"
	"maps"
	"slices"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var documentJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Document is one raw record as the CollectionStore returns it: field name -> value.
//
// Stores normalize values before returning them:
//   - text: string
//   - integer: int64
//   - number: float64
//   - boolean: bool
//   - timestamp: time.Time (UTC)
//   - lists: []any
//   - nested objects: map[string]any
type Document = map[string]any

// Documents is an alias type for a slice of Document
type Documents = []Document

// DocumentFromTour converts a Tour into its stored Document form.
// Optional fields without a value are left out.
func DocumentFromTour(tour Tour) Document {
	doc := Document{
		FieldID:              tour.ID,
		FieldVersion:         int64(tour.Version),
		FieldName:            tour.Name,
		FieldSlug:            tour.Slug,
		FieldDuration:        int64(tour.Duration),
		FieldMaxGroupSize:    int64(tour.MaxGroupSize),
		FieldDifficulty:      string(tour.Difficulty),
		FieldRatingsAverage:  tour.RatingsAverage,
		FieldRatingsQuantity: int64(tour.RatingsQuantity),
		FieldPrice:           tour.Price,
		FieldSummary:         tour.Summary,
		FieldImageCover:      tour.ImageCover,
		FieldCreatedAt:       tour.CreatedAt.UTC(),
		FieldSecretTour:      tour.SecretTour,
	}

	if tour.PriceDiscount != nil {
		doc[FieldPriceDiscount] = *tour.PriceDiscount
	}

	if tour.Description != "" {
		doc[FieldDescription] = tour.Description
	}

	if len(tour.Images) > 0 {
		images := make([]any, 0, len(tour.Images))
		for _, image := range tour.Images {
			images = append(images, image)
		}
		doc[FieldImages] = images
	}

	if len(tour.StartDates) > 0 {
		startDates := make([]any, 0, len(tour.StartDates))
		for _, startDate := range tour.StartDates {
			startDates = append(startDates, startDate.UTC())
		}
		doc[FieldStartDates] = startDates
	}

	if tour.StartLocation != nil {
		doc[FieldStartLocation] = geoPointDocument(tour.StartLocation.Type, tour.StartLocation.Coordinates,
			tour.StartLocation.Address, tour.StartLocation.Description)
	}

	if len(tour.Locations) > 0 {
		locations := make([]any, 0, len(tour.Locations))
		for _, location := range tour.Locations {
			locationDoc := geoPointDocument(location.Type, location.Coordinates, location.Address, location.Description)
			locationDoc["day"] = int64(location.Day)
			locations = append(locations, locationDoc)
		}
		doc[FieldLocations] = locations
	}

	return doc
}

func geoPointDocument(pointType string, coordinates []float64, address, description string) map[string]any {
	point := map[string]any{"type": pointType}

	if len(coordinates) > 0 {
		coords := make([]any, 0, len(coordinates))
		for _, c := range coordinates {
			coords = append(coords, c)
		}
		point["coordinates"] = coords
	}

	if address != "" {
		point["address"] = address
	}

	if description != "" {
		point["description"] = description
	}

	return point
}

// TourFromDocument decodes a full Document back into a Tour.
// Derived fields in the Document (durationWeeks) are ignored.
func TourFromDocument(doc Document) (Tour, error) {
	raw, err := documentJSON.Marshal(doc)
	if err != nil {
		return Tour{}, errors.Join(ErrDecodingTourFailed, err)
	}

	var tour Tour
	if err = documentJSON.Unmarshal(raw, &tour); err != nil {
		return Tour{}, errors.Join(ErrDecodingTourFailed, err)
	}

	return tour, nil
}

// WithDurationWeeks returns a copy of the Document carrying the derived durationWeeks field.
// Documents without a duration (e.g. projected away) are returned unchanged.
func WithDurationWeeks(doc Document) Document {
	duration, ok := AsFloat(doc[FieldDuration])
	if !ok {
		return doc
	}

	derived := maps.Clone(doc)
	derived[FieldDurationWeeks] = duration / daysPerWeek

	return derived
}

// CloneDocuments returns a deep enough copy for observers: the slice and each top-level map are new.
func CloneDocuments(docs Documents) Documents {
	cloned := make(Documents, 0, len(docs))
	for _, doc := range docs {
		cloned = append(cloned, maps.Clone(doc))
	}

	return cloned
}

// NormalizeValue converts driver specific scalar types into the canonical Document value types.
func NormalizeValue(v any) any {
	switch value := v.(type) {
	case int:
		return int64(value)
	case int8:
		return int64(value)
	case int16:
		return int64(value)
	case int32:
		return int64(value)
	case uint:
		return int64(value)
	case uint8:
		return int64(value)
	case uint16:
		return int64(value)
	case uint32:
		return int64(value)
	case uint64:
		return int64(value)
	case float32:
		return float64(value)
	case time.Time:
		return value.UTC()
	case []any:
		normalized := make([]any, 0, len(value))
		for _, item := range value {
			normalized = append(normalized, NormalizeValue(item))
		}
		return normalized
	case map[string]any:
		normalized := make(map[string]any, len(value))
		for key, item := range value {
			normalized[key] = NormalizeValue(item)
		}
		return normalized
	default:
		return v
	}
}

// NormalizeFieldValue normalizes a value according to the FieldKind of a known Tour field.
// JSON based storage returns every number as float64, integer fields are turned back into int64 here.
func NormalizeFieldValue(field string, v any) any {
	v = NormalizeValue(v)

	kind, known := TourFieldKind(field)
	if !known {
		return v
	}

	switch kind {
	case KindInteger:
		if f, ok := v.(float64); ok {
			return int64(f)
		}
	case KindTime:
		if s, ok := v.(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return t.UTC()
			}
		}
	case KindTimeList:
		if list, ok := v.([]any); ok {
			return slices.Collect(func(yield func(any) bool) {
				for _, item := range list {
					if s, isString := item.(string); isString {
						if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
							item = t.UTC()
						}
					}
					if !yield(item) {
						return
					}
				}
			})
		}
	case KindObjectList:
		if list, ok := v.([]any); ok {
			for _, item := range list {
				if location, isMap := item.(map[string]any); isMap {
					if day, isFloat := location["day"].(float64); isFloat {
						location["day"] = int64(day)
					}
				}
			}
		}
	}

	return v
}

// AsFloat reports the numeric value of an integer or number Document value.
func AsFloat(v any) (float64, bool) {
	switch value := NormalizeValue(v).(type) {
	case int64:
		return float64(value), true
	case float64:
		return value, true
	default:
		return 0, false
	}
}
