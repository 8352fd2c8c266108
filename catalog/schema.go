package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldKind is the storage-agnostic type of a Tour field.
// Stores and the Query Feature Pipeline use it to coerce and translate values.
type FieldKind int

const (
	KindText FieldKind = iota + 1
	KindInteger
	KindNumber
	KindBool
	KindTime
	KindTextList
	KindTimeList
	KindObject
	KindObjectList
)

const dateOnlyLayout = "2006-01-02"

var tourFieldOrder = []string{
	FieldID,
	FieldVersion,
	FieldName,
	FieldSlug,
	FieldDuration,
	FieldMaxGroupSize,
	FieldDifficulty,
	FieldRatingsAverage,
	FieldRatingsQuantity,
	FieldPrice,
	FieldPriceDiscount,
	FieldSummary,
	FieldDescription,
	FieldImageCover,
	FieldImages,
	FieldCreatedAt,
	FieldStartDates,
	FieldSecretTour,
	FieldStartLocation,
	FieldLocations,
}

var tourFieldKinds = map[string]FieldKind{
	FieldID:              KindText,
	FieldVersion:         KindInteger,
	FieldName:            KindText,
	FieldSlug:            KindText,
	FieldDuration:        KindInteger,
	FieldMaxGroupSize:    KindInteger,
	FieldDifficulty:      KindText,
	FieldRatingsAverage:  KindNumber,
	FieldRatingsQuantity: KindInteger,
	FieldPrice:           KindNumber,
	FieldPriceDiscount:   KindNumber,
	FieldSummary:         KindText,
	FieldDescription:     KindText,
	FieldImageCover:      KindText,
	FieldImages:          KindTextList,
	FieldCreatedAt:       KindTime,
	FieldStartDates:      KindTimeList,
	FieldSecretTour:      KindBool,
	FieldStartLocation:   KindObject,
	FieldLocations:       KindObjectList,
}

// hiddenTourFields are left out of read results unless a projection names them explicitly.
var hiddenTourFields = []string{FieldCreatedAt}

// TourFields returns the stored fields of a Tour in declaration order.
func TourFields() []string {
	return slices.Clone(tourFieldOrder)
}

// TourFieldKind returns the FieldKind of a stored Tour field.
func TourFieldKind(field string) (FieldKind, bool) {
	kind, ok := tourFieldKinds[field]
	return kind, ok
}

// HiddenTourFields returns the fields excluded from the default read projection.
func HiddenTourFields() []string {
	return slices.Clone(hiddenTourFields)
}

var tourValidator = newTourValidator()

func newTourValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json field names, they are the names used in documents and query params
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// Validate checks every field of the Tour against its constraints.
// It returns a *ValidationError listing ALL violations, or nil.
func Validate(tour Tour) error {
	err := tourValidator.Struct(tour)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return errors.Join(ErrValidationFailed, err)
	}

	violations := make([]FieldViolation, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		violations = append(violations, FieldViolation{
			Field:   violationField(fieldError),
			Rule:    fieldError.Tag(),
			Message: violationMessage(fieldError),
		})
	}

	return &ValidationError{Violations: violations}
}

// violationField strips the root struct name from the namespace, e.g. "Tour.locations[0].type".
func violationField(fieldError validator.FieldError) string {
	_, field, found := strings.Cut(fieldError.Namespace(), ".")
	if !found {
		return fieldError.Field()
	}

	return field
}

func violationMessage(fieldError validator.FieldError) string {
	param := fieldError.Param()
	isText := fieldError.Kind() == reflect.String

	switch fieldError.Tag() {
	case "required":
		return "is required"
	case "min":
		if isText {
			return "must have at least " + param + " characters"
		}
		return "must be at least " + param
	case "max":
		if isText {
			return "must have at most " + param + " characters"
		}
		return "must be at most " + param
	case "gt":
		return "must be greater than " + param
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(param, " ", ", ")
	case "eq":
		return "must be " + param
	case "len":
		return "must contain exactly " + param + " values"
	case "ltfield":
		return "must be below the regular price"
	default:
		return fmt.Sprintf("failed the %s rule", fieldError.Tag())
	}
}

// CoerceFilterValue converts a raw request parameter value to the Go type of the named field.
// Unknown fields keep the raw string, the store decides what to do with them.
func CoerceFilterValue(param, field, raw string) (any, error) {
	kind, known := TourFieldKind(field)
	if !known {
		return raw, nil
	}

	switch kind {
	case KindInteger, KindNumber:
		number, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, &QueryParseError{Param: param, Reason: "not a number: " + raw, Err: err}
		}
		return number, nil

	case KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, &QueryParseError{Param: param, Reason: "not a boolean: " + raw, Err: err}
		}
		return b, nil

	case KindTime, KindTimeList:
		return parseTimeValue(param, raw)

	case KindObject, KindObjectList:
		return nil, &QueryParseError{Param: param, Reason: "field " + field + " can not be filtered"}

	default:
		return raw, nil
	}
}

func parseTimeValue(param, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}

	t, err := time.Parse(dateOnlyLayout, raw)
	if err != nil {
		return time.Time{}, &QueryParseError{Param: param, Reason: "not a timestamp: " + raw, Err: err}
	}

	return t.UTC(), nil
}
