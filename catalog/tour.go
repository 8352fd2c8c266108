package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	FieldID              = "_id"
	FieldVersion         = "__v"
	FieldName            = "name"
	FieldSlug            = "slug"
	FieldDuration        = "duration"
	FieldMaxGroupSize    = "maxGroupSize"
	FieldDifficulty      = "difficulty"
	FieldRatingsAverage  = "ratingsAverage"
	FieldRatingsQuantity = "ratingsQuantity"
	FieldPrice           = "price"
	FieldPriceDiscount   = "priceDiscount"
	FieldSummary         = "summary"
	FieldDescription     = "description"
	FieldImageCover      = "imageCover"
	FieldImages          = "images"
	FieldCreatedAt       = "createdAt"
	FieldStartDates      = "startDates"
	FieldSecretTour      = "secretTour"
	FieldStartLocation   = "startLocation"
	FieldLocations       = "locations"
	FieldDurationWeeks   = "durationWeeks"
)

const (
	defaultRatingsAverage = 4.5
	geoPointType          = "Point"
	daysPerWeek           = 7
)

// Difficulty is the enumerated difficulty level of a Tour.
type Difficulty string

const (
	Easy      Difficulty = "easy"
	Medium    Difficulty = "medium"
	Difficult Difficulty = "difficult"
)

// GeoPoint is a GeoJSON point with a human-readable address.
type GeoPoint struct {
	Type        string    `json:"type" bson:"type" validate:"omitempty,eq=Point"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" validate:"omitempty,len=2"`
	Address     string    `json:"address,omitempty" bson:"address,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
}

// Location is a GeoPoint visited on a given day of the Tour.
type Location struct {
	Type        string    `json:"type" bson:"type" validate:"omitempty,eq=Point"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" validate:"omitempty,len=2"`
	Address     string    `json:"address,omitempty" bson:"address,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Day         int       `json:"day,omitempty" bson:"day,omitempty" validate:"min=0"`
}

// Tour is the validated, fully defaulted entity of the catalog.
//
// While its properties are exported, new Tours should only be constructed with BuildTour,
// which applies defaults and trimming exactly once.
type Tour struct {
	ID              string      `json:"_id" bson:"_id"`
	Version         VersionUint `json:"__v" bson:"__v"`
	Name            string      `json:"name" bson:"name" validate:"required,min=10,max=40"`
	Slug            string      `json:"slug" bson:"slug"`
	Duration        int         `json:"duration" bson:"duration" validate:"required,gt=0"`
	MaxGroupSize    int         `json:"maxGroupSize" bson:"maxGroupSize" validate:"required,gt=0"`
	Difficulty      Difficulty  `json:"difficulty" bson:"difficulty" validate:"required,oneof=easy medium difficult"`
	RatingsAverage  float64     `json:"ratingsAverage" bson:"ratingsAverage" validate:"min=1,max=5"`
	RatingsQuantity int         `json:"ratingsQuantity" bson:"ratingsQuantity" validate:"min=0"`
	Price           float64     `json:"price" bson:"price" validate:"required,gt=0"`
	PriceDiscount   *float64    `json:"priceDiscount,omitempty" bson:"priceDiscount,omitempty" validate:"omitempty,ltfield=Price"`
	Summary         string      `json:"summary" bson:"summary" validate:"required"`
	Description     string      `json:"description,omitempty" bson:"description,omitempty"`
	ImageCover      string      `json:"imageCover" bson:"imageCover" validate:"required"`
	Images          []string    `json:"images,omitempty" bson:"images,omitempty"`
	CreatedAt       time.Time   `json:"createdAt" bson:"createdAt"`
	StartDates      []time.Time `json:"startDates,omitempty" bson:"startDates,omitempty"`
	SecretTour      bool        `json:"secretTour" bson:"secretTour"`
	StartLocation   *GeoPoint   `json:"startLocation,omitempty" bson:"startLocation,omitempty"`
	Locations       []Location  `json:"locations,omitempty" bson:"locations,omitempty" validate:"dive"`
}

// DurationWeeks is derived on read and never stored.
func (t Tour) DurationWeeks() float64 {
	return float64(t.Duration) / daysPerWeek
}

// TourInput is the raw candidate payload for a new Tour.
// Pointer fields distinguish "absent" from the zero value so that defaults apply only to absent fields.
type TourInput struct {
	Name            string      `json:"name"`
	Duration        int         `json:"duration"`
	MaxGroupSize    int         `json:"maxGroupSize"`
	Difficulty      string      `json:"difficulty"`
	RatingsAverage  *float64    `json:"ratingsAverage,omitempty"`
	RatingsQuantity *int        `json:"ratingsQuantity,omitempty"`
	Price           float64     `json:"price"`
	PriceDiscount   *float64    `json:"priceDiscount,omitempty"`
	Summary         string      `json:"summary"`
	Description     string      `json:"description,omitempty"`
	ImageCover      string      `json:"imageCover"`
	Images          []string    `json:"images,omitempty"`
	CreatedAt       *time.Time  `json:"createdAt,omitempty"`
	StartDates      []time.Time `json:"startDates,omitempty"`
	SecretTour      *bool       `json:"secretTour,omitempty"`
	StartLocation   *GeoPoint   `json:"startLocation,omitempty"`
	Locations       []Location  `json:"locations,omitempty"`
}

// BuildTour is the factory for Tour.
//
// It assigns a new ID, trims text fields and applies the defaults:
//   - ratingsAverage 4.5
//   - ratingsQuantity 0
//   - createdAt = now
//   - secretTour false
//   - GeoJSON type "Point" for located points
//
// It does not validate and does not derive the slug, that is the job of Validate and the pre-persist hooks.
func BuildTour(input TourInput, now time.Time) Tour {
	tour := Tour{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(input.Name),
		Duration:       input.Duration,
		MaxGroupSize:   input.MaxGroupSize,
		Difficulty:     Difficulty(strings.TrimSpace(input.Difficulty)),
		RatingsAverage: defaultRatingsAverage,
		Price:          input.Price,
		PriceDiscount:  input.PriceDiscount,
		Summary:        strings.TrimSpace(input.Summary),
		Description:    strings.TrimSpace(input.Description),
		ImageCover:     input.ImageCover,
		Images:         input.Images,
		CreatedAt:      now.UTC(),
		StartDates:     input.StartDates,
	}

	if input.RatingsAverage != nil {
		tour.RatingsAverage = *input.RatingsAverage
	}

	if input.RatingsQuantity != nil {
		tour.RatingsQuantity = *input.RatingsQuantity
	}

	if input.CreatedAt != nil {
		tour.CreatedAt = input.CreatedAt.UTC()
	}

	if input.SecretTour != nil {
		tour.SecretTour = *input.SecretTour
	}

	if input.StartLocation != nil {
		startLocation := *input.StartLocation
		if startLocation.Type == "" {
			startLocation.Type = geoPointType
		}
		tour.StartLocation = &startLocation
	}

	for _, location := range input.Locations {
		if location.Type == "" {
			location.Type = geoPointType
		}
		tour.Locations = append(tour.Locations, location)
	}

	return tour
}

// trimTextFields trims the text fields that are stored trimmed.
func trimTextFields(tour *Tour) {
	tour.Name = strings.TrimSpace(tour.Name)
	tour.Summary = strings.TrimSpace(tour.Summary)
	tour.Description = strings.TrimSpace(tour.Description)
	tour.Difficulty = Difficulty(strings.TrimSpace(string(tour.Difficulty)))
}
