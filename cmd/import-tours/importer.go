package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
	"github.com/AntonStoeckl/tour-catalog-go/config"
)

var (
	ErrDecodingToursFailed  = errors.New("decoding tours failed")
	ErrImportingTourFailed  = errors.New("importing tour failed")
	ErrDeletingToursFailed  = errors.New("deleting tours failed")
	startDateLayouts        = []string{time.RFC3339Nano, "2006-01-02,15:04", "2006-01-02T15:04", time.DateOnly}
	errUnsupportedStartDate = errors.New("unsupported start date format")
)

// startDate accepts RFC 3339 timestamps and the short "2021-04-25,10:00" form of the dev data.
type startDate time.Time

func (d *startDate) UnmarshalJSON(data []byte) error {
	var raw string
	if err := jsoniter.Unmarshal(data, &raw); err != nil {
		return err
	}

	raw = strings.TrimSpace(raw)
	for _, layout := range startDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			*d = startDate(t.UTC())
			return nil
		}
	}

	return fmt.Errorf("%w: %q", errUnsupportedStartDate, raw)
}

// tourRecord is one element of the import file.
type tourRecord struct {
	catalog.TourInput
	StartDates []startDate `json:"startDates,omitempty"`
}

func (r tourRecord) input() catalog.TourInput {
	input := r.TourInput
	input.StartDates = make([]time.Time, 0, len(r.StartDates))
	for _, d := range r.StartDates {
		input.StartDates = append(input.StartDates, time.Time(d))
	}

	return input
}

// decodeTours reads a JSON array of tours.
func decodeTours(r io.Reader) ([]catalog.TourInput, error) {
	var records []tourRecord

	decoder := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(r)
	if err := decoder.Decode(&records); err != nil {
		return nil, errors.Join(ErrDecodingToursFailed, err)
	}

	inputs := make([]catalog.TourInput, 0, len(records))
	for _, record := range records {
		inputs = append(inputs, record.input())
	}

	return inputs, nil
}

type importer struct {
	store  config.Store
	repo   catalog.TourRepository
	logger *slog.Logger
}

func newImporter(store config.Store, logger *slog.Logger) (importer, error) {
	repo, err := catalog.NewTourRepository(store, catalog.WithLogger(logger))
	if err != nil {
		return importer{}, err
	}

	return importer{store: store, repo: repo, logger: logger}, nil
}

func (i importer) deleteAll(ctx context.Context) error {
	if err := i.store.DeleteAll(ctx); err != nil {
		return errors.Join(ErrDeletingToursFailed, err)
	}

	i.logger.Info("tours deleted")

	return nil
}

// importTours creates the tours in file order and stops at the first failure.
func (i importer) importTours(ctx context.Context, inputs []catalog.TourInput) (int, error) {
	start := time.Now()

	for idx, input := range inputs {
		if _, err := i.repo.Create(ctx, input); err != nil {
			return idx, errors.Join(fmt.Errorf("%w: #%d %q", ErrImportingTourFailed, idx, input.Name), err)
		}
	}

	i.logger.Info("tours imported",
		"count", len(inputs),
		"duration_ms", float64(time.Since(start).Nanoseconds())/1e6,
	)

	return len(inputs), nil
}
