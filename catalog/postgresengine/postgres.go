package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
	"github.com/AntonStoeckl/tour-catalog-go/catalog/postgresengine/internal/adapters"
)

const (
	defaultTableName          = "tours"
	logMsgBuildQueryFailed    = "failed to build sql statement"
	logMsgDBQueryFailed       = "database query execution failed"
	logMsgDBExecFailed        = "database execution failed"
	logMsgCloseRowsFailed     = "failed to close database rows"
	logMsgScanRowFailed       = "failed to scan database row"
	logMsgRowsAffectedFailed  = "failed to get rows affected count"
	logMsgConcurrencyConflict = "concurrency conflict detected"
	logMsgDocumentsFound      = "documents found"
	logMsgDocumentWritten     = "document written"
	logMsgSchemaEnsured       = "schema ensured"
	logMsgSQLExecuted         = "executed sql for: "
	logMsgOperation           = "postgresengine operation: "
	logAttrError              = "error"
	logAttrQuery              = "query"
	logAttrTable              = "table"
	logAttrDocumentID         = "document_id"
	logAttrDocumentCount      = "document_count"
	logAttrDurationMS         = "duration_ms"
	logAttrRowsAffected       = "rows_affected"
	logAttrExpectedVersion    = "expected_version"
	logActionFind             = "find"
	logActionCreate           = "create"
	logActionUpdate           = "update"
	logActionDelete           = "delete"
	logActionAggregate        = "aggregate"
	logActionSchema           = "schema"
)

type rowsAffectedInt64 = int64

// CollectionStore implements catalog.CollectionStore on a PostgreSQL table.
type CollectionStore struct {
	db        adapters.DBAdapter
	tableName string
	logger    catalog.Logger
}

var _ catalog.CollectionStore = CollectionStore{}

// NewCollectionStoreFromPGXPool creates a new CollectionStore using a pgx Pool with optional configuration.
func NewCollectionStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (CollectionStore, error) {
	if db == nil {
		return CollectionStore{}, catalog.ErrNilDatabaseConnection
	}

	return newCollectionStore(adapters.NewPGXAdapter(db), options...)
}

// NewCollectionStoreFromSQLDB creates a new CollectionStore using a sql.DB with optional configuration.
func NewCollectionStoreFromSQLDB(db *sql.DB, options ...Option) (CollectionStore, error) {
	if db == nil {
		return CollectionStore{}, catalog.ErrNilDatabaseConnection
	}

	return newCollectionStore(adapters.NewSQLAdapter(db), options...)
}

// NewCollectionStoreFromSQLX creates a new CollectionStore using a sqlx.DB with optional configuration.
func NewCollectionStoreFromSQLX(db *sqlx.DB, options ...Option) (CollectionStore, error) {
	if db == nil {
		return CollectionStore{}, catalog.ErrNilDatabaseConnection
	}

	return newCollectionStore(adapters.NewSQLXAdapter(db), options...)
}

func newCollectionStore(db adapters.DBAdapter, options ...Option) (CollectionStore, error) {
	s := CollectionStore{
		db:        db,
		tableName: defaultTableName,
	}

	for _, option := range options {
		if err := option(&s); err != nil {
			return CollectionStore{}, err
		}
	}

	return s, nil
}

// TableName returns the name of the table holding the tours.
func (s CollectionStore) TableName() string {
	return s.tableName
}

// EnsureSchema creates the tours table, its unique name constraint and the slug index if they are missing.
func (s CollectionStore) EnsureSchema(ctx context.Context) error {
	table := pq.QuoteIdentifier(s.tableName)

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	"_id" TEXT PRIMARY KEY,
	"__v" BIGINT NOT NULL DEFAULT 0,
	"name" TEXT NOT NULL,
	"slug" TEXT,
	"duration" BIGINT NOT NULL,
	"maxGroupSize" BIGINT NOT NULL,
	"difficulty" TEXT NOT NULL,
	"ratingsAverage" DOUBLE PRECISION NOT NULL,
	"ratingsQuantity" BIGINT NOT NULL DEFAULT 0,
	"price" DOUBLE PRECISION NOT NULL,
	"priceDiscount" DOUBLE PRECISION,
	"summary" TEXT NOT NULL,
	"description" TEXT,
	"imageCover" TEXT NOT NULL,
	"images" TEXT[],
	"createdAt" TIMESTAMPTZ NOT NULL,
	"startDates" TIMESTAMPTZ[],
	"secretTour" BOOLEAN NOT NULL DEFAULT FALSE,
	"startLocation" JSONB,
	"locations" JSONB,
	CONSTRAINT %s UNIQUE ("name")
)`, table, pq.QuoteIdentifier(s.tableName+nameConstraintSuffix)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s ("slug")`, pq.QuoteIdentifier(s.tableName+"_slug_idx"), table),
	}

	for _, statement := range statements {
		if _, _, err := s.exec(ctx, statement, logActionSchema); err != nil {
			return errors.Join(catalog.ErrEnsuringSchemaFailed, err)
		}
	}

	s.logOperation(logMsgSchemaEnsured, logAttrTable, s.tableName)

	return nil
}

// Find returns the rows matching the Query, rendered as Documents.
func (s CollectionStore) Find(ctx context.Context, query catalog.Query) (catalog.Documents, error) {
	sqlQuery, err := s.buildFindQuery(query)
	if err != nil {
		s.logError(logMsgBuildQueryFailed, err)
		return nil, err
	}

	docs, duration, err := s.queryDocuments(ctx, sqlQuery, logActionFind, catalog.ErrQueryingDocumentsFailed)
	if err != nil {
		return nil, err
	}

	s.logOperation(logMsgDocumentsFound,
		logAttrDocumentCount, len(docs),
		logAttrDurationMS, s.durationToMilliseconds(duration),
	)

	return docs, nil
}

// Create inserts the Tour with version 0.
func (s CollectionStore) Create(ctx context.Context, tour catalog.Tour) (catalog.Tour, error) {
	tour.Version = 0

	sqlQuery, err := s.buildInsertQuery(tour)
	if err != nil {
		s.logError(logMsgBuildQueryFailed, err, logAttrDocumentID, tour.ID)
		return catalog.Tour{}, err
	}

	_, duration, err := s.exec(ctx, sqlQuery, logActionCreate)
	if err != nil {
		return catalog.Tour{}, mapWriteError(err, tour, catalog.ErrCreatingDocumentFailed)
	}

	s.logOperation(logMsgDocumentWritten,
		logAttrDocumentID, tour.ID,
		logAttrDurationMS, s.durationToMilliseconds(duration),
	)

	return tour, nil
}

// Update replaces the row of the Tour if its stored version equals expectedVersion.
// It returns catalog.ErrConcurrencyConflict if no row was affected.
func (s CollectionStore) Update(
	ctx context.Context,
	tour catalog.Tour,
	expectedVersion catalog.VersionUint,
) (catalog.Tour, error) {

	sqlQuery, err := s.buildUpdateQuery(tour, expectedVersion)
	if err != nil {
		s.logError(logMsgBuildQueryFailed, err, logAttrDocumentID, tour.ID)
		return catalog.Tour{}, err
	}

	rowsAffected, duration, err := s.exec(ctx, sqlQuery, logActionUpdate)
	if err != nil {
		return catalog.Tour{}, mapWriteError(err, tour, catalog.ErrUpdatingDocumentFailed)
	}

	if rowsAffected == 0 {
		s.logOperation(logMsgConcurrencyConflict,
			logAttrDocumentID, tour.ID,
			logAttrExpectedVersion, expectedVersion,
			logAttrRowsAffected, rowsAffected,
		)

		return catalog.Tour{}, catalog.ErrConcurrencyConflict
	}

	s.logOperation(logMsgDocumentWritten,
		logAttrDocumentID, tour.ID,
		logAttrDurationMS, s.durationToMilliseconds(duration),
	)

	tour.Version = expectedVersion + 1

	return tour, nil
}

// Delete removes the row with the given ID. It returns catalog.ErrDocumentNotFound if there is none.
func (s CollectionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return catalog.ErrDocumentNotFound
	}

	sqlQuery, err := s.buildDeleteQuery(id)
	if err != nil {
		return err
	}

	rowsAffected, _, err := s.exec(ctx, sqlQuery, logActionDelete)
	if err != nil {
		return errors.Join(catalog.ErrDeletingDocumentFailed, err)
	}

	if rowsAffected == 0 {
		return catalog.ErrDocumentNotFound
	}

	return nil
}

// DeleteAll removes every row of the table.
func (s CollectionStore) DeleteAll(ctx context.Context) error {
	sqlQuery, err := s.buildDeleteQuery("")
	if err != nil {
		return err
	}

	if _, _, err = s.exec(ctx, sqlQuery, logActionDelete); err != nil {
		return errors.Join(catalog.ErrDeletingDocumentFailed, err)
	}

	return nil
}

// Aggregate runs the Pipeline as one statement of nested sub-selects.
func (s CollectionStore) Aggregate(ctx context.Context, pipeline catalog.Pipeline) (catalog.Documents, error) {
	sqlQuery, err := s.buildAggregateQuery(pipeline)
	if err != nil {
		s.logError(logMsgBuildQueryFailed, err)
		return nil, err
	}

	docs, duration, err := s.queryDocuments(ctx, sqlQuery, logActionAggregate, catalog.ErrAggregatingDocumentsFailed)
	if err != nil {
		return nil, err
	}

	s.logOperation(logMsgDocumentsFound,
		logAttrDocumentCount, len(docs),
		logAttrDurationMS, s.durationToMilliseconds(duration),
	)

	return docs, nil
}

// queryDocuments executes a statement selecting one JSON text column and decodes every row.
func (s CollectionStore) queryDocuments(
	ctx context.Context,
	sqlQuery string,
	action string,
	sentinel error,
) (catalog.Documents, time.Duration, error) {

	start := time.Now()
	rows, queryErr := s.db.Query(ctx, sqlQuery)
	if queryErr != nil {
		duration := time.Since(start)
		s.logQueryWithDuration(sqlQuery, action, duration)
		s.logError(logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)

		return nil, duration, mapReadError(queryErr, sentinel)
	}
	defer s.closeRows(rows)

	docs := make(catalog.Documents, 0)

	for rows.Next() {
		var raw string
		if scanErr := rows.Scan(&raw); scanErr != nil {
			s.logError(logMsgScanRowFailed, scanErr)
			return nil, time.Since(start), errors.Join(catalog.ErrScanningDocumentFailed, scanErr)
		}

		doc, decodeErr := decodeRow(raw)
		if decodeErr != nil {
			s.logError(logMsgScanRowFailed, decodeErr)
			return nil, time.Since(start), decodeErr
		}

		docs = append(docs, doc)
	}

	duration := time.Since(start)
	s.logQueryWithDuration(sqlQuery, action, duration)

	if rowsErr := rows.Err(); rowsErr != nil {
		s.logError(logMsgDBQueryFailed, rowsErr, logAttrQuery, sqlQuery)
		return nil, duration, mapReadError(rowsErr, sentinel)
	}

	return docs, duration, nil
}

// exec executes a statement and returns the affected row count with timing information.
func (s CollectionStore) exec(ctx context.Context, sqlQuery string, action string) (
	rowsAffectedInt64,
	time.Duration,
	error,
) {

	start := time.Now()
	result, execErr := s.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(sqlQuery, action, duration)

	if execErr != nil {
		s.logError(logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		return 0, duration, execErr
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		s.logError(logMsgRowsAffectedFailed, rowsAffectedErr)
		return 0, duration, rowsAffectedErr
	}

	return rowsAffected, duration, nil
}

// closeRows safely closes database rows and logs any errors.
func (s CollectionStore) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if s.logger != nil {
			s.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// logQueryWithDuration logs SQL statements with execution time at debug level if the logger is configured.
func (s CollectionStore) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, s.durationToMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if the logger is configured.
func (s CollectionStore) logOperation(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(logMsgOperation+msg, args...)
	}
}

// logError logs error information at the error level if the logger is configured.
func (s CollectionStore) logError(msg string, err error, args ...any) {
	if s.logger != nil {
		allArgs := []any{logAttrError, err.Error()}
		allArgs = append(allArgs, args...)
		s.logger.Error(msg, allArgs...)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (s CollectionStore) durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
