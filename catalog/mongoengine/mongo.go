package mongoengine

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

const (
	defaultCollectionName     = "tours"
	nameIndexSuffix           = "_name_unique"
	slugIndexSuffix           = "_slug"
	logMsgCommandFailed       = "mongodb command failed"
	logMsgCloseCursorFailed   = "failed to close cursor"
	logMsgDecodeFailed        = "failed to decode document"
	logMsgConcurrencyConflict = "concurrency conflict detected"
	logMsgDocumentsFound      = "documents found"
	logMsgDocumentWritten     = "document written"
	logMsgIndexesEnsured      = "indexes ensured"
	logMsgCommandExecuted     = "executed command for: "
	logMsgOperation           = "mongoengine operation: "
	logAttrError              = "error"
	logAttrCommand            = "command"
	logAttrCollection         = "collection"
	logAttrDocumentID         = "document_id"
	logAttrDocumentCount      = "document_count"
	logAttrDurationMS         = "duration_ms"
	logAttrExpectedVersion    = "expected_version"
	logActionFind             = "find"
	logActionCreate           = "create"
	logActionUpdate           = "update"
	logActionDelete           = "delete"
	logActionAggregate        = "aggregate"
	logActionIndexes          = "indexes"
	reasonRejectedByMongoDB   = "rejected by MongoDB: "
)

// server error codes of queries MongoDB could not parse or evaluate
var queryParseErrorCodes = []int{
	2,  // BadValue
	9,  // FailedToParse
	14, // TypeMismatch
}

// CollectionStore implements catalog.CollectionStore on a MongoDB collection.
type CollectionStore struct {
	db             *mongo.Database
	collectionName string
	logger         catalog.Logger
}

var _ catalog.CollectionStore = CollectionStore{}

// NewCollectionStore creates a new CollectionStore on the given database with optional configuration.
func NewCollectionStore(db *mongo.Database, options ...Option) (CollectionStore, error) {
	if db == nil {
		return CollectionStore{}, catalog.ErrNilDatabaseConnection
	}

	s := CollectionStore{
		db:             db,
		collectionName: defaultCollectionName,
	}

	for _, option := range options {
		if err := option(&s); err != nil {
			return CollectionStore{}, err
		}
	}

	return s, nil
}

// CollectionName returns the name of the collection holding the tours.
func (s CollectionStore) CollectionName() string {
	return s.collectionName
}

func (s CollectionStore) collection() *mongo.Collection {
	return s.db.Collection(s.collectionName)
}

// EnsureIndexes creates the unique name index and the slug index if they are missing.
func (s CollectionStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: catalog.FieldName, Value: 1}},
			Options: options.Index().SetName(s.collectionName + nameIndexSuffix).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: catalog.FieldSlug, Value: 1}},
			Options: options.Index().SetName(s.collectionName + slugIndexSuffix),
		},
	}

	start := time.Now()
	_, err := s.collection().Indexes().CreateMany(ctx, indexes)
	s.logCommandWithDuration(logActionIndexes, time.Since(start))

	if err != nil {
		s.logError(logMsgCommandFailed, err, logAttrCommand, logActionIndexes)
		return errors.Join(catalog.ErrEnsuringSchemaFailed, err)
	}

	s.logOperation(logMsgIndexesEnsured, logAttrCollection, s.collectionName)

	return nil
}

// Find returns the documents matching the Query.
func (s CollectionStore) Find(ctx context.Context, query catalog.Query) (catalog.Documents, error) {
	filter, err := filterDocument(query.Predicates())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cursor, findErr := s.collection().Find(ctx, filter, findOptions(query))
	if findErr != nil {
		s.logCommandWithDuration(logActionFind, time.Since(start))
		s.logError(logMsgCommandFailed, findErr, logAttrCommand, logActionFind)

		return nil, mapReadError(findErr, catalog.ErrQueryingDocumentsFailed)
	}

	docs, duration, err := s.readAll(ctx, cursor, start, logActionFind, catalog.ErrQueryingDocumentsFailed)
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

	start := time.Now()
	_, err := s.collection().InsertOne(ctx, catalog.DocumentFromTour(tour))
	duration := time.Since(start)
	s.logCommandWithDuration(logActionCreate, duration)

	if err != nil {
		s.logError(logMsgCommandFailed, err, logAttrCommand, logActionCreate, logAttrDocumentID, tour.ID)
		return catalog.Tour{}, s.mapWriteError(err, tour, catalog.ErrCreatingDocumentFailed)
	}

	s.logOperation(logMsgDocumentWritten,
		logAttrDocumentID, tour.ID,
		logAttrDurationMS, s.durationToMilliseconds(duration),
	)

	return tour, nil
}

// Update replaces the document of the Tour if its stored version equals expectedVersion.
// It returns catalog.ErrConcurrencyConflict if no document matched.
func (s CollectionStore) Update(
	ctx context.Context,
	tour catalog.Tour,
	expectedVersion catalog.VersionUint,
) (catalog.Tour, error) {

	tour.Version = expectedVersion + 1
	filter := bson.D{
		{Key: catalog.FieldID, Value: tour.ID},
		{Key: catalog.FieldVersion, Value: int64(expectedVersion)},
	}

	start := time.Now()
	result, err := s.collection().ReplaceOne(ctx, filter, catalog.DocumentFromTour(tour))
	duration := time.Since(start)
	s.logCommandWithDuration(logActionUpdate, duration)

	if err != nil {
		s.logError(logMsgCommandFailed, err, logAttrCommand, logActionUpdate, logAttrDocumentID, tour.ID)
		return catalog.Tour{}, s.mapWriteError(err, tour, catalog.ErrUpdatingDocumentFailed)
	}

	if result.MatchedCount == 0 {
		s.logOperation(logMsgConcurrencyConflict,
			logAttrDocumentID, tour.ID,
			logAttrExpectedVersion, expectedVersion,
		)

		return catalog.Tour{}, catalog.ErrConcurrencyConflict
	}

	s.logOperation(logMsgDocumentWritten,
		logAttrDocumentID, tour.ID,
		logAttrDurationMS, s.durationToMilliseconds(duration),
	)

	return tour, nil
}

// Delete removes the document with the given ID. It returns catalog.ErrDocumentNotFound if there is none.
func (s CollectionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return catalog.ErrDocumentNotFound
	}

	start := time.Now()
	result, err := s.collection().DeleteOne(ctx, bson.D{{Key: catalog.FieldID, Value: id}})
	s.logCommandWithDuration(logActionDelete, time.Since(start))

	if err != nil {
		s.logError(logMsgCommandFailed, err, logAttrCommand, logActionDelete, logAttrDocumentID, id)
		return errors.Join(catalog.ErrDeletingDocumentFailed, err)
	}

	if result.DeletedCount == 0 {
		return catalog.ErrDocumentNotFound
	}

	return nil
}

// DeleteAll removes every document of the collection.
func (s CollectionStore) DeleteAll(ctx context.Context) error {
	start := time.Now()
	_, err := s.collection().DeleteMany(ctx, bson.D{})
	s.logCommandWithDuration(logActionDelete, time.Since(start))

	if err != nil {
		s.logError(logMsgCommandFailed, err, logAttrCommand, logActionDelete)
		return errors.Join(catalog.ErrDeletingDocumentFailed, err)
	}

	return nil
}

// Aggregate runs the Pipeline as a native aggregation pipeline.
func (s CollectionStore) Aggregate(ctx context.Context, pipeline catalog.Pipeline) (catalog.Documents, error) {
	stages, err := pipelineDocuments(pipeline)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cursor, aggregateErr := s.collection().Aggregate(ctx, stages)
	if aggregateErr != nil {
		s.logCommandWithDuration(logActionAggregate, time.Since(start))
		s.logError(logMsgCommandFailed, aggregateErr, logAttrCommand, logActionAggregate)

		return nil, mapReadError(aggregateErr, catalog.ErrAggregatingDocumentsFailed)
	}

	docs, duration, err := s.readAll(ctx, cursor, start, logActionAggregate, catalog.ErrAggregatingDocumentsFailed)
	if err != nil {
		return nil, err
	}

	s.logOperation(logMsgDocumentsFound,
		logAttrDocumentCount, len(docs),
		logAttrDurationMS, s.durationToMilliseconds(duration),
	)

	return docs, nil
}

// readAll drains the cursor and converts every document.
func (s CollectionStore) readAll(
	ctx context.Context,
	cursor *mongo.Cursor,
	start time.Time,
	action string,
	sentinel error,
) (catalog.Documents, time.Duration, error) {

	defer s.closeCursor(ctx, cursor)

	docs := make(catalog.Documents, 0)

	for cursor.Next(ctx) {
		var raw bson.M
		if decodeErr := cursor.Decode(&raw); decodeErr != nil {
			s.logError(logMsgDecodeFailed, decodeErr)
			return nil, time.Since(start), errors.Join(catalog.ErrScanningDocumentFailed, decodeErr)
		}

		docs = append(docs, documentFromBSON(raw))
	}

	duration := time.Since(start)
	s.logCommandWithDuration(action, duration)

	if cursorErr := cursor.Err(); cursorErr != nil {
		s.logError(logMsgCommandFailed, cursorErr, logAttrCommand, action)
		return nil, duration, mapReadError(cursorErr, sentinel)
	}

	return docs, duration, nil
}

// mapWriteError reports duplicate keys as *catalog.UniquenessConflict and wraps everything else.
func (s CollectionStore) mapWriteError(err error, tour catalog.Tour, sentinel error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return errors.Join(sentinel, err)
	}

	if strings.Contains(err.Error(), s.collectionName+nameIndexSuffix) {
		return &catalog.UniquenessConflict{Field: catalog.FieldName, Value: tour.Name, Err: err}
	}

	return &catalog.UniquenessConflict{Field: catalog.FieldID, Value: tour.ID, Err: err}
}

// mapReadError reports queries MongoDB could not evaluate as *catalog.QueryParseError.
func mapReadError(err error, sentinel error) error {
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		for _, code := range queryParseErrorCodes {
			if serverErr.HasErrorCode(code) {
				return &catalog.QueryParseError{Reason: reasonRejectedByMongoDB + err.Error(), Err: err}
			}
		}
	}

	return errors.Join(sentinel, err)
}

// closeCursor closes the cursor and logs any errors.
func (s CollectionStore) closeCursor(ctx context.Context, cursor *mongo.Cursor) {
	if closeErr := cursor.Close(ctx); closeErr != nil {
		if s.logger != nil {
			s.logger.Warn(logMsgCloseCursorFailed, logAttrError, closeErr.Error())
		}
	}
}

// logCommandWithDuration logs executed commands with execution time at debug level if the logger is configured.
func (s CollectionStore) logCommandWithDuration(action string, duration time.Duration) {
	if s.logger != nil {
		s.logger.Debug(logMsgCommandExecuted+action,
			logAttrDurationMS, s.durationToMilliseconds(duration),
			logAttrCollection, s.collectionName,
		)
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
