package memengine

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

const (
	logMsgOperation   = "memengine operation: "
	logAttrCount      = "document_count"
	logActionFind     = "find"
	logActionCreate   = "create"
	logActionUpdate   = "update"
	logActionDelete   = "delete"
	logActionAggr     = "aggregate"
	logAttrDocumentID = "document_id"
)

// CollectionStore keeps the tours in process memory, in insertion order.
// It is safe for concurrent use.
type CollectionStore struct {
	mu     sync.RWMutex
	docs   catalog.Documents
	logger catalog.Logger
}

// Option defines a functional option for configuring CollectionStore.
type Option func(*CollectionStore) error

// WithLogger sets a logger receiving one debug message per operation.
func WithLogger(logger catalog.Logger) Option {
	return func(s *CollectionStore) error {
		s.logger = logger
		return nil
	}
}

var _ catalog.CollectionStore = (*CollectionStore)(nil)

// NewCollectionStore creates an empty CollectionStore.
func NewCollectionStore(options ...Option) (*CollectionStore, error) {
	s := &CollectionStore{docs: make(catalog.Documents, 0)}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Find applies the Query in the order filter -> sort -> skip -> limit -> projection.
func (s *CollectionStore) Find(_ context.Context, query catalog.Query) (catalog.Documents, error) {
	s.mu.RLock()
	matching, err := filterDocuments(s.docs, query.Predicates())
	s.mu.RUnlock()

	if err != nil {
		return nil, err
	}

	matching = slices.Clone(matching)
	sortDocuments(matching, query.Sort())
	matching = page(matching, query.Skip(), query.Limit())

	result := make(catalog.Documents, 0, len(matching))
	for _, doc := range matching {
		result = append(result, project(cloneDocument(doc), query.Projection()))
	}

	s.logOperation(logActionFind, logAttrCount, len(result))

	return result, nil
}

// Create inserts the Tour with version 0.
func (s *CollectionStore) Create(_ context.Context, tour catalog.Tour) (catalog.Tour, error) {
	tour.Version = 0
	doc := catalog.DocumentFromTour(tour)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(tour.ID) >= 0 {
		return catalog.Tour{}, &catalog.UniquenessConflict{Field: catalog.FieldID, Value: tour.ID}
	}

	if err := s.checkUniqueName(tour); err != nil {
		return catalog.Tour{}, err
	}

	s.docs = append(s.docs, doc)
	s.logOperation(logActionCreate, logAttrDocumentID, tour.ID)

	return tour, nil
}

// Update replaces the Tour if the stored version equals expectedVersion.
func (s *CollectionStore) Update(_ context.Context, tour catalog.Tour, expectedVersion catalog.VersionUint) (catalog.Tour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(tour.ID)
	if idx < 0 {
		return catalog.Tour{}, catalog.ErrConcurrencyConflict
	}

	storedVersion, _ := catalog.AsFloat(s.docs[idx][catalog.FieldVersion])
	if catalog.VersionUint(storedVersion) != expectedVersion {
		return catalog.Tour{}, catalog.ErrConcurrencyConflict
	}

	if err := s.checkUniqueName(tour); err != nil {
		return catalog.Tour{}, err
	}

	tour.Version = expectedVersion + 1
	s.docs[idx] = catalog.DocumentFromTour(tour)
	s.logOperation(logActionUpdate, logAttrDocumentID, tour.ID)

	return tour, nil
}

// Delete removes the Tour with the given ID.
func (s *CollectionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return catalog.ErrDocumentNotFound
	}

	s.docs = slices.Delete(s.docs, idx, idx+1)
	s.logOperation(logActionDelete, logAttrDocumentID, id)

	return nil
}

// DeleteAll removes every document.
func (s *CollectionStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = make(catalog.Documents, 0)

	return nil
}

// Aggregate runs the Pipeline stages in order over copies of all documents.
func (s *CollectionStore) Aggregate(_ context.Context, pipeline catalog.Pipeline) (catalog.Documents, error) {
	s.mu.RLock()
	docs := make(catalog.Documents, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, cloneDocument(doc))
	}
	s.mu.RUnlock()

	var err error
	for _, stage := range pipeline.Stages() {
		if docs, err = runStage(docs, stage); err != nil {
			return nil, err
		}
	}

	s.logOperation(logActionAggr, logAttrCount, len(docs))

	return docs, nil
}

// Len returns the number of stored documents, including secret tours.
func (s *CollectionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.docs)
}

func (s *CollectionStore) indexOf(id string) int {
	return slices.IndexFunc(s.docs, func(doc catalog.Document) bool { return doc[catalog.FieldID] == id })
}

func (s *CollectionStore) checkUniqueName(tour catalog.Tour) error {
	for _, doc := range s.docs {
		if doc[catalog.FieldName] == tour.Name && doc[catalog.FieldID] != tour.ID {
			return &catalog.UniquenessConflict{Field: catalog.FieldName, Value: tour.Name}
		}
	}

	return nil
}

func (s *CollectionStore) logOperation(action string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(logMsgOperation+action, args...)
	}
}

func sortDocuments(docs catalog.Documents, sortFields []catalog.SortField) {
	if len(sortFields) == 0 {
		return
	}

	slices.SortStableFunc(docs, func(a, b catalog.Document) int {
		for _, sortField := range sortFields {
			av, aFound := a[sortField.Field()]
			bv, bFound := b[sortField.Field()]

			c := sortCompare(av, bv, aFound, bFound)
			if sortField.Descending() {
				c = -c
			}

			if c != 0 {
				return c
			}
		}

		return 0
	})
}

func page(docs catalog.Documents, skip, limit int) catalog.Documents {
	if skip >= len(docs) {
		return catalog.Documents{}
	}

	docs = docs[skip:]
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}

	return docs
}

func project(doc catalog.Document, projection catalog.Projection) catalog.Document {
	if projection.Mode() == catalog.ProjectAll {
		return doc
	}

	maps.DeleteFunc(doc, func(field string, _ any) bool {
		return !projection.Returns(field)
	})

	return doc
}

// cloneDocument copies the document including nested lists and objects.
func cloneDocument(doc catalog.Document) catalog.Document {
	cloned, _ := catalog.NormalizeValue(map[string]any(doc)).(map[string]any)

	return cloned
}
