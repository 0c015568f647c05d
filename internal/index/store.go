package index

import (
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// indexTracer for OpenTelemetry instrumentation.
var indexTracer = otel.Tracer("triton.index")

// StoreConfig holds configuration for the document store.
type StoreConfig struct {
	// Path is the directory holding the persisted snapshot files.
	// Empty disables persistence (in-memory only, used by tests).
	Path string

	// Dimension is the embedding dimension.
	// Default: 384 (all-MiniLM-L6-v2).
	Dimension int
}

// ApplyDefaults sets default values for unset fields.
func (c *StoreConfig) ApplyDefaults() {
	if c.Dimension == 0 {
		c.Dimension = 384
	}
}

// Validate validates the configuration.
func (c *StoreConfig) Validate() error {
	if c.Dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", ErrInvalidConfig)
	}
	return nil
}

// Store pairs a FlatIndex with an ordered document table.
//
// The load-bearing invariant: the vector at ordinal N in the index
// belongs to docs[N], and ordinals[docs[N].ID] == N. Every mutation
// updates all three structures under the write lock or none of them.
//
// Reads (Search, Count) may run concurrently; writes (Add, AddBatch,
// Delete) are mutually exclusive and exclusive of reads.
type Store struct {
	mu       sync.RWMutex
	index    *FlatIndex
	docs     []Document
	ordinals map[string]int
	config   StoreConfig
	logger   *zap.Logger
}

// NewStore creates a Store, attempting to restore the persisted snapshot
// from the configured path. Any load failure (missing file, corrupt data,
// dimension mismatch) is logged and falls back to an empty index.
func NewStore(config StoreConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	idx, err := NewFlatIndex(config.Dimension)
	if err != nil {
		return nil, err
	}

	s := &Store{
		index:    idx,
		ordinals: make(map[string]int),
		config:   config,
		logger:   logger,
	}

	if config.Path != "" {
		if err := s.load(); err != nil {
			logger.Warn("failed to load index snapshot, starting empty",
				zap.String("path", config.Path),
				zap.Error(err),
			)
			s.reset()
		} else if len(s.docs) > 0 {
			logger.Info("loaded existing index",
				zap.String("path", config.Path),
				zap.Int("documents", len(s.docs)),
			)
		}
	}

	return s, nil
}

// reset discards all state and re-creates an empty index.
func (s *Store) reset() {
	idx, _ := NewFlatIndex(s.config.Dimension)
	s.index = idx
	s.docs = nil
	s.ordinals = make(map[string]int)
}

// Count returns the number of stored documents.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Dimension returns the embedding dimension of the store.
func (s *Store) Dimension() int {
	return s.config.Dimension
}

// Add stores a document and its embedding. The vector append and the
// document append happen together under the write lock; on any failure
// neither is retained. Re-adding an existing ID overwrites the document
// in place at its original ordinal.
//
// Snapshot persistence failures are logged but do not fail the add: the
// in-memory state stays consistent and the previous on-disk snapshot is
// left untouched.
func (s *Store) Add(doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.addLocked(doc); err != nil {
		return err
	}
	s.saveLocked()
	return nil
}

// addLocked inserts or overwrites a single document. Caller holds the
// write lock.
func (s *Store) addLocked(doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document ID required", ErrInvalidConfig)
	}
	if len(doc.Embedding) != s.config.Dimension {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, s.config.Dimension, len(doc.Embedding))
	}

	if ordinal, exists := s.ordinals[doc.ID]; exists {
		if err := s.index.Set(ordinal, doc.Embedding); err != nil {
			return err
		}
		s.docs[ordinal] = doc
		return nil
	}

	if err := s.index.Add(doc.Embedding); err != nil {
		return err
	}
	s.docs = append(s.docs, doc)
	s.ordinals[doc.ID] = len(s.docs) - 1
	return nil
}

// AddBatch stores multiple documents, returning the number added. A
// single invalid document is skipped and logged without corrupting the
// alignment for subsequent documents. The snapshot is written once at
// the end.
func (s *Store) AddBatch(docs []Document) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, doc := range docs {
		if err := s.addLocked(doc); err != nil {
			s.logger.Error("failed to add document to index",
				zap.String("doc_id", doc.ID),
				zap.Error(err),
			)
			continue
		}
		added++
	}

	if added > 0 {
		s.saveLocked()
	}
	return added
}

// Search returns up to k documents nearest to the query vector,
// ascending by squared L2 distance. With zero stored documents it
// returns an empty slice, never an error.
func (s *Store) Search(query []float32, k int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.docs) == 0 {
		return []SearchResult{}, nil
	}

	ordinals, distances, err := s.index.Search(query, k)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, len(ordinals))
	for i, ordinal := range ordinals {
		results[i] = SearchResult{
			Document: s.docs[ordinal],
			Distance: distances[i],
		}
	}
	return results, nil
}

// Delete removes a document by ID, returning true if it existed.
//
// The flat index has no native removal: deletion removes the document
// from the table and rebuilds the entire index from the remaining
// documents' embeddings, re-establishing the positional invariant.
// This is O(N*D) per delete, the dominant cost center of the store.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ordinal, exists := s.ordinals[id]
	if !exists {
		return false
	}

	s.docs = append(s.docs[:ordinal], s.docs[ordinal+1:]...)
	if err := s.rebuildLocked(); err != nil {
		// Rebuild only fails on a dimension mismatch, which addLocked
		// rules out. Reset to empty rather than serve misaligned results.
		s.logger.Error("index rebuild failed after delete, resetting", zap.Error(err))
		s.reset()
		return true
	}

	s.saveLocked()
	s.logger.Debug("deleted document and rebuilt index",
		zap.String("doc_id", id),
		zap.Int("remaining", len(s.docs)),
	)
	return true
}

// rebuildLocked re-creates the flat index and ordinal map from the
// document table. Caller holds the write lock.
func (s *Store) rebuildLocked() error {
	idx, err := NewFlatIndex(s.config.Dimension)
	if err != nil {
		return err
	}
	ordinals := make(map[string]int, len(s.docs))
	for i, doc := range s.docs {
		if err := idx.Add(doc.Embedding); err != nil {
			return fmt.Errorf("re-adding document %s: %w", doc.ID, err)
		}
		ordinals[doc.ID] = i
	}
	s.index = idx
	s.ordinals = ordinals
	return nil
}

// Save writes the snapshot to disk and reports any failure. Use this
// when the caller needs to know the snapshot landed (e.g. shutdown).
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config.Path == "" {
		return nil
	}
	return s.persistLocked()
}

// saveLocked persists opportunistically after a mutation. Failures are
// logged and the previous on-disk snapshot is left untouched.
func (s *Store) saveLocked() {
	if s.config.Path == "" {
		return
	}
	if err := s.persistLocked(); err != nil {
		s.logger.Error("failed to save index snapshot",
			zap.String("path", s.config.Path),
			zap.Error(err),
		)
	}
}
