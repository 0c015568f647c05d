package index

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// timeNow is a variable for testing purposes (allows mocking time).
var timeNow = time.Now

// IngestDocument is a document submitted for indexing. ID is optional;
// when empty one is generated from the current time and a short hash of
// the text. Embedding is optional; when nil it is computed on ingest.
type IngestDocument struct {
	ID        string
	Text      string
	Metadata  map[string]interface{}
	Embedding []float32
}

// SemanticIndex binds one Embedder and one Store into the addressable
// unit the rest of the system uses. It embeds text on the way in and
// queries on the way down, delegating vector math to the Store.
//
// Construct one per process and inject it into collaborators; the
// embedder owns the (expensive, lazily-loaded) model resource.
type SemanticIndex struct {
	embedder Embedder
	store    *Store
	logger   *zap.Logger
}

// NewSemanticIndex creates a SemanticIndex from its two halves.
func NewSemanticIndex(embedder Embedder, store *Store, logger *zap.Logger) (*SemanticIndex, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemanticIndex{
		embedder: embedder,
		store:    store,
		logger:   logger,
	}, nil
}

// Count returns the number of indexed documents.
func (si *SemanticIndex) Count() int {
	return si.store.Count()
}

// AddDocument embeds and stores a single document, returning its ID.
// Embedding failure means the document is not stored.
func (si *SemanticIndex) AddDocument(ctx context.Context, doc IngestDocument) (string, error) {
	ctx, span := indexTracer.Start(ctx, "SemanticIndex.AddDocument")
	defer span.End()

	if doc.ID == "" {
		doc.ID = generateID(doc.Text)
	}
	span.SetAttributes(attribute.String("doc_id", doc.ID))

	if doc.Embedding == nil {
		embeddings, err := si.embedder.EmbedDocuments(ctx, []string{doc.Text})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
		}
		if len(embeddings) == 0 {
			err := fmt.Errorf("%w: embedder returned no vectors", ErrEmbeddingFailed)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", err
		}
		doc.Embedding = embeddings[0]
	}

	if err := si.store.Add(Document{
		ID:        doc.ID,
		Text:      doc.Text,
		Metadata:  doc.Metadata,
		Embedding: doc.Embedding,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	si.logger.Debug("added document to semantic index",
		zap.String("doc_id", doc.ID),
		zap.Int("text_length", len(doc.Text)),
	)
	return doc.ID, nil
}

// AddDocuments embeds and stores multiple documents, returning the
// number added. A single document's embedding failure is logged and
// skipped without corrupting the alignment for subsequent documents.
func (si *SemanticIndex) AddDocuments(ctx context.Context, docs []IngestDocument) int {
	ctx, span := indexTracer.Start(ctx, "SemanticIndex.AddDocuments")
	defer span.End()
	span.SetAttributes(attribute.Int("document_count", len(docs)))

	prepared := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == "" {
			doc.ID = generateID(doc.Text)
		}
		if doc.Embedding == nil {
			embeddings, err := si.embedder.EmbedDocuments(ctx, []string{doc.Text})
			if err != nil || len(embeddings) == 0 {
				si.logger.Error("failed to embed document, skipping",
					zap.String("doc_id", doc.ID),
					zap.Error(err),
				)
				continue
			}
			doc.Embedding = embeddings[0]
		}
		prepared = append(prepared, Document{
			ID:        doc.ID,
			Text:      doc.Text,
			Metadata:  doc.Metadata,
			Embedding: doc.Embedding,
		})
	}

	added := si.store.AddBatch(prepared)
	span.SetAttributes(attribute.Int("documents_added", added))
	return added
}

// Search embeds the query text and returns up to topK documents,
// ascending by distance. On an empty index it returns an empty slice
// without touching the embedder.
func (si *SemanticIndex) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	ctx, span := indexTracer.Start(ctx, "SemanticIndex.Search")
	defer span.End()
	span.SetAttributes(attribute.Int("top_k", topK))

	if si.store.Count() == 0 {
		return []SearchResult{}, nil
	}

	vector, err := si.embedder.EmbedQuery(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	results, err := si.store.Search(vector, topK)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("results_count", len(results)))
	return results, nil
}

// DeleteDocument removes a document by ID, returning true if it
// existed. See Store.Delete for the rebuild cost.
func (si *SemanticIndex) DeleteDocument(id string) bool {
	return si.store.Delete(id)
}

// Save flushes the snapshot to disk.
func (si *SemanticIndex) Save() error {
	return si.store.Save()
}

// generateID builds a short, reasonably collision-resistant document ID
// from the current time and a hash of the text. Not cryptographically
// unique: a collision silently overwrites.
func generateID(text string) string {
	h := fnv.New32a()
	h.Write([]byte(text))
	return fmt.Sprintf("doc_%d_%04d", timeNow().Unix(), h.Sum32()%10000)
}
