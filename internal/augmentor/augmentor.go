// Package augmentor assembles retrieval-augmented prompts from the
// semantic index.
package augmentor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Neopram/Triton/internal/index"
)

// augmentTracer for OpenTelemetry instrumentation.
var augmentTracer = otel.Tracer("triton.augmentor")

// promptTemplate wraps retrieved context and the original prompt. The
// downstream generator is told to prefer the supplied context but fall
// back to its own knowledge.
const promptTemplate = `I'll provide some context information that may be relevant to the question.

CONTEXT:
%s

QUESTION:
%s

Based on the context provided (if relevant) and your knowledge, please answer the question.`

// Options tune a single Augment call.
//
// Zero fields take defaults, so a literal zero threshold or zero
// context count cannot be requested; callers wanting "no context" should
// simply not call Augment.
type Options struct {
	// MaxContextLength caps the cumulative character length of context
	// text spliced into the prompt. Default: 1500.
	MaxContextLength int

	// SimilarityThreshold is the maximum distance for a document to be
	// considered relevant; larger is more permissive. Default: 5.0.
	SimilarityThreshold float32

	// MaxContexts caps the number of context documents. Default: 3.
	MaxContexts int
}

// ApplyDefaults sets default values for unset fields.
func (o *Options) ApplyDefaults() {
	if o.MaxContextLength == 0 {
		o.MaxContextLength = 1500
	}
	if o.SimilarityThreshold == 0 {
		o.SimilarityThreshold = 5.0
	}
	if o.MaxContexts == 0 {
		o.MaxContexts = 3
	}
}

// ContextInfo describes one context document spliced into a prompt,
// for observability and debugging by the caller.
type ContextInfo struct {
	DocID          string                 `json:"doc_id"`
	Metadata       map[string]interface{} `json:"metadata"`
	RelevanceScore float32                `json:"relevance_score"`
}

// Result is the outcome of an Augment call.
type Result struct {
	// AugmentedPrompt is the composed prompt, or the original prompt
	// unmodified when no relevant context was found.
	AugmentedPrompt string

	// Contexts lists the documents spliced in, best first. Empty when
	// the prompt was returned unmodified.
	Contexts []ContextInfo
}

// Augmentor retrieves relevant documents for a query and assembles an
// augmented prompt under length and relevance constraints.
//
// Augment is read-only with respect to the index; AddDocument,
// AddDocuments and DeleteDocument are the only mutating entry points.
type Augmentor struct {
	index  *index.SemanticIndex
	logger *zap.Logger
}

// New creates an Augmentor over the given semantic index.
func New(idx *index.SemanticIndex, logger *zap.Logger) (*Augmentor, error) {
	if idx == nil {
		return nil, fmt.Errorf("%w: semantic index is required", index.ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Augmentor{index: idx, logger: logger}, nil
}

// Augment retrieves documents relevant to the prompt and splices the
// best of them into a fixed instructional template.
//
// An empty retrieval outcome is not an error: the original prompt is
// returned unmodified with an empty context list. Embedding
// unavailability does propagate, since that means the whole subsystem
// is non-functional.
func (a *Augmentor) Augment(ctx context.Context, prompt string, opts Options) (*Result, error) {
	ctx, span := augmentTracer.Start(ctx, "Augmentor.Augment")
	defer span.End()

	opts.ApplyDefaults()
	start := time.Now()

	// Over-fetch so candidates lost to the relevance filter still leave
	// enough survivors.
	candidates, err := a.index.Search(ctx, prompt, opts.MaxContexts*2)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	relevant := make([]index.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		if c.Distance < opts.SimilarityThreshold {
			relevant = append(relevant, c)
		}
	}
	sort.Slice(relevant, func(i, j int) bool {
		return relevant[i].Distance < relevant[j].Distance
	})
	if len(relevant) > opts.MaxContexts {
		relevant = relevant[:opts.MaxContexts]
	}

	if len(relevant) == 0 {
		a.logger.Debug("no relevant context found for prompt")
		return &Result{AugmentedPrompt: prompt, Contexts: []ContextInfo{}}, nil
	}

	// Greedy first-fit under the character budget: a candidate that
	// would overflow is skipped, never retried, to keep ranking order
	// intact.
	blocks := make([]string, 0, len(relevant))
	contexts := make([]ContextInfo, 0, len(relevant))
	totalLength := 0
	for _, r := range relevant {
		if totalLength+len(r.Document.Text) > opts.MaxContextLength {
			continue
		}
		blocks = append(blocks, r.Document.Text)
		contexts = append(contexts, ContextInfo{
			DocID:          r.Document.ID,
			Metadata:       r.Document.Metadata,
			RelevanceScore: r.Distance,
		})
		totalLength += len(r.Document.Text)
	}

	if len(blocks) == 0 {
		return &Result{AugmentedPrompt: prompt, Contexts: []ContextInfo{}}, nil
	}

	augmented := fmt.Sprintf(promptTemplate, strings.Join(blocks, "\n\n"), prompt)

	span.SetAttributes(
		attribute.Int("contexts_used", len(blocks)),
		attribute.Int("context_length", totalLength),
	)
	a.logger.Info("prompt augmented with retrieved context",
		zap.Int("contexts_found", len(blocks)),
		zap.Int("total_context_length", totalLength),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Result{AugmentedPrompt: augmented, Contexts: contexts}, nil
}

// AddDocument ingests a single document into the knowledge base,
// returning its ID.
func (a *Augmentor) AddDocument(ctx context.Context, text string, metadata map[string]interface{}, id string) (string, error) {
	return a.index.AddDocument(ctx, index.IngestDocument{
		ID:       id,
		Text:     text,
		Metadata: metadata,
	})
}

// AddDocuments ingests multiple documents, returning the number added.
func (a *Augmentor) AddDocuments(ctx context.Context, docs []index.IngestDocument) int {
	return a.index.AddDocuments(ctx, docs)
}

// DeleteDocument removes a document from the knowledge base.
func (a *Augmentor) DeleteDocument(id string) bool {
	return a.index.DeleteDocument(id)
}
