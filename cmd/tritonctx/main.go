// Package main implements the tritonctx CLI for manual operations
// against a local semantic index snapshot.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Neopram/Triton/internal/augmentor"
	"github.com/Neopram/Triton/internal/config"
	"github.com/Neopram/Triton/internal/embeddings"
	"github.com/Neopram/Triton/internal/index"
	"github.com/Neopram/Triton/internal/logging"
)

var (
	// configPath is an optional YAML config file
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tritonctx",
	Short: "CLI for semantic index and prompt augmentation operations",
	Long: `tritonctx operates on a local semantic index snapshot.
It provides commands for ingesting documents, searching the index,
augmenting prompts with retrieved context, and deleting documents.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(augmentCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(infoCmd)
}

// engine bundles the wired-up components for one CLI invocation.
type engine struct {
	logger    *zap.Logger
	provider  embeddings.Provider
	idx       *index.SemanticIndex
	augmentor *augmentor.Augmentor
	cfg       *config.Config
}

// newEngine loads config and constructs the full component stack.
func newEngine() (*engine, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadWithFile(configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Load()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, err
	}

	provider, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider: cfg.Embeddings.Provider,
		Model:    cfg.Embeddings.Model,
		BaseURL:  cfg.Embeddings.BaseURL,
		CacheDir: cfg.Embeddings.CacheDir,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing embedding provider: %w", err)
	}

	store, err := index.NewStore(index.StoreConfig{
		Path:      cfg.Storage.Path,
		Dimension: cfg.Storage.VectorSize,
	}, logger)
	if err != nil {
		provider.Close()
		return nil, err
	}

	idx, err := index.NewSemanticIndex(provider, store, logger)
	if err != nil {
		provider.Close()
		return nil, err
	}

	aug, err := augmentor.New(idx, logger)
	if err != nil {
		provider.Close()
		return nil, err
	}

	return &engine{
		logger:    logger,
		provider:  provider,
		idx:       idx,
		augmentor: aug,
		cfg:       cfg,
	}, nil
}

// close releases the embedding model and flushes logs.
func (e *engine) close() {
	if err := e.provider.Close(); err != nil {
		e.logger.Warn("failed to close embedding provider", zap.Error(err))
	}
	_ = e.logger.Sync()
}

var (
	ingestID       string
	ingestMetadata string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [text]",
	Short: "Ingest a document into the semantic index",
	Long: `Ingest a document into the semantic index.

Examples:
  # Ingest with an auto-generated ID
  tritonctx ingest "The Baltic Dry Index measures shipping costs"

  # Ingest with an explicit ID and metadata
  tritonctx ingest --id bdi --metadata '{"source":"market"}' "..."`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the semantic index",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var augmentCmd = &cobra.Command{
	Use:   "augment [prompt]",
	Short: "Augment a prompt with retrieved context",
	Args:  cobra.ExactArgs(1),
	RunE:  runAugment,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document from the semantic index",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show index statistics",
	RunE:  runInfo,
}

var searchTopK int

func init() {
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document ID (auto-generated when empty)")
	ingestCmd.Flags().StringVar(&ingestMetadata, "metadata", "", "document metadata as a JSON object")
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 5, "number of results")
}

func runIngest(cmd *cobra.Command, args []string) error {
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.close()

	var metadata map[string]interface{}
	if ingestMetadata != "" {
		if err := json.Unmarshal([]byte(ingestMetadata), &metadata); err != nil {
			return fmt.Errorf("parsing metadata: %w", err)
		}
	}

	docID, err := e.augmentor.AddDocument(context.Background(), args[0], metadata, ingestID)
	if err != nil {
		return err
	}

	fmt.Printf("ingested document %s\n", docID)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.close()

	results, err := e.idx.Search(context.Background(), args[0], searchTopK)
	if err != nil {
		return err
	}

	for _, r := range results {
		fmt.Printf("%-24s distance=%.4f  %s\n", r.Document.ID, r.Distance, r.Document.Text)
	}
	if len(results) == 0 {
		fmt.Println("no results")
	}
	return nil
}

func runAugment(cmd *cobra.Command, args []string) error {
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.close()

	result, err := e.augmentor.Augment(context.Background(), args[0], augmentor.Options{
		MaxContextLength:    e.cfg.Augment.MaxContextLength,
		SimilarityThreshold: float32(e.cfg.Augment.SimilarityThreshold),
		MaxContexts:         e.cfg.Augment.MaxContexts,
	})
	if err != nil {
		return err
	}

	fmt.Println(result.AugmentedPrompt)
	if len(result.Contexts) > 0 {
		fmt.Fprintln(os.Stderr, "---")
		for _, c := range result.Contexts {
			fmt.Fprintf(os.Stderr, "context %s relevance=%.4f\n", c.DocID, c.RelevanceScore)
		}
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.close()

	if !e.idx.DeleteDocument(args[0]) {
		return fmt.Errorf("document %s not found", args[0])
	}
	fmt.Printf("deleted document %s\n", args[0])
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.close()

	fmt.Printf("documents:  %d\n", e.idx.Count())
	fmt.Printf("dimension:  %d\n", e.cfg.Storage.VectorSize)
	fmt.Printf("storage:    %s\n", e.cfg.Storage.Path)
	fmt.Printf("provider:   %s (%s)\n", e.cfg.Embeddings.Provider, e.cfg.Embeddings.Model)
	return nil
}
