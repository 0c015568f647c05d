//go:build cgo

package embeddings

import (
	"context"
	"math"
	"os"
	"testing"
)

// skipWithoutONNX skips tests that need the ONNX runtime and a model
// download.
func skipWithoutONNX(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping FastEmbed test in short mode")
	}
	if _, err := os.Stat("/usr/lib/libonnxruntime.so"); os.IsNotExist(err) {
		if os.Getenv("ONNX_PATH") == "" {
			t.Skip("ONNX runtime not available, skipping FastEmbed test")
		}
	}
}

func TestNewFastEmbedProvider_UnsupportedModel(t *testing.T) {
	_, err := NewFastEmbedProvider(FastEmbedConfig{Model: "not-a-model"})
	if err == nil {
		t.Error("expected error for unsupported model")
	}
}

func TestNewFastEmbedProvider(t *testing.T) {
	skipWithoutONNX(t)

	tests := []struct {
		name    string
		cfg     FastEmbedConfig
		wantDim int
	}{
		{
			name:    "default model",
			cfg:     FastEmbedConfig{},
			wantDim: 384,
		},
		{
			name:    "explicit MiniLM",
			cfg:     FastEmbedConfig{Model: "sentence-transformers/all-MiniLM-L6-v2"},
			wantDim: 384,
		},
		{
			name:    "fastembed model name",
			cfg:     FastEmbedConfig{Model: "fast-bge-small-en-v1.5"},
			wantDim: 384,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.CacheDir = t.TempDir()
			provider, err := NewFastEmbedProvider(tt.cfg)
			if err != nil {
				t.Fatalf("NewFastEmbedProvider() error = %v", err)
			}
			defer provider.Close()

			if provider.Dimension() != tt.wantDim {
				t.Errorf("Dimension() = %d, want %d", provider.Dimension(), tt.wantDim)
			}
		})
	}
}

func TestFastEmbedProvider_Embed(t *testing.T) {
	skipWithoutONNX(t)

	provider, err := NewFastEmbedProvider(FastEmbedConfig{CacheDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewFastEmbedProvider() error = %v", err)
	}
	defer provider.Close()

	ctx := context.Background()

	t.Run("documents are unit-norm", func(t *testing.T) {
		vectors, err := provider.EmbedDocuments(ctx, []string{
			"The Baltic Dry Index measures shipping costs",
			"An Aframax is a medium tanker",
		})
		if err != nil {
			t.Fatalf("EmbedDocuments() error = %v", err)
		}
		if len(vectors) != 2 {
			t.Fatalf("expected 2 embeddings, got %d", len(vectors))
		}
		for i, v := range vectors {
			if len(v) != 384 {
				t.Errorf("embedding %d: expected 384 dimensions, got %d", i, len(v))
			}
			var sumSq float64
			for _, x := range v {
				sumSq += float64(x) * float64(x)
			}
			if math.Abs(math.Sqrt(sumSq)-1.0) > 1e-4 {
				t.Errorf("embedding %d: not unit-norm (|v| = %f)", i, math.Sqrt(sumSq))
			}
		}
	})

	t.Run("query", func(t *testing.T) {
		v, err := provider.EmbedQuery(ctx, "What is the Baltic Dry Index?")
		if err != nil {
			t.Fatalf("EmbedQuery() error = %v", err)
		}
		if len(v) != 384 {
			t.Errorf("expected 384 dimensions, got %d", len(v))
		}
	})

	t.Run("repeated embeds agree", func(t *testing.T) {
		first, err := provider.EmbedQuery(ctx, "What is the Baltic Dry Index?")
		if err != nil {
			t.Fatalf("EmbedQuery() error = %v", err)
		}
		second, err := provider.EmbedQuery(ctx, "What is the Baltic Dry Index?")
		if err != nil {
			t.Fatalf("EmbedQuery() error = %v", err)
		}
		if len(first) != len(second) {
			t.Fatalf("dimension changed between calls: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if math.Abs(float64(first[i])-float64(second[i])) > 1e-5 {
				t.Fatalf("component %d differs: %f vs %f", i, first[i], second[i])
			}
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if _, err := provider.EmbedDocuments(ctx, []string{}); err == nil {
			t.Error("expected error for empty input")
		}
		if _, err := provider.EmbedQuery(ctx, ""); err == nil {
			t.Error("expected error for empty query")
		}
	})
}

func TestModelMapping(t *testing.T) {
	tests := []struct {
		name        string
		modelName   string
		wantDim     int
		shouldExist bool
	}{
		{"MiniLM", "sentence-transformers/all-MiniLM-L6-v2", 384, true},
		{"BAAI format", "BAAI/bge-small-en-v1.5", 384, true},
		{"base model", "BAAI/bge-base-en-v1.5", 768, true},
		{"fastembed format", "fast-all-MiniLM-L6-v2", 384, true},
		{"unknown", "unknown-model", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dim, ok := fastEmbedModelDimension(tt.modelName)
			if ok != tt.shouldExist {
				t.Fatalf("fastEmbedModelDimension(%q) ok = %v, want %v", tt.modelName, ok, tt.shouldExist)
			}
			if ok && dim != tt.wantDim {
				t.Errorf("dimension = %d, want %d", dim, tt.wantDim)
			}
		})
	}
}
