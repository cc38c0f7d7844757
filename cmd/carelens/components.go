package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hyperjump/carelens/internal/analyzer"
	"github.com/hyperjump/carelens/internal/config"
	"github.com/hyperjump/carelens/internal/embedding"
	"github.com/hyperjump/carelens/internal/indexer"
	"github.com/hyperjump/carelens/internal/judge"
	"github.com/hyperjump/carelens/internal/llm"
	"github.com/hyperjump/carelens/internal/metrics"
	"github.com/hyperjump/carelens/internal/recommend"
	"github.com/hyperjump/carelens/internal/retrieval"
	"github.com/hyperjump/carelens/internal/storage"
	"github.com/hyperjump/carelens/internal/vector"
)

// Components holds the wired pipeline.
type Components struct {
	Storage   *storage.SQLiteStorage
	Embedder  embedding.Embedder
	Retriever *retrieval.Retriever
	Completer llm.Completer
	Metrics   *metrics.PipelineMetrics
	Analyzer  *analyzer.Analyzer
}

// Close releases every component that holds resources.
func (c *Components) Close() {
	if c.Retriever != nil {
		_ = c.Retriever.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if closer, ok := c.Completer.(io.Closer); ok {
		_ = closer.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// LLMProvider names the configured generative model provider, or "" when none is configured.
func (c *Components) LLMProvider() string {
	if c.Completer == nil {
		return ""
	}
	return c.Completer.Provider()
}

// initializeComponents builds the pipeline from cfg. reg may be nil to skip metrics.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (*Components, error) {
	c := &Components{}
	if reg != nil {
		c.Metrics = metrics.NewPipelineMetrics(reg)
	}

	if cfg.Storage.DatabasePath != "" {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		c.Storage = store
	}

	embedder, err := embedding.New(ctx, &cfg.Embedding)
	if err != nil {
		if cfg.Embedding.Provider != "onnx" {
			c.Close()
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		logger.Warn("ONNX embedder unavailable, falling back to hash embeddings",
			zap.String("model_path", cfg.Embedding.ModelPath), zap.Error(err))
		embedder = embedding.NewCachedEmbedder(embedding.NewHashEmbedder(cfg.Embedding.Dimensions), cfg.Embedding.CacheSize)
	}
	c.Embedder = embedder

	chunker, err := indexer.NewChunker(cfg.Guidelines.ChunkSize, cfg.Guidelines.ChunkOverlap)
	if err != nil {
		c.Close()
		return nil, err
	}
	idxOpts := []indexer.IndexerOption{
		indexer.WithLogger(logger),
		indexer.WithEmbedderID(embedderID(&cfg.Embedding, embedder)),
	}
	if c.Storage != nil {
		idxOpts = append(idxOpts, indexer.WithStorage(c.Storage))
	}

	indexType := cfg.Vector.IndexType
	if indexType == string(vector.IndexTypeFAISS) && !vector.IsFAISSAvailable() {
		logger.Warn("FAISS not available in this build, using memory index")
		indexType = string(vector.IndexTypeMemory)
	}
	c.Retriever = retrieval.New(embedder, indexer.NewIndexer(embedder, chunker, idxOpts...),
		retrieval.WithLogger(logger),
		retrieval.WithGuidelinesPath(cfg.Guidelines.Path),
		retrieval.WithTopK(cfg.Guidelines.TopK),
		retrieval.WithIndexType(indexType),
	)

	completer, err := llm.New(ctx, &cfg.LLM)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize llm: %w", err)
	}
	if completer == nil {
		logger.Warn("Generative model not configured; model assessments and recommendations will be degraded",
			zap.String("provider", cfg.LLM.Provider),
			zap.String("api_key_env", cfg.LLM.APIKeyEnv))
	}
	c.Completer = completer

	j := judge.New(completer,
		judge.WithLogger(logger),
		judge.WithMetrics(c.Metrics),
		judge.WithStructuredOutput(cfg.LLM.StructuredOutput))
	g := recommend.New(completer, c.Retriever,
		recommend.WithLogger(logger),
		recommend.WithMetrics(c.Metrics),
		recommend.WithStructuredOutput(cfg.LLM.StructuredOutput))
	c.Analyzer = analyzer.New(j, g,
		analyzer.WithLogger(logger),
		analyzer.WithMetrics(c.Metrics),
		analyzer.WithWorkers(cfg.Analysis.Workers),
		analyzer.WithTimeout(cfg.Analysis.Timeout))
	return c, nil
}

// embedderID names the embedding model for the embedding cache key.
func embedderID(cfg *config.EmbeddingConfig, e embedding.Embedder) string {
	switch cfg.Provider {
	case "onnx":
		if _, ok := e.(*embedding.ONNXEmbedder); ok {
			return "onnx:" + filepath.Base(cfg.ModelPath)
		}
		return fmt.Sprintf("hash:%d", e.Dimensions())
	case "bedrock":
		return "bedrock:" + cfg.BedrockModelID
	default:
		return fmt.Sprintf("%s:%d", cfg.Provider, e.Dimensions())
	}
}
