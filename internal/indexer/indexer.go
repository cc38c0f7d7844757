package indexer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/carelens/internal/embedding"
	"github.com/hyperjump/carelens/internal/models"
	"github.com/hyperjump/carelens/internal/storage"
	"github.com/hyperjump/carelens/internal/vector"
)

// ErrEmptyDocument is returned when a document has no words to index.
var ErrEmptyDocument = errors.New("document has no text")

// Indexer chunks a guidelines document, embeds the chunks and loads them into a vector index.
// With a storage attached, chunk embeddings are reused across processes.
type Indexer struct {
	embedder   embedding.Embedder
	chunker    *Chunker
	storage    storage.Storage // optional embedding cache
	embedderID string
	logger     *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for build events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(ix *Indexer) { ix.logger = l }
}

// WithStorage enables the persistent embedding cache.
func WithStorage(s storage.Storage) IndexerOption {
	return func(ix *Indexer) { ix.storage = s }
}

// WithEmbedderID names the embedding model; it is part of the cache key so switching
// models never serves stale vectors.
func WithEmbedderID(id string) IndexerOption {
	return func(ix *Indexer) { ix.embedderID = id }
}

// NewIndexer creates an indexer with the given embedder and chunker.
func NewIndexer(embedder embedding.Embedder, chunker *Chunker, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		embedder:   embedder,
		chunker:    chunker,
		embedderID: fmt.Sprintf("%T", embedder),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// CacheKey identifies the embedded chunk set of content under the current chunking and embedder.
func (ix *Indexer) CacheKey(content string) string {
	return ContentHash(fmt.Sprintf("%s|w=%d|o=%d|dim=%d|emb=%s",
		ContentHash(content), ix.chunker.Size(), ix.chunker.Overlap(), ix.embedder.Dimensions(), ix.embedderID))
}

// Build indexes text into idx and returns the chunks in index order. The vector ID of
// each chunk is its ChunkIndex. Cache read or write failures are logged and never fail the build.
func (ix *Indexer) Build(ctx context.Context, source, text string, fallback bool, idx vector.Index) ([]*models.DocumentChunk, error) {
	content := Preprocess(text)
	if content == "" {
		return nil, ErrEmptyDocument
	}
	doc := &models.Document{
		ID:       ix.CacheKey(content),
		Source:   source,
		Hash:     ContentHash(content),
		Content:  content,
		Fallback: fallback,
	}

	chunks := ix.loadCached(ctx, doc.ID)
	if chunks == nil {
		var err error
		if chunks, err = ix.embedChunks(ctx, doc); err != nil {
			return nil, err
		}
		ix.saveCached(ctx, doc, chunks)
	}

	ids := make([]int64, len(chunks))
	vecs := make([][]float32, len(chunks))
	for i, ch := range chunks {
		ids[i] = int64(ch.ChunkIndex)
		vecs[i] = ch.Embedding
	}
	if err := idx.Add(ctx, ids, vecs); err != nil {
		return nil, fmt.Errorf("failed to index vectors: %w", err)
	}
	ix.logger.Info("guideline index built",
		zap.String("source", source),
		zap.Bool("fallback", fallback),
		zap.Int("chunks", len(chunks)),
		zap.String("index", idx.Type()))
	return chunks, nil
}

func (ix *Indexer) embedChunks(ctx context.Context, doc *models.Document) ([]*models.DocumentChunk, error) {
	chunks := ix.chunker.Chunk(doc.ID, doc.Content)
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	embeddings, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}
	return chunks, nil
}

// loadCached returns the cached chunks for key, or nil on a miss or any problem.
func (ix *Indexer) loadCached(ctx context.Context, key string) []*models.DocumentChunk {
	if ix.storage == nil {
		return nil
	}
	chunks, err := ix.storage.GetChunksByDocumentID(ctx, key)
	if err != nil {
		ix.logger.Warn("embedding cache read failed", zap.Error(err))
		return nil
	}
	if len(chunks) == 0 {
		ix.logger.Debug("embedding cache miss", zap.String("key", key))
		return nil
	}
	dims := ix.embedder.Dimensions()
	for i, ch := range chunks {
		if ch.ChunkIndex != i || len(ch.Embedding) != dims {
			ix.logger.Warn("embedding cache entry inconsistent, re-embedding", zap.String("key", key))
			return nil
		}
	}
	ix.logger.Debug("embedding cache hit", zap.String("key", key), zap.Int("chunks", len(chunks)))
	return chunks
}

func (ix *Indexer) saveCached(ctx context.Context, doc *models.Document, chunks []*models.DocumentChunk) {
	if ix.storage == nil {
		return
	}
	if err := ix.storage.SaveDocument(ctx, doc, chunks); err != nil {
		ix.logger.Warn("embedding cache write failed", zap.Error(err))
	}
}
