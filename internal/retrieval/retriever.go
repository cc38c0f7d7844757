// Package retrieval answers guideline queries with the nearest chunks of an embedded
// guidelines document.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/carelens/internal/embedding"
	"github.com/hyperjump/carelens/internal/extract"
	"github.com/hyperjump/carelens/internal/indexer"
	"github.com/hyperjump/carelens/internal/models"
	"github.com/hyperjump/carelens/internal/vector"
)

// ErrNoGuidelineText is returned when there is neither guideline text nor fallback text to index.
var ErrNoGuidelineText = errors.New("no guideline text to index")

const defaultTopK = 3

// Searcher is the read side used by the recommendation generator.
type Searcher interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.RetrievedChunk, error)
}

// Status describes the current index.
type Status struct {
	Built     bool   `json:"built"`
	Chunks    int    `json:"chunks"`
	IndexType string `json:"index_type"`
	Source    string `json:"source"`
	Fallback  bool   `json:"fallback"`
}

// Retriever owns the guideline index. The index is built on first use and is read-only
// afterwards; Rebuild swaps in a freshly built one.
type Retriever struct {
	embedder  embedding.Embedder
	indexer   *indexer.Indexer
	extractor *extract.Extractor
	indexType string
	path      string
	text      *string
	fallback  string
	topK      int
	logger    *zap.Logger

	buildMu sync.Mutex // serializes builds
	mu      sync.RWMutex
	idx     vector.Index
	chunks  []*models.DocumentChunk
	status  Status
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// WithGuidelinesPath reads the guidelines document from path (PDF or text).
func WithGuidelinesPath(path string) Option {
	return func(r *Retriever) { r.path = path }
}

// WithText indexes text instead of reading a document.
func WithText(source, text string) Option {
	return func(r *Retriever) {
		r.path = source
		r.text = &text
	}
}

// WithFallback replaces the built-in fallback text. An empty string disables the fallback.
func WithFallback(text string) Option {
	return func(r *Retriever) { r.fallback = text }
}

// WithTopK sets the number of chunks returned when Retrieve is called with k <= 0.
func WithTopK(k int) Option {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithIndexType selects the vector index implementation ("memory" or "faiss").
func WithIndexType(t string) Option {
	return func(r *Retriever) { r.indexType = t }
}

// New creates a retriever. ix must use the same embedder.
func New(embedder embedding.Embedder, ix *indexer.Indexer, opts ...Option) *Retriever {
	r := &Retriever{
		embedder:  embedder,
		indexer:   ix,
		extractor: extract.NewExtractor(),
		indexType: string(vector.IndexTypeMemory),
		fallback:  FallbackGuidelines,
		topK:      defaultTopK,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureBuilt builds the index if it has not been built yet. Concurrent callers wait
// for one build; a failed build is retried on the next call.
func (r *Retriever) EnsureBuilt(ctx context.Context) error {
	if r.built() {
		return nil
	}
	r.buildMu.Lock()
	defer r.buildMu.Unlock()
	if r.built() {
		return nil
	}
	return r.build(ctx)
}

// Rebuild re-reads the guidelines and replaces the index. Readers keep using the old
// index until the new one is complete; on error the old index stays in place.
func (r *Retriever) Rebuild(ctx context.Context) error {
	r.buildMu.Lock()
	defer r.buildMu.Unlock()
	return r.build(ctx)
}

func (r *Retriever) built() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idx != nil
}

func (r *Retriever) build(ctx context.Context) error {
	source, text, fallback, err := r.loadText()
	if err != nil {
		return err
	}
	idx, err := vector.NewIndex(r.indexType, r.embedder.Dimensions())
	if err != nil {
		return fmt.Errorf("create vector index: %w", err)
	}
	chunks, err := r.indexer.Build(ctx, source, text, fallback, idx)
	if err != nil {
		_ = idx.Close()
		return fmt.Errorf("build guideline index: %w", err)
	}

	r.mu.Lock()
	old := r.idx
	r.idx = idx
	r.chunks = chunks
	r.status = Status{Built: true, Chunks: len(chunks), IndexType: idx.Type(), Source: source, Fallback: fallback}
	r.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// loadText returns the text to index, switching to the fallback when the document is
// missing, unreadable, or blank.
func (r *Retriever) loadText() (source, text string, fallback bool, err error) {
	if r.text != nil {
		text = *r.text
	} else {
		text, err = r.extractor.LoadGuidelines(r.path)
		if err != nil {
			r.logger.Warn("guidelines document unreadable, using fallback", zap.String("path", r.path), zap.Error(err))
			text = ""
		}
	}
	if strings.TrimSpace(text) != "" {
		return r.path, text, false, nil
	}
	if strings.TrimSpace(r.fallback) == "" {
		return "", "", false, ErrNoGuidelineText
	}
	r.logger.Info("no guidelines text found, indexing built-in fallback", zap.String("path", r.path))
	return "fallback", r.fallback, true, nil
}

// Retrieve returns the k chunks nearest to query, ascending by L2 distance with ties
// broken by lowest chunk index. k <= 0 uses the configured default; fewer chunks are
// returned when the index holds fewer than k.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]models.RetrievedChunk, error) {
	if err := r.EnsureBuilt(ctx); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = r.topK
	}
	q, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.idx == nil {
		return nil, errors.New("retriever closed")
	}
	hits, err := r.idx.Search(ctx, q, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	out := make([]models.RetrievedChunk, 0, len(hits))
	for _, h := range hits {
		if h.ID < 0 || int(h.ID) >= len(r.chunks) {
			continue
		}
		out = append(out, models.RetrievedChunk{
			ChunkIndex: int(h.ID),
			Content:    r.chunks[h.ID].Content,
			Distance:   h.Distance,
		})
	}
	return out, nil
}

// Status reports the current index state.
func (r *Retriever) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.status
	if !s.Built {
		s.IndexType = r.indexType
	}
	return s
}

// Close releases the vector index.
func (r *Retriever) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.idx == nil {
		return nil
	}
	err := r.idx.Close()
	r.idx = nil
	r.chunks = nil
	r.status = Status{}
	return err
}
