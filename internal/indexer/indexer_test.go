package indexer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/carelens/internal/embedding"
	"github.com/hyperjump/carelens/internal/storage"
	"github.com/hyperjump/carelens/internal/vector"
)

type countingEmbedder struct {
	*embedding.HashEmbedder
	batches int
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batches++
	return c.HashEmbedder.EmbedBatch(ctx, texts)
}

const guidelineText = `HIV testing should be offered to all adults. PrEP is recommended for people
at substantial risk. PEP must start within 72 hours of exposure and continue for 28 days.
Screen for depression and anxiety at every visit and refer severe cases.`

func newIndex(t *testing.T) *vector.MemoryIndex {
	t.Helper()
	idx, err := vector.NewMemoryIndex(16)
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestIndexer_Build(t *testing.T) {
	c, _ := NewChunker(10, 2)
	emb := &countingEmbedder{HashEmbedder: embedding.NewHashEmbedder(16)}
	ix := NewIndexer(emb, c)
	idx := newIndex(t)

	chunks, err := ix.Build(context.Background(), "guidelines.txt", guidelineText, false, idx)
	if err != nil {
		t.Fatal(err)
	}
	words := len(strings.Fields(guidelineText))
	wantChunks := (words + 7) / 8
	if len(chunks) != wantChunks {
		t.Errorf("chunks=%d, want %d for %d words", len(chunks), wantChunks, words)
	}
	if idx.Size() != len(chunks) {
		t.Errorf("index size=%d, chunks=%d", idx.Size(), len(chunks))
	}
	for i, ch := range chunks {
		if ch.ChunkIndex != i || len(ch.Embedding) != 16 {
			t.Errorf("chunk %d: index=%d dims=%d", i, ch.ChunkIndex, len(ch.Embedding))
		}
	}
}

func TestIndexer_BuildEmpty(t *testing.T) {
	c, _ := NewChunker(10, 2)
	ix := NewIndexer(embedding.NewHashEmbedder(16), c)
	if _, err := ix.Build(context.Background(), "x", " \n ", false, newIndex(t)); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestIndexer_BuildUsesStorageCache(t *testing.T) {
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	c, _ := NewChunker(10, 2)
	emb := &countingEmbedder{HashEmbedder: embedding.NewHashEmbedder(16)}
	ix := NewIndexer(emb, c, WithStorage(store), WithEmbedderID("hash-16"))

	first, err := ix.Build(ctx, "g.txt", guidelineText, false, newIndex(t))
	if err != nil {
		t.Fatal(err)
	}
	second, err := ix.Build(ctx, "g.txt", guidelineText, false, newIndex(t))
	if err != nil {
		t.Fatal(err)
	}
	if emb.batches != 1 {
		t.Errorf("expected one embedding pass, got %d", emb.batches)
	}
	if len(first) != len(second) {
		t.Fatalf("cached chunk count %d != %d", len(second), len(first))
	}
	for i := range first {
		if first[i].Content != second[i].Content {
			t.Errorf("chunk %d content differs after cache load", i)
		}
		for j := range first[i].Embedding {
			if first[i].Embedding[j] != second[i].Embedding[j] {
				t.Fatalf("chunk %d embedding differs after cache load", i)
			}
		}
	}

	// Different chunking must not reuse the cached vectors.
	c2, _ := NewChunker(12, 2)
	ix2 := NewIndexer(emb, c2, WithStorage(store), WithEmbedderID("hash-16"))
	if _, err := ix2.Build(ctx, "g.txt", guidelineText, false, newIndex(t)); err != nil {
		t.Fatal(err)
	}
	if emb.batches != 2 {
		t.Errorf("expected re-embedding for new chunking, got %d passes", emb.batches)
	}
}

func TestIndexer_CacheKey(t *testing.T) {
	c, _ := NewChunker(10, 2)
	a := NewIndexer(embedding.NewHashEmbedder(16), c, WithEmbedderID("a"))
	b := NewIndexer(embedding.NewHashEmbedder(16), c, WithEmbedderID("b"))
	if a.CacheKey("text") == b.CacheKey("text") {
		t.Error("cache key should depend on the embedder")
	}
	if a.CacheKey("text") == a.CacheKey("other text") {
		t.Error("cache key should depend on the content")
	}
}
