// Package indexer chunks guideline text and builds the vector index over the chunks.
package indexer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hyperjump/carelens/internal/models"
)

// ErrInvalidChunking is returned for a window/overlap pair that cannot make progress.
var ErrInvalidChunking = errors.New("invalid chunking parameters")

// Chunker splits text into overlapping word windows.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given window size and overlap (in words).
// The overlap must be non-negative and smaller than the window.
func NewChunker(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 || chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidChunking, chunkSize, chunkOverlap)
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}, nil
}

// Size returns the window size in words.
func (c *Chunker) Size() int { return c.chunkSize }

// Overlap returns the overlap in words.
func (c *Chunker) Overlap() int { return c.chunkOverlap }

// Chunk splits text into windows of at most chunkSize words, one starting at every
// multiple of chunkSize-chunkOverlap below the word count. Trailing partial windows
// are kept even when the previous window already reached the end, so a text of n
// words yields ceil(n/step) chunks. ChunkIndex runs 0..n-1 in document order.
func (c *Chunker) Chunk(docID, text string) []*models.DocumentChunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := c.chunkSize - c.chunkOverlap
	chunks := make([]*models.DocumentChunk, 0, (len(words)+step-1)/step)
	for start := 0; start < len(words); start += step {
		end := min(start+c.chunkSize, len(words))
		chunks = append(chunks, &models.DocumentChunk{
			ID:         fmt.Sprintf("%s_%s", docID, uuid.New().String()[:8]),
			DocumentID: docID,
			Content:    strings.Join(words[start:end], " "),
			ChunkIndex: len(chunks),
			WordStart:  start,
			WordCount:  end - start,
		})
	}
	return chunks
}
