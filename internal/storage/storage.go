// Package storage persists embedded guideline chunks so later runs can skip re-embedding.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/carelens/internal/models"
)

// ErrNotFound is returned when no cached document exists for an ID.
var ErrNotFound = errors.New("not found")

// Storage defines persistence for an embedded guidelines document. A document's ID is
// its cache key: it changes whenever the text, the chunking, or the embedder changes.
type Storage interface {
	// SaveDocument stores doc and its chunks (with embeddings), replacing any previous copy.
	SaveDocument(ctx context.Context, doc *models.Document, chunks []*models.DocumentChunk) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	// GetChunksByDocumentID returns the chunks of a document ordered by chunk index.
	GetChunksByDocumentID(ctx context.Context, docID string) ([]*models.DocumentChunk, error)
	DeleteDocument(ctx context.Context, id string) error

	// Stats
	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
