// Package models defines the records shared by the risk pipeline: conversations,
// guideline chunks, risk assessments, and recommendations.
package models

import "time"

// Document is a guidelines document whose extracted text feeds the retriever.
type Document struct {
	ID        string    `json:"id" db:"id"`
	Source    string    `json:"source" db:"source"`
	Hash      string    `json:"hash" db:"hash"`
	Content   string    `json:"-" db:"content"`
	Fallback  bool      `json:"fallback" db:"fallback"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DocumentChunk is a contiguous word window of a guidelines document.
// ChunkIndex is the window's position in the document and identifies it in the index.
type DocumentChunk struct {
	ID         string    `json:"id" db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Content    string    `json:"content" db:"content"`
	ChunkIndex int       `json:"chunk_index" db:"chunk_index"`
	WordStart  int       `json:"word_start" db:"word_start"`
	WordCount  int       `json:"word_count" db:"word_count"`
	Embedding  []float32 `json:"-" db:"-"`
}

// RetrievedChunk is a chunk returned for a query, with its L2 distance to the query.
type RetrievedChunk struct {
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Distance   float64 `json:"distance"`
}
