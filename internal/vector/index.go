// Package vector provides L2 vector indexes over guideline chunk embeddings.
package vector

import (
	"context"
	"sort"
)

// Index defines vector storage and nearest-neighbour search by L2 distance.
// IDs are chunk indices; an index is filled once and then only read.
type Index interface {
	Add(ctx context.Context, ids []int64, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]Result, error)
	Size() int
	Type() string
	Close() error
}

// Result is a single search hit. Distance is the squared L2 distance, as reported by a flat L2 index.
type Result struct {
	ID       int64
	Distance float64
}

// sortResults orders results by ascending distance, ties by lowest ID.
func sortResults(rs []Result) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Distance != rs[j].Distance {
			return rs[i].Distance < rs[j].Distance
		}
		return rs[i].ID < rs[j].ID
	})
}
