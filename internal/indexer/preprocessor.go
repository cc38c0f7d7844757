package indexer

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/hyperjump/carelens/pkg/utils"
)

// Preprocess normalizes text for indexing (trim, collapse whitespace).
func Preprocess(text string) string {
	return utils.CollapseWhitespace(text)
}

// ContentHash returns the hex SHA-256 of text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
