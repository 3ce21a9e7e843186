package driven

import (
	"context"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
)

// SearchFilter restricts a similarity search to a corpus namespace
type SearchFilter struct {
	// PathPrefix limits results to documents whose path starts with this prefix
	PathPrefix string

	// PathExclude drops documents whose path contains this fragment
	// (used to hide the soft-delete namespace)
	PathExclude string
}

// VectorStore persists document embeddings and answers nearest-neighbour
// queries. Similarity is defined as 1 - cosine distance.
type VectorStore interface {
	// Upsert inserts or replaces a document chunk embedding
	Upsert(ctx context.Context, rec domain.EmbeddingRecord) error

	// Search returns up to limit candidates ordered by ascending cosine
	// distance (descending similarity)
	Search(ctx context.Context, vector []float32, limit int, filter SearchFilter) ([]domain.Candidate, error)

	// Delete removes embeddings by file ID or file path and returns the
	// number of rows removed. At least one selector must be set.
	Delete(ctx context.Context, fileID, filePath string) (int, error)

	// ListFileIDs returns the distinct file IDs present in the index
	ListFileIDs(ctx context.Context) ([]string, error)

	// Count returns the number of distinct indexed files
	Count(ctx context.Context) (int, error)

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error
}
