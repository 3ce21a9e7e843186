package driving

import (
	"context"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
)

// IndexingService manages the embedded document corpus
type IndexingService interface {
	// IndexDocument embeds the content and stores it under the file ID,
	// replacing any previous version
	IndexDocument(ctx context.Context, fileID, content, mimeType, filePath string) error

	// Remove deletes embeddings by file ID or file path and returns the
	// number of chunks removed
	Remove(ctx context.Context, fileID, filePath string) (int, error)

	// ListIndexed returns the distinct file IDs present in the index
	ListIndexed(ctx context.Context) ([]string, error)

	// Stats returns simple index statistics
	Stats(ctx context.Context) (domain.IndexStats, error)
}
