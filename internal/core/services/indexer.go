package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driving"
	"github.com/custodia-labs/qanda-core/internal/runtime"
)

// indexContentCap bounds how much of a document is embedded.
// Longer content is stored in full but only the head contributes to the
// vector.
const indexContentCap = 8000

// Ensure Indexer implements IndexingService
var _ driving.IndexingService = (*Indexer)(nil)

// Indexer embeds document content and maintains the vector index
type Indexer struct {
	store    driven.VectorStore
	services *runtime.Services
	logger   *slog.Logger
}

// NewIndexer creates an Indexer
func NewIndexer(store driven.VectorStore, services *runtime.Services, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{store: store, services: services, logger: logger}
}

// IndexDocument embeds the content and upserts it under the file ID
func (ix *Indexer) IndexDocument(ctx context.Context, fileID, content, mimeType, filePath string) error {
	if fileID == "" || strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: file_id and content are required", domain.ErrInvalidInput)
	}
	if !ix.services.ModelsReady() {
		return domain.ErrModelsNotReady
	}

	embedding := ix.services.EmbeddingService()
	if embedding == nil {
		return domain.ErrModelsNotReady
	}

	ix.logger.Info("generating embedding", "file_id", fileID, "content_len", len(content))

	vector, err := embedding.EmbedQuery(ctx, domain.TruncateRunes(content, indexContentCap))
	if err != nil {
		return fmt.Errorf("failed to embed document: %w", err)
	}

	if filePath == "" {
		filePath = "memory"
	}

	rec := domain.EmbeddingRecord{
		FileID:     fileID,
		ChunkIndex: 0,
		Content:    content,
		Embedding:  vector,
		Metadata: domain.DocumentMetadata{
			FilePath:      filePath,
			MimeType:      mimeType,
			ContentLength: len(content),
		},
	}

	if err := ix.store.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}

	ix.logger.Info("document indexed", "file_id", fileID)
	return nil
}

// Remove deletes embeddings by file ID or file path
func (ix *Indexer) Remove(ctx context.Context, fileID, filePath string) (int, error) {
	if fileID == "" && filePath == "" {
		return 0, fmt.Errorf("%w: file_id or file_path is required", domain.ErrInvalidInput)
	}

	deleted, err := ix.store.Delete(ctx, fileID, filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to delete embeddings: %w", err)
	}
	return deleted, nil
}

// ListIndexed returns the distinct file IDs present in the index
func (ix *Indexer) ListIndexed(ctx context.Context) ([]string, error) {
	return ix.store.ListFileIDs(ctx)
}

// Stats returns simple index statistics
func (ix *Indexer) Stats(ctx context.Context) (domain.IndexStats, error) {
	count, err := ix.store.Count(ctx)
	if err != nil {
		return domain.IndexStats{}, err
	}
	return domain.IndexStats{IndexedFiles: count}, nil
}
