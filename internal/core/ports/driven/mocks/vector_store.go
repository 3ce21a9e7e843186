package mocks

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
)

// MockVectorStore keeps records in memory and returns scripted search
// results. Search ignores the vector and serves SearchResults filtered by
// path, capped to the requested limit.
type MockVectorStore struct {
	Records       map[string]domain.EmbeddingRecord
	SearchResults []domain.Candidate
	FailSearch    bool
	FailUpsert    bool

	// SearchLimits records the limit passed to each Search call
	SearchLimits []int
	// SearchFilters records the filter passed to each Search call
	SearchFilters []driven.SearchFilter
}

var _ driven.VectorStore = (*MockVectorStore)(nil)

func NewMockVectorStore() *MockVectorStore {
	return &MockVectorStore{Records: make(map[string]domain.EmbeddingRecord)}
}

func (m *MockVectorStore) Upsert(ctx context.Context, rec domain.EmbeddingRecord) error {
	if m.FailUpsert {
		return fmt.Errorf("mock upsert failure")
	}
	m.Records[fmt.Sprintf("%s/%d", rec.FileID, rec.ChunkIndex)] = rec
	return nil
}

func (m *MockVectorStore) Search(ctx context.Context, vector []float32, limit int, filter driven.SearchFilter) ([]domain.Candidate, error) {
	if m.FailSearch {
		return nil, fmt.Errorf("mock search failure")
	}
	m.SearchLimits = append(m.SearchLimits, limit)
	m.SearchFilters = append(m.SearchFilters, filter)

	var out []domain.Candidate
	for _, c := range m.SearchResults {
		if filter.PathPrefix != "" && !strings.HasPrefix(c.FilePath, filter.PathPrefix) {
			continue
		}
		if filter.PathExclude != "" && strings.Contains(c.FilePath, filter.PathExclude) {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockVectorStore) Delete(ctx context.Context, fileID, filePath string) (int, error) {
	if fileID == "" && filePath == "" {
		return 0, fmt.Errorf("%w: file id or file path is required", domain.ErrInvalidInput)
	}
	var removed int
	for key, rec := range m.Records {
		if (fileID != "" && rec.FileID == fileID) ||
			(filePath != "" && rec.Metadata.FilePath == filePath) {
			delete(m.Records, key)
			removed++
		}
	}
	return removed, nil
}

func (m *MockVectorStore) ListFileIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, rec := range m.Records {
		if !seen[rec.FileID] {
			seen[rec.FileID] = true
			ids = append(ids, rec.FileID)
		}
	}
	return ids, nil
}

func (m *MockVectorStore) Count(ctx context.Context) (int, error) {
	ids, _ := m.ListFileIDs(ctx)
	return len(ids), nil
}

func (m *MockVectorStore) Ping(ctx context.Context) error { return nil }
