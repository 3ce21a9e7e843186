package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
)

// VectorStore persists document embeddings in Postgres with pgvector.
type VectorStore struct {
	db *sql.DB
}

var _ driven.VectorStore = (*VectorStore)(nil)

func NewVectorStore(db *sql.DB) *VectorStore {
	return &VectorStore{db: db}
}

// Upsert writes a chunk embedding, replacing any previous row for the
// same file and chunk index.
func (s *VectorStore) Upsert(ctx context.Context, rec domain.EmbeddingRecord) error {
	if rec.FileID == "" {
		return fmt.Errorf("%w: file id is required", domain.ErrInvalidInput)
	}

	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	const query = `
		INSERT INTO file_embeddings (file_id, chunk_index, content, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (file_id, chunk_index)
		DO UPDATE SET content = EXCLUDED.content,
		              embedding = EXCLUDED.embedding,
		              metadata = EXCLUDED.metadata`

	_, err = s.db.ExecContext(ctx, query,
		rec.FileID, rec.ChunkIndex, rec.Content, pgvector.NewVector(rec.Embedding), meta)
	if err != nil {
		return fmt.Errorf("upsert embedding for %s: %w", rec.FileID, err)
	}
	return nil
}

// Search returns the chunks nearest to the query vector by cosine
// distance, best match first. Filters constrain the stored file path.
func (s *VectorStore) Search(ctx context.Context, vector []float32, limit int, filter driven.SearchFilter) ([]domain.Candidate, error) {
	if limit <= 0 {
		return nil, nil
	}

	where := []string{"embedding IS NOT NULL"}
	args := []any{pgvector.NewVector(vector)}

	if filter.PathPrefix != "" {
		args = append(args, filter.PathPrefix+"%")
		where = append(where, fmt.Sprintf("(metadata->>'file_path') LIKE $%d", len(args)))
	}
	if filter.PathExclude != "" {
		args = append(args, "%"+filter.PathExclude+"%")
		where = append(where, fmt.Sprintf("(metadata->>'file_path') NOT LIKE $%d", len(args)))
	}

	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT file_id, content, COALESCE(metadata->>'file_path', ''),
		       1 - (embedding <=> $1) AS similarity
		FROM file_embeddings
		WHERE %s
		ORDER BY embedding <=> $1
		LIMIT $%d`, strings.Join(where, " AND "), len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search embeddings: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.FileID, &c.Content, &c.FilePath, &c.Similarity); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return candidates, nil
}

// Delete removes every chunk for a file, matched by id or stored path.
// Either argument may be empty. Returns the number of rows removed.
func (s *VectorStore) Delete(ctx context.Context, fileID, filePath string) (int, error) {
	if fileID == "" && filePath == "" {
		return 0, fmt.Errorf("%w: file id or file path is required", domain.ErrInvalidInput)
	}

	var (
		res sql.Result
		err error
	)
	switch {
	case fileID != "" && filePath != "":
		res, err = s.db.ExecContext(ctx,
			`DELETE FROM file_embeddings WHERE file_id = $1 OR metadata->>'file_path' = $2`,
			fileID, filePath)
	case fileID != "":
		res, err = s.db.ExecContext(ctx,
			`DELETE FROM file_embeddings WHERE file_id = $1`, fileID)
	default:
		res, err = s.db.ExecContext(ctx,
			`DELETE FROM file_embeddings WHERE metadata->>'file_path' = $1`, filePath)
	}
	if err != nil {
		return 0, fmt.Errorf("delete embeddings: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// ListFileIDs returns the distinct file ids currently indexed.
func (s *VectorStore) ListFileIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT file_id FROM file_embeddings ORDER BY file_id`)
	if err != nil {
		return nil, fmt.Errorf("list file ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan file id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file ids: %w", err)
	}
	return ids, nil
}

// Count returns the number of distinct indexed files.
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT file_id) FROM file_embeddings`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return n, nil
}

func (s *VectorStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
