package domain

// DocumentMetadata describes an indexed document
type DocumentMetadata struct {
	FilePath      string `json:"file_path"`
	MimeType      string `json:"mime_type"`
	ContentLength int    `json:"content_length"`
}

// EmbeddingRecord is a document chunk with its embedding vector, as stored
// in the vector store. A document currently maps to a single chunk.
type EmbeddingRecord struct {
	FileID     string
	ChunkIndex int
	Content    string
	Embedding  []float32
	Metadata   DocumentMetadata
}

// IndexStats holds simple statistics about the vector index
type IndexStats struct {
	IndexedFiles int `json:"indexed_files"`
}
