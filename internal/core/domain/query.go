package domain

// Candidate is a document chunk retrieved from the vector store for a query.
// Candidates are produced in descending similarity order and are immutable
// once returned.
type Candidate struct {
	// FileID identifies the source document
	FileID string `json:"file_id"`

	// FilePath is the document's path within the managed corpus
	FilePath string `json:"file_path"`

	// Content is the full stored content of the chunk
	Content string `json:"content"`

	// Similarity is 1 - cosine distance, in [0, 1]
	Similarity float64 `json:"similarity"`
}

// FileMatch is a search-mode result with preview content only
type FileMatch struct {
	FileID     string  `json:"file_id"`
	FilePath   string  `json:"file_path"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// SearchPreviewLen is the maximum preview length (in runes) returned in
// search mode. Full content is only used internally for synthesis.
const SearchPreviewLen = 500

// Preview returns the search preview for a candidate, truncated to
// SearchPreviewLen runes.
func (c Candidate) Preview() FileMatch {
	return FileMatch{
		FileID:     c.FileID,
		FilePath:   c.FilePath,
		Content:    TruncateRunes(c.Content, SearchPreviewLen),
		Similarity: c.Similarity,
	}
}

// TruncateRunes truncates s to at most n runes
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// AnswerConfidence is the self-reported confidence level of a synthesised answer
type AnswerConfidence string

const (
	ConfidenceHigh   AnswerConfidence = "high"
	ConfidenceMedium AnswerConfidence = "medium"
	ConfidenceLow    AnswerConfidence = "low"
)

// SourceRef is a citation to a candidate that grounded an answer
type SourceRef struct {
	FileID     string  `json:"file_id"`
	FilePath   string  `json:"file_path"`
	Similarity float64 `json:"similarity"`
}

// Answer is a synthesised, citation-bearing answer.
// Every source must correspond to a candidate that was part of the
// synthesizer's input set - the synthesizer never invents a citation.
type Answer struct {
	Text       string           `json:"text"`
	Sources    []SourceRef      `json:"sources"`
	Confidence AnswerConfidence `json:"confidence"`

	// Degraded is set when the model reply violated the expected format and
	// the raw text was returned instead of a parsed structure
	Degraded bool `json:"degraded,omitempty"`
}

// RoutedResponse is the result of routing a query: either a list of file
// matches (search mode) or a synthesised answer (answer mode).
type RoutedResponse struct {
	Mode   QueryMode `json:"mode"`
	Query  string    `json:"query"`
	Intent Intent    `json:"intent"`

	// Search mode
	Files      []FileMatch `json:"files,omitempty"`
	TotalFound int         `json:"total_found,omitempty"`

	// Answer mode
	Answer         *Answer `json:"answer,omitempty"`
	CandidateCount int     `json:"candidate_count,omitempty"`
}
