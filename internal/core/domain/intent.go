package domain

// QueryMode determines how a query is answered
type QueryMode string

const (
	// QueryModeSearch returns matching files without invoking the LLM
	QueryModeSearch QueryMode = "search"
	// QueryModeAnswer synthesises a cited natural-language answer
	QueryModeAnswer QueryMode = "answer"
)

// CountHint estimates how many results the user expects
type CountHint string

const (
	CountHintExactMatch CountHint = "exact_match"
	CountHintFew        CountHint = "few"
	CountHintMany       CountHint = "many"
)

// limitMap maps a count hint to a retrieval limit.
// The limit is always one of {3, 10, 50}.
var limitMap = map[CountHint]int{
	CountHintExactMatch: 3,
	CountHintFew:        10,
	CountHintMany:       50,
}

// LimitFor returns the retrieval limit for a count hint.
// Unknown hints fall back to the "few" limit.
func LimitFor(hint CountHint) int {
	if limit, ok := limitMap[hint]; ok {
		return limit
	}
	return limitMap[CountHintFew]
}

// IntentFilters holds metadata filters extracted from the query
type IntentFilters struct {
	// Year is a four-digit year mentioned in the query (2000-2099), nil if absent
	Year *int `json:"year,omitempty"`

	// FileType is a recognised file extension mentioned in the query (without dot)
	FileType string `json:"file_type,omitempty"`
}

// Intent is the routing decision derived from a query
type Intent struct {
	// Mode decides between file search and answer synthesis
	Mode QueryMode `json:"mode"`

	// CountHint estimates the expected result count
	CountHint CountHint `json:"count_hint"`

	// RefinedQuery is the query text optimised for retrieval
	RefinedQuery string `json:"refined_query"`

	// Filters are metadata filters extracted from the query
	Filters IntentFilters `json:"filters"`

	// Confidence is the classification confidence in [0, 1]
	Confidence float64 `json:"confidence"`

	// Limit is the retrieval limit derived from CountHint, always positive
	Limit int `json:"limit"`
}

// DefaultIntent returns the fallback intent for empty or unclassifiable input.
// The refined query echoes the original input.
func DefaultIntent(query string) Intent {
	return Intent{
		Mode:         QueryModeSearch,
		CountHint:    CountHintFew,
		RefinedQuery: query,
		Confidence:   0.5,
		Limit:        LimitFor(CountHintFew),
	}
}
