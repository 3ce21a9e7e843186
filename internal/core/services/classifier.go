package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
)

// classifyTimeout is the budget for the model classification call.
// Short, because this path uses a small, fast model.
const classifyTimeout = 15 * time.Second

// modelClassifyConfidence is the fixed confidence assigned to a successful
// model-based classification.
const modelClassifyConfidence = 0.9

// heuristicShortCircuit is the confidence at or above which the heuristic
// result is returned without consulting the model.
const heuristicShortCircuit = 0.9

// Pattern tables for the heuristic pass. Interrogatives and request verbs
// cover German and English; the corpus is predominantly German.
var (
	questionWordPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(was|wer|wie|warum|wann|wo|welche|welcher|welches)\b`),
		regexp.MustCompile(`^(erkläre|erklär|beschreibe|fasse|zusammenfassung|nenne|liste|zeige)\b`),
		regexp.MustCompile(`^(can you|could you|what|how|why|when|where|who|which)\b`),
		regexp.MustCompile(`^(bitte|kannst du|könntest du|sag mir|zeig mir)\b`),
	}

	bulkPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^alle\b`),
		regexp.MustCompile(`^sämtliche\b`),
		regexp.MustCompile(`^jede\b`),
		regexp.MustCompile(`^all\b`),
		regexp.MustCompile(`^every\b`),
		regexp.MustCompile(`^list(e)?\b`),
	}

	specificPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(die|das|der)\s+(datei|dokument|rechnung|vertrag)\b`),
		regexp.MustCompile(`^(file|document)\s+\w+`),
		regexp.MustCompile(`\.(pdf|txt|doc|xlsx?)$`),
	}

	yearPattern     = regexp.MustCompile(`\b(20\d{2})\b`)
	fileTypePattern = regexp.MustCompile(`\.(pdf|txt|doc|docx|xlsx?|csv|json|md)\b`)
)

const classifySystemPrompt = `Du bist ein Query-Klassifikator für ein Dokumenten-Suchsystem.

Analysiere die Benutzeranfrage und klassifiziere sie.

ANTWORTE NUR mit diesem exakten JSON-Format, KEINE anderen Zeichen:
{"type":"search","count_hint":"few","refined_query":"optimierte anfrage","filters":{"year":null,"file_type":null}}

REGELN:
- "type":
  - "search" = User sucht nach Dateien (z.B. "Rechnung Müller", "Server Logs")
  - "question" = User will eine Antwort/Erklärung (z.B. "Was kostet...", "Wie funktioniert...")

- "count_hint":
  - "exact_match" = User sucht 1-3 spezifische Dateien (z.B. "die Rechnung von Müller")
  - "few" = User erwartet 5-10 Ergebnisse (z.B. "Rechnungen 2024")
  - "many" = User will umfassende Liste (z.B. "alle Logs", "sämtliche Berichte")

- "refined_query": Optimiere die Suchanfrage für bessere Ergebnisse
- "filters": Extrahiere Jahr und Dateityp wenn vorhanden

Antworte NUR mit dem JSON, keine Erklärung.`

// IntentClassifier maps a raw query string to a routing decision.
// Classify is a total function: it never fails, falling back to a
// heuristic (or default) intent when the model path is unavailable.
type IntentClassifier struct {
	llm    driven.LLMService // small classification model, may be nil
	logger *slog.Logger
}

// NewIntentClassifier creates an IntentClassifier.
// llm is the dedicated small classification model; pass nil to run
// heuristics only.
func NewIntentClassifier(llm driven.LLMService, logger *slog.Logger) *IntentClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntentClassifier{llm: llm, logger: logger}
}

// Classify analyses the query and returns the routing intent.
// The heuristic pass runs first; the model is consulted only when the
// heuristic is not confident enough, and its failure falls back to the
// heuristic result rather than failing the request.
func (c *IntentClassifier) Classify(ctx context.Context, query string) domain.Intent {
	if strings.TrimSpace(query) == "" {
		return domain.DefaultIntent(query)
	}

	heuristic := c.heuristicClassify(query)
	if heuristic.Confidence >= heuristicShortCircuit || c.llm == nil {
		return heuristic
	}

	intent, err := c.modelClassify(ctx, query, heuristic)
	if err != nil {
		c.logger.Warn("model classification failed, using heuristic",
			"error", err,
			"confidence", heuristic.Confidence,
		)
		return heuristic
	}

	return intent
}

// heuristicClassify is the cheap, deterministic pattern pass.
// High confidence for clear patterns, 0.7 when no rule fires.
func (c *IntentClassifier) heuristicClassify(query string) domain.Intent {
	trimmed := strings.TrimSpace(query)
	lower := strings.ToLower(trimmed)

	intent := domain.Intent{
		Mode:         domain.QueryModeSearch,
		CountHint:    domain.CountHintFew,
		RefinedQuery: query,
		Confidence:   0.7,
	}

	switch {
	case strings.HasSuffix(trimmed, "?"):
		// Trailing question mark wins over everything else
		intent.Mode = domain.QueryModeAnswer
		intent.Confidence = 0.98
	default:
		for _, p := range questionWordPatterns {
			if p.MatchString(lower) {
				intent.Mode = domain.QueryModeAnswer
				intent.Confidence = 0.92
				break
			}
		}

		// Multi-clause sentences are usually requests, not keyword searches
		if intent.Mode == domain.QueryModeSearch {
			hasComma := strings.Contains(query, ",")
			hasMidPeriod := strings.Contains(query, ".") && !strings.HasSuffix(trimmed, ".")
			if (hasComma || hasMidPeriod) && len(strings.Fields(query)) > 5 {
				intent.Mode = domain.QueryModeAnswer
				intent.Confidence = 0.91
			}
		}
	}

	for _, p := range bulkPatterns {
		if p.MatchString(lower) {
			intent.CountHint = domain.CountHintMany
			intent.Confidence = max(intent.Confidence, 0.8)
			break
		}
	}

	if intent.CountHint != domain.CountHintMany {
		for _, p := range specificPatterns {
			if p.MatchString(lower) {
				intent.CountHint = domain.CountHintExactMatch
				intent.Confidence = max(intent.Confidence, 0.8)
				break
			}
		}
	}

	// Filters are extracted regardless of how confident the mode rules were
	if m := yearPattern.FindStringSubmatch(query); m != nil {
		if year, err := strconv.Atoi(m[1]); err == nil {
			intent.Filters.Year = &year
		}
	}
	if m := fileTypePattern.FindStringSubmatch(lower); m != nil {
		intent.Filters.FileType = m[1]
	}

	intent.Limit = domain.LimitFor(intent.CountHint)
	return intent
}

// modelClassifyReply is the JSON shape the classification model is
// instructed to emit.
type modelClassifyReply struct {
	Type         string `json:"type"`
	CountHint    string `json:"count_hint"`
	RefinedQuery string `json:"refined_query"`
	Filters      struct {
		Year     *int   `json:"year"`
		FileType string `json:"file_type"`
	} `json:"filters"`
}

// modelClassify asks the small classification model for a strict JSON
// verdict. Invalid fields retain the heuristic values; the service is not
// trusted to emit only JSON, so the first balanced object is extracted
// from the raw text.
func (c *IntentClassifier) modelClassify(ctx context.Context, query string, heuristic domain.Intent) (domain.Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	prompt := "Klassifiziere diese Anfrage: \"" + query + "\""
	raw, err := c.llm.Generate(ctx, prompt, classifySystemPrompt, driven.GenerateOptions{
		Temperature: 0.1,
		MaxTokens:   150,
	})
	if err != nil {
		return domain.Intent{}, err
	}

	intent := heuristic
	intent.Confidence = modelClassifyConfidence

	obj, ok := extractJSONObject(raw)
	if !ok {
		c.logger.Warn("no JSON object in classification reply", "raw", domain.TruncateRunes(raw, 200))
		intent.Limit = domain.LimitFor(intent.CountHint)
		return intent, nil
	}

	var reply modelClassifyReply
	if err := json.Unmarshal([]byte(obj), &reply); err != nil {
		c.logger.Warn("failed to parse classification JSON", "error", err, "raw", domain.TruncateRunes(obj, 200))
		intent.Limit = domain.LimitFor(intent.CountHint)
		return intent, nil
	}

	switch reply.Type {
	case "search":
		intent.Mode = domain.QueryModeSearch
	case "question", "answer":
		intent.Mode = domain.QueryModeAnswer
	}

	switch domain.CountHint(reply.CountHint) {
	case domain.CountHintExactMatch, domain.CountHintFew, domain.CountHintMany:
		intent.CountHint = domain.CountHint(reply.CountHint)
	}

	if strings.TrimSpace(reply.RefinedQuery) != "" {
		intent.RefinedQuery = reply.RefinedQuery
	}

	if reply.Filters.Year != nil && *reply.Filters.Year >= 2000 && *reply.Filters.Year <= 2099 {
		intent.Filters.Year = reply.Filters.Year
	}
	if reply.Filters.FileType != "" {
		intent.Filters.FileType = strings.ToLower(reply.Filters.FileType)
	}

	intent.Limit = domain.LimitFor(intent.CountHint)
	return intent, nil
}

// extractJSONObject returns the first balanced brace-delimited object in s.
// Brace depth is tracked outside of string literals so content braces do
// not terminate the object early.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
