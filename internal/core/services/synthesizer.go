package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
)

const (
	// synthesizeTimeout is generous because answer generation is the slow path
	synthesizeTimeout = 600 * time.Second

	// docContentCap bounds how much of each candidate goes into the prompt
	docContentCap = 2000

	synthesisTemperature = 0.2
	synthesisMaxTokens   = 800
)

// Labels of the structured reply sections the model is instructed to emit
const (
	sourcesLabel    = "RELEVANTE QUELLEN:"
	confidenceLabel = "KONFIDENZ:"
	answerLabel     = "ANTWORT:"
)

const synthesisSystemPrompt = `Du bist ein intelligenter KI-Assistent für ein NAS-Dokumentensystem.

DEINE AUFGABE:
1. Analysiere die bereitgestellten Dokumente und entscheide SELBST, welche relevant sind
2. Zitiere NUR die Dokumente, die wirklich zur Frage passen (0-5, je nach Relevanz)
3. Gib eine DIREKTE Antwort wenn die Information vorhanden ist (z.B. "Der Server kostet 149,99€")
4. Wenn keine passenden Dokumente existieren, sag das ehrlich

ANTWORT-FORMAT (strikt einhalten):
---
RELEVANTE QUELLEN: [Liste der wirklich relevanten Dateinamen, oder "Keine"]
KONFIDENZ: [HOCH/MITTEL/NIEDRIG]
ANTWORT: [Deine direkte Antwort mit Quellenverweisen wie [Dok1]]
---

BEISPIELE:
- Frage "Was kostet der Server?" → Wenn Rechnung 149,99€ zeigt: "Der Server kostet 149,99€ [rechnung_xyz.txt]"
- Frage nach etwas Unbekanntem → "Dazu habe ich keine Informationen in den Dokumenten gefunden."
- Mehrere relevante Docs → "Basierend auf [dok1] und [dok2]: ..."

Antworte IMMER auf Deutsch. Sei präzise und direkt.`

// AnswerSynthesizer grounds the generation model on retrieved candidates
// and parses the free-text reply into a structured, citation-bearing
// answer. It fails only when the generation call itself fails; a
// format-violating reply degrades to the raw text instead of an error.
type AnswerSynthesizer struct {
	llm    driven.LLMService // full generation model
	logger *slog.Logger
}

// NewAnswerSynthesizer creates an AnswerSynthesizer
func NewAnswerSynthesizer(llm driven.LLMService, logger *slog.Logger) *AnswerSynthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerSynthesizer{llm: llm, logger: logger}
}

// Synthesize builds the grounding prompt from the candidates (in the order
// received), invokes the generation model and parses the structured reply.
func (s *AnswerSynthesizer) Synthesize(ctx context.Context, query string, docs []domain.Candidate) (*domain.Answer, error) {
	ctx, cancel := context.WithTimeout(ctx, synthesizeTimeout)
	defer cancel()

	prompt := buildGroundingPrompt(query, docs)

	raw, err := s.llm.Generate(ctx, prompt, synthesisSystemPrompt, driven.GenerateOptions{
		Temperature: synthesisTemperature,
		MaxTokens:   synthesisMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	answer := parseStructuredReply(raw, docs)
	if answer.Degraded {
		s.logger.Warn("model reply violated answer format, returning raw text",
			"raw_len", len(raw),
		)
	}
	return answer, nil
}

// buildGroundingPrompt renders each candidate with its identifier, a
// percentage-scaled similarity and capped content, followed by the
// user's question.
func buildGroundingPrompt(query string, docs []domain.Candidate) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hier sind %d Dokumente aus der Datenbank:\n\n", len(docs))

	for i, doc := range docs {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&b, "[Dokument %d: %s (Ähnlichkeit: %d%%)]\n%s",
			i+1, doc.FileID, int(doc.Similarity*100), domain.TruncateRunes(doc.Content, docContentCap))
	}

	fmt.Fprintf(&b, "\n\n---\n\nFRAGE DES BENUTZERS: %s\n\nAnalysiere die Dokumente und antworte im vorgegebenen Format:", query)

	return b.String()
}

// parseStructuredReply locates the three labelled sections by substring
// search. The upstream model's output is not guaranteed well-formed, so
// this is best-effort: missing sections keep their defaults and a missing
// answer section returns the whole raw reply with the degraded flag set.
func parseStructuredReply(raw string, docs []domain.Candidate) *domain.Answer {
	answer := &domain.Answer{
		Text:       raw,
		Sources:    []domain.SourceRef{},
		Confidence: domain.ConfidenceMedium,
	}

	if _, rest, ok := strings.Cut(raw, sourcesLabel); ok {
		sourcesLine := strings.TrimSpace(firstLine(rest))
		answer.Sources = matchCitedSources(sourcesLine, docs)
	}

	if _, rest, ok := strings.Cut(raw, confidenceLabel); ok {
		if level, ok := parseConfidence(firstLine(rest)); ok {
			answer.Confidence = level
		}
	}

	if _, rest, ok := strings.Cut(raw, answerLabel); ok {
		text := strings.TrimSpace(rest)
		if cut, _, found := strings.Cut(text, "---"); found {
			text = strings.TrimSpace(cut)
		}
		answer.Text = text
	} else {
		answer.Degraded = true
	}

	return answer
}

// matchCitedSources matches candidates whose file ID (with or without its
// extension) appears in the sources line. Order is preserved from the
// candidates list, not from the model text, which keeps every citation
// tied to a real input candidate.
func matchCitedSources(sourcesLine string, docs []domain.Candidate) []domain.SourceRef {
	refs := []domain.SourceRef{}

	if sourcesLine == "" || sourcesLine == "[]" || strings.EqualFold(sourcesLine, "keine") {
		return refs
	}

	for _, doc := range docs {
		bare := strings.TrimSuffix(doc.FileID, filepath.Ext(doc.FileID))
		if strings.Contains(sourcesLine, doc.FileID) || (bare != "" && strings.Contains(sourcesLine, bare)) {
			refs = append(refs, domain.SourceRef{
				FileID:     doc.FileID,
				FilePath:   doc.FilePath,
				Similarity: doc.Similarity,
			})
		}
	}

	return refs
}

// parseConfidence accepts the three enumerated levels, case-insensitively,
// in German or English.
func parseConfidence(line string) (domain.AnswerConfidence, bool) {
	switch strings.ToUpper(strings.TrimSpace(line)) {
	case "HOCH", "HIGH":
		return domain.ConfidenceHigh, true
	case "MITTEL", "MEDIUM":
		return domain.ConfidenceMedium, true
	case "NIEDRIG", "LOW":
		return domain.ConfidenceLow, true
	}
	return "", false
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
