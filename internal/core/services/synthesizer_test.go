package services

import (
	"context"
	"strings"
	"testing"

	"github.com/custodia-labs/qanda-core/internal/core/domain"
	"github.com/custodia-labs/qanda-core/internal/core/ports/driven/mocks"
)

var synthDocs = []domain.Candidate{
	{FileID: "rechnung_server.txt", FilePath: "/mnt/data/rechnung_server.txt", Content: "Server Kauf 149,99€", Similarity: 0.91},
	{FileID: "vertrag_hosting.pdf", FilePath: "/mnt/data/vertrag_hosting.pdf", Content: "Hosting Vertrag", Similarity: 0.74},
	{FileID: "notizen.md", FilePath: "/mnt/data/notizen.md", Content: "Notizen", Similarity: 0.55},
}

func TestSynthesizeParsesStructuredReply(t *testing.T) {
	llm := mocks.NewMockLLM(`---
RELEVANTE QUELLEN: rechnung_server.txt
KONFIDENZ: HOCH
ANTWORT: Der Server kostet 149,99€ [rechnung_server.txt]
---`)
	s := NewAnswerSynthesizer(llm, nil)

	answer, err := s.Synthesize(context.Background(), "Was kostet der Server?", synthDocs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if answer.Degraded {
		t.Error("well-formed reply must not be degraded")
	}
	if answer.Text != "Der Server kostet 149,99€ [rechnung_server.txt]" {
		t.Errorf("text = %q", answer.Text)
	}
	if answer.Confidence != domain.ConfidenceHigh {
		t.Errorf("confidence = %q, want high", answer.Confidence)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].FileID != "rechnung_server.txt" {
		t.Fatalf("sources = %+v, want exactly rechnung_server.txt", answer.Sources)
	}
	if answer.Sources[0].Similarity != 0.91 {
		t.Errorf("source similarity = %v, want the candidate's value", answer.Sources[0].Similarity)
	}
}

func TestSynthesizeGroundingPrompt(t *testing.T) {
	llm := mocks.NewMockLLM("ANTWORT: ok")
	s := NewAnswerSynthesizer(llm, nil)

	if _, err := s.Synthesize(context.Background(), "Was kostet der Server?", synthDocs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(llm.Calls) != 1 {
		t.Fatalf("generate called %d times, want 1", len(llm.Calls))
	}

	call := llm.Calls[0]
	if !strings.Contains(call.Prompt, "[Dokument 1: rechnung_server.txt (Ähnlichkeit: 91%)]") {
		t.Errorf("prompt missing first document header:\n%s", call.Prompt)
	}
	if !strings.Contains(call.Prompt, "FRAGE DES BENUTZERS: Was kostet der Server?") {
		t.Error("prompt missing user question")
	}
	if call.Options.Temperature != 0.2 || call.Options.MaxTokens != 800 {
		t.Errorf("options = %+v, want temperature 0.2 and 800 tokens", call.Options)
	}
}

func TestSynthesizeCitationsComeFromCandidates(t *testing.T) {
	// The model cites one real document (without extension), one invented
	// one. Only the real one may appear as a source, in candidate order.
	llm := mocks.NewMockLLM(`RELEVANTE QUELLEN: erfundenes_dokument.txt, vertrag_hosting, rechnung_server.txt
KONFIDENZ: MITTEL
ANTWORT: Siehe Vertrag.`)
	s := NewAnswerSynthesizer(llm, nil)

	answer, err := s.Synthesize(context.Background(), "Details zum Hosting?", synthDocs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(answer.Sources) != 2 {
		t.Fatalf("sources = %+v, want 2", answer.Sources)
	}
	if answer.Sources[0].FileID != "rechnung_server.txt" || answer.Sources[1].FileID != "vertrag_hosting.pdf" {
		t.Errorf("sources out of candidate order: %+v", answer.Sources)
	}
}

func TestSynthesizeNoSources(t *testing.T) {
	llm := mocks.NewMockLLM(`RELEVANTE QUELLEN: Keine
KONFIDENZ: NIEDRIG
ANTWORT: Dazu habe ich keine Informationen in den Dokumenten gefunden.`)
	s := NewAnswerSynthesizer(llm, nil)

	answer, err := s.Synthesize(context.Background(), "Wie ist das Wetter?", synthDocs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(answer.Sources) != 0 {
		t.Errorf("sources = %+v, want none", answer.Sources)
	}
	if answer.Confidence != domain.ConfidenceLow {
		t.Errorf("confidence = %q, want low", answer.Confidence)
	}
}

func TestSynthesizeDegradedReply(t *testing.T) {
	raw := "Der Server kostet ungefähr 150 Euro, glaube ich."
	llm := mocks.NewMockLLM(raw)
	s := NewAnswerSynthesizer(llm, nil)

	answer, err := s.Synthesize(context.Background(), "Was kostet der Server?", synthDocs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !answer.Degraded {
		t.Error("format-violating reply must set the degraded flag")
	}
	if answer.Text != raw {
		t.Errorf("text = %q, want the raw reply", answer.Text)
	}
	if len(answer.Sources) != 0 {
		t.Errorf("sources = %+v, want none", answer.Sources)
	}
	if answer.Confidence != domain.ConfidenceMedium {
		t.Errorf("confidence = %q, want medium default", answer.Confidence)
	}
}

func TestSynthesizeGenerationFailure(t *testing.T) {
	llm := mocks.NewMockLLM()
	llm.FailGenerate = true
	s := NewAnswerSynthesizer(llm, nil)

	if _, err := s.Synthesize(context.Background(), "Was kostet der Server?", synthDocs); err == nil {
		t.Fatal("expected an error when generation fails")
	}
}

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		in     string
		want   domain.AnswerConfidence
		wantOK bool
	}{
		{"HOCH", domain.ConfidenceHigh, true},
		{" hoch ", domain.ConfidenceHigh, true},
		{"HIGH", domain.ConfidenceHigh, true},
		{"MITTEL", domain.ConfidenceMedium, true},
		{"medium", domain.ConfidenceMedium, true},
		{"NIEDRIG", domain.ConfidenceLow, true},
		{"Low", domain.ConfidenceLow, true},
		{"[HOCH]", "", false},
		{"sehr hoch", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := parseConfidence(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseConfidence(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
