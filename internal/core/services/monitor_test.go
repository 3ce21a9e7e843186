package services

import (
	"context"
	"testing"

	"github.com/custodia-labs/qanda-core/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/qanda-core/internal/runtime"
)

func TestMonitorCheck(t *testing.T) {
	embedding := mocks.NewMockEmbedding()
	llm := mocks.NewMockLLM("pong")
	rt := runtime.NewServices(embedding, llm)
	m := NewModelMonitor(rt, nil)

	if !m.Check(context.Background()) {
		t.Fatal("check must pass with healthy services")
	}
	if !rt.ModelsReady() {
		t.Error("readiness flag must be set after a passing check")
	}

	llm.FailPing = true
	if m.Check(context.Background()) {
		t.Fatal("check must fail when the LLM is unreachable")
	}
	if rt.ModelsReady() {
		t.Error("readiness flag must be cleared after a failing check")
	}

	llm.FailPing = false
	embedding.FailHealth = true
	if m.Check(context.Background()) {
		t.Fatal("check must fail when the embedding service is unhealthy")
	}
}

func TestMonitorCheckWithoutServices(t *testing.T) {
	rt := runtime.NewServices(nil, nil)
	rt.SetModelsReady(true)
	m := NewModelMonitor(rt, nil)

	if m.Check(context.Background()) {
		t.Fatal("check must fail without configured services")
	}
	if rt.ModelsReady() {
		t.Error("readiness flag must be cleared")
	}
}

func TestMonitorPrewarm(t *testing.T) {
	embedding := mocks.NewMockEmbedding()
	llm := mocks.NewMockLLM("ok")
	rt := runtime.NewServices(embedding, llm)
	m := NewModelMonitor(rt, nil)

	if !m.Prewarm(context.Background()) {
		t.Fatal("prewarm must pass with healthy services")
	}
	if !rt.ModelsReady() {
		t.Error("readiness flag must be set after prewarm")
	}

	if len(embedding.EmbedCalls) != 1 {
		t.Errorf("embed calls = %d, want 1 warmup call", len(embedding.EmbedCalls))
	}
	if len(llm.Calls) != 1 {
		t.Fatalf("llm calls = %d, want 1 warmup call", len(llm.Calls))
	}
	if llm.Calls[0].Options.MaxTokens != 1 {
		t.Errorf("warmup generation budget = %d tokens, want 1", llm.Calls[0].Options.MaxTokens)
	}
}

func TestMonitorPrewarmFailure(t *testing.T) {
	embedding := mocks.NewMockEmbedding()
	embedding.FailEmbed = true
	rt := runtime.NewServices(embedding, mocks.NewMockLLM("ok"))
	rt.SetModelsReady(true)
	m := NewModelMonitor(rt, nil)

	if m.Prewarm(context.Background()) {
		t.Fatal("prewarm must fail when embedding fails")
	}
	if rt.ModelsReady() {
		t.Error("readiness flag must be cleared after a failed prewarm")
	}
}
