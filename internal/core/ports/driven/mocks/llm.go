package mocks

import (
	"context"
	"fmt"

	"github.com/custodia-labs/qanda-core/internal/core/ports/driven"
)

// LLMCall records the arguments of one Generate invocation
type LLMCall struct {
	Prompt  string
	System  string
	Options driven.GenerateOptions
}

// MockLLM replays scripted replies in order. When the script runs out the
// last reply repeats. FailGenerate makes every call fail instead.
type MockLLM struct {
	Replies      []string
	FailGenerate bool
	FailPing     bool

	Calls []LLMCall
}

var _ driven.LLMService = (*MockLLM)(nil)

func NewMockLLM(replies ...string) *MockLLM {
	return &MockLLM{Replies: replies}
}

func (m *MockLLM) Generate(ctx context.Context, prompt, system string, opts driven.GenerateOptions) (string, error) {
	m.Calls = append(m.Calls, LLMCall{Prompt: prompt, System: system, Options: opts})
	if m.FailGenerate {
		return "", fmt.Errorf("mock llm failure")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(m.Replies) == 0 {
		return "", fmt.Errorf("mock llm has no scripted reply")
	}
	idx := len(m.Calls) - 1
	if idx >= len(m.Replies) {
		idx = len(m.Replies) - 1
	}
	return m.Replies[idx], nil
}

func (m *MockLLM) Model() string { return "mock-llm" }

func (m *MockLLM) Ping(ctx context.Context) error {
	if m.FailPing {
		return fmt.Errorf("mock llm unreachable")
	}
	return nil
}

func (m *MockLLM) Close() error { return nil }
