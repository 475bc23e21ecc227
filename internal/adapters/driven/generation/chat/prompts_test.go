package chat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

type stubPromptStore struct {
	prompts map[string]string
}

func (s *stubPromptStore) Load(name string) (string, error) {
	p, ok := s.prompts[name]
	if !ok {
		return "", errors.New("missing")
	}
	return p, nil
}

func (s *stubPromptStore) Reload() {}

func TestPrompts_Defaults(t *testing.T) {
	var p Prompts

	assert.Equal(t, DefaultNLPSystemPrompt, p.NLPSystem())
	rag := p.RAGSystem("[Document 1]\nRefunds take 14 days.")
	assert.Contains(t, rag, "Document content:\n[Document 1]\nRefunds take 14 days.")
	assert.NotContains(t, rag, "%s")
}

func TestPrompts_FromStore(t *testing.T) {
	p := Prompts{Store: &stubPromptStore{prompts: map[string]string{
		driven.PromptNLPSystem: "Be brief.",
		driven.PromptRAGSystem: "Context:\n%s\nAnswer from it.",
	}}}

	assert.Equal(t, "Be brief.", p.NLPSystem())
	assert.Equal(t, "Context:\nctx\nAnswer from it.", p.RAGSystem("ctx"))
}

func TestPrompts_TemplateWithoutPlaceholder(t *testing.T) {
	p := Prompts{Store: &stubPromptStore{prompts: map[string]string{
		driven.PromptRAGSystem: "Answer at 100% accuracy.",
	}}}

	assert.Equal(t, "Answer at 100% accuracy.\n\nctx", p.RAGSystem("ctx"))
}

func TestPrompts_StoreMissOrBlankFallsBack(t *testing.T) {
	p := Prompts{Store: &stubPromptStore{prompts: map[string]string{
		driven.PromptNLPSystem: "   ",
	}}}

	assert.Equal(t, DefaultNLPSystemPrompt, p.NLPSystem())
	assert.Contains(t, p.RAGSystem("ctx"), "Document content:\nctx")
}

func TestDefaultPrompts(t *testing.T) {
	prompts := DefaultPrompts()
	assert.Len(t, prompts, 2)
	assert.Equal(t, DefaultRAGSystemPrompt, prompts[driven.PromptRAGSystem])
}
