package chat

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// DefaultRAGSystemPrompt grounds an answer in retrieved document content.
// The %s placeholder receives the assembled context.
const DefaultRAGSystemPrompt = `You are a helpful assistant. Answer the user's question using only the document content below.
Follow these guidelines:
1. Base the answer on the provided content and do not invent information.
2. If the content does not cover the question, say that you cannot answer from the documents.
3. Keep the answer concise and clear.
4. Quote the documents where it helps.

Document content:
%s`

// DefaultNLPSystemPrompt is used for conversational questions.
const DefaultNLPSystemPrompt = `You are a friendly, concise assistant. Reply naturally to greetings and small talk.
If the user asks about specific policies or documents, suggest they ask a more specific question.`

// DefaultPrompts maps prompt names to their embedded defaults.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptRAGSystem: DefaultRAGSystemPrompt,
		driven.PromptNLPSystem: DefaultNLPSystemPrompt,
	}
}

// Prompts resolves system prompts from an optional store.
// The zero value uses the embedded defaults.
type Prompts struct {
	Store driven.PromptStore
}

// NLPSystem returns the conversational system prompt.
func (p Prompts) NLPSystem() string {
	return p.load(driven.PromptNLPSystem, DefaultNLPSystemPrompt)
}

// RAGSystem returns the grounded system prompt with contextText filled in.
// A custom template without a %s placeholder gets the context appended.
func (p Prompts) RAGSystem(contextText string) string {
	tmpl := p.load(driven.PromptRAGSystem, DefaultRAGSystemPrompt)
	if strings.Count(tmpl, "%s") != 1 || strings.Count(tmpl, "%") != 1 {
		return tmpl + "\n\n" + contextText
	}
	return fmt.Sprintf(tmpl, contextText)
}

func (p Prompts) load(name, fallback string) string {
	if p.Store == nil {
		return fallback
	}
	prompt, err := p.Store.Load(name)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return fallback
	}
	return prompt
}
