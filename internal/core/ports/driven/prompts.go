package driven

// Prompt template names.
const (
	// PromptRAGSystem grounds an answer in retrieved context. The template
	// has a single %s verb that receives the numbered context blocks.
	PromptRAGSystem = "rag_system"

	// PromptNLPSystem answers without retrieval. It has no verbs.
	PromptNLPSystem = "nlp_system"
)

// PromptStore resolves system prompt templates by name, letting users
// override the built-in wording with files in the prompts directory.
type PromptStore interface {
	Load(name string) (string, error)

	// Reload drops cached templates so edited files are picked up.
	Reload()
}

// PromptStoreAware is implemented by generation backends that accept a
// PromptStore. Backends without one use their built-in prompts.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}
