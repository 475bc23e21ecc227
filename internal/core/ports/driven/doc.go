// Package driven holds the outbound ports of the query engine: everything
// the core services call that touches storage, indexing, text extraction
// or a model server.
//
// The index, document store, history store, query cache, normaliser
// registry, chunking pipeline and config store are always wired.
// GenerationBackend, PromptStore and SchedulerStore may be nil: without a
// backend every answer is the fallback answer, without a prompt store the
// built-in prompts apply, and without a scheduler store task state lives
// only for the life of the process.
//
// This package depends on domain and nothing else.
package driven
