// Package chat holds the HTTP plumbing and prompt templates shared by the
// chat-style generation backends (OpenAI-compatible, Anthropic, Ollama).
//
// Every request goes through Client, which throttles with a token bucket,
// retries transient failures (HTTP 429, 5xx, transport errors) with
// exponential backoff inside the caller's deadline, and wraps whatever
// is left in domain.ErrBackendFailure.
package chat
