// Package file stores configuration and prompt templates as plain files in
// the config directory: config.toml (with SERCHA_RAG_* environment
// overrides) and prompts/<name>.txt.
package file
