// Package markdown provides a Normaliser that flattens Markdown into plain
// prose for chunking.
package markdown
