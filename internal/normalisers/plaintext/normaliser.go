// Package plaintext provides the fallback Normaliser for text formats that
// need no markup stripping.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/tab-separated-values",
		"text/xml",
		"text/yaml",
		"application/json",
		"application/xml",
		"application/yaml",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise converts raw text to a document. Line endings are normalised
// to \n and a UTF-8 byte order mark is dropped. Content containing NUL
// bytes is treated as binary and rejected.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if bytes.IndexByte(raw.Content, 0) >= 0 {
		return nil, fmt.Errorf("%w: %s looks binary", domain.ErrUnsupportedType, raw.URI)
	}

	body := bytes.TrimPrefix(raw.Content, utf8BOM)
	content := string(body)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "�")
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	doc := domain.Document{
		URI:      raw.URI,
		Title:    titleFor(raw),
		MIMEType: raw.MIMEType,
		Content:  strings.TrimSpace(content),
		Metadata: withFormat(raw.Metadata, "text"),
	}
	return &driven.NormaliseResult{Document: doc}, nil
}

// titleFor prefers a caller-supplied title, then the file name.
func titleFor(raw *domain.RawDocument) string {
	if title, ok := raw.Metadata[domain.MetaTitle].(string); ok && title != "" {
		return title
	}
	return TitleFromURI(raw.URI)
}

// TitleFromURI turns "/docs/refund_policy-v2.txt" into "refund policy v2".
func TitleFromURI(uri string) string {
	if uri == "" {
		return ""
	}
	name := filepath.Base(uri)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.Join(strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}), " ")
}

// withFormat copies metadata and records the source format.
func withFormat(src map[string]any, format string) map[string]any {
	dst := make(map[string]any, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	dst["format"] = format
	return dst
}
