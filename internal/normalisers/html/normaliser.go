package html

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts readable text from an HTML page. Block-level elements
// become line breaks, entities are decoded, and script, style, head and
// svg subtrees are dropped.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text, title, err := extract(raw.Content)
	if err != nil {
		return nil, err
	}
	if t, ok := raw.Metadata[domain.MetaTitle].(string); ok && t != "" {
		title = t
	}
	if title == "" {
		title = plaintext.TitleFromURI(raw.URI)
	}

	meta := make(map[string]any, len(raw.Metadata)+1)
	for k, v := range raw.Metadata {
		meta[k] = v
	}
	meta["format"] = "html"

	return &driven.NormaliseResult{Document: domain.Document{
		URI:      raw.URI,
		Title:    title,
		MIMEType: raw.MIMEType,
		Content:  text,
		Metadata: meta,
	}}, nil
}

// skipped subtrees contribute no text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Head:     true,
	atom.Svg:      true,
	atom.Template: true,
}

var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Tr: true, atom.Blockquote: true, atom.Pre: true,
	atom.Table: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Ul: true, atom.Ol: true,
}

func extract(content []byte) (text, title string, err error) {
	z := html.NewTokenizer(bytes.NewReader(content))

	var (
		out     strings.Builder
		skip    int
		inTitle bool
		titleSB strings.Builder
	)

	for {
		switch z.Next() {
		case html.ErrorToken:
			if e := z.Err(); !errors.Is(e, io.EOF) {
				return "", "", e
			}
			return collapse(out.String()), strings.Join(strings.Fields(titleSB.String()), " "), nil

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.DataAtom == atom.Title {
				inTitle = true
				continue
			}
			if skipped[tok.DataAtom] {
				if tok.Type != html.SelfClosingTagToken {
					skip++
				}
				continue
			}
			if blocks[tok.DataAtom] {
				out.WriteByte('\n')
			}

		case html.EndTagToken:
			tok := z.Token()
			switch {
			case tok.DataAtom == atom.Title:
				inTitle = false
			case skipped[tok.DataAtom]:
				if skip > 0 {
					skip--
				}
			case blocks[tok.DataAtom]:
				out.WriteByte('\n')
			}

		case html.TextToken:
			// Token text is already entity-decoded.
			data := z.Token().Data
			if inTitle {
				titleSB.WriteString(data)
				continue
			}
			if skip == 0 {
				out.WriteString(data)
			}
		}
	}
}

// collapse squeezes runs of whitespace within lines and drops blank lines.
func collapse(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
