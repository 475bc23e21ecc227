package markdown

import (
	"bufio"
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise flattens Markdown to plain prose. Fenced code keeps its body
// and loses the fences; links keep their text.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	src := strings.ReplaceAll(string(raw.Content), "\r\n", "\n")
	body, frontTitle := splitFrontMatter(src)

	title, _ := raw.Metadata[domain.MetaTitle].(string)
	if title == "" {
		title = frontTitle
	}
	if title == "" {
		title = firstHeading(body)
	}
	if title == "" {
		title = plaintext.TitleFromURI(raw.URI)
	}

	meta := make(map[string]any, len(raw.Metadata)+1)
	for k, v := range raw.Metadata {
		meta[k] = v
	}
	meta["format"] = "markdown"

	return &driven.NormaliseResult{Document: domain.Document{
		URI:      raw.URI,
		Title:    title,
		MIMEType: raw.MIMEType,
		Content:  flatten(body),
		Metadata: meta,
	}}, nil
}

var (
	heading     = regexp.MustCompile(`^#{1,6}\s+`)
	image       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	link        = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	refLink     = regexp.MustCompile(`\[([^\]]+)\]\[[^\]]*\]`)
	refDef      = regexp.MustCompile(`^\s{0,3}\[[^\]]+\]:\s+\S+`)
	inlineCode  = regexp.MustCompile("`([^`]+)`")
	emphasis    = regexp.MustCompile(`(\*\*|\*|~~)([^*~\n]+)(\*\*|\*|~~)`)
	underscores = regexp.MustCompile(`(^|[\s(])_{1,2}([^_\n]+)_{1,2}([\s).,;:!?]|$)`)
	listMarker  = regexp.MustCompile(`^\s*([-*+]|\d+[.)])\s+`)
	quote       = regexp.MustCompile(`^\s*(>\s?)+`)
	rule        = regexp.MustCompile(`^\s*([-*_]\s*){3,}$`)
	tableRule   = regexp.MustCompile(`^\s*\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)*\|?\s*$`)
	htmlTag     = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
)

// flatten walks the document line by line so fenced blocks are passed
// through untouched.
func flatten(src string) string {
	var (
		out   []string
		fence string
		blank bool
	)

	sc := bufio.NewScanner(strings.NewReader(src))
	sc.Buffer(make([]byte, 64*1024), 1<<22)
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)

		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
				continue
			}
			out = append(out, line)
			blank = false
			continue
		}
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fence = trimmed[:3]
			continue
		}

		if tableRule.MatchString(line) || refDef.MatchString(line) {
			continue
		}
		if trimmed == "" || rule.MatchString(line) {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}

		line = strings.TrimSpace(quote.ReplaceAllString(line, ""))
		if heading.MatchString(line) {
			line = strings.TrimRight(heading.ReplaceAllString(line, ""), "# ")
		}
		line = listMarker.ReplaceAllString(line, "")
		line = inline(line)
		if strings.HasPrefix(line, "|") {
			line = tableRow(line)
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		out = append(out, line)
		blank = false
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

func inline(line string) string {
	line = image.ReplaceAllString(line, "$1")
	line = link.ReplaceAllString(line, "$1")
	line = refLink.ReplaceAllString(line, "$1")
	line = inlineCode.ReplaceAllString(line, "$1")
	line = htmlTag.ReplaceAllString(line, "")
	for {
		next := emphasis.ReplaceAllString(line, "$2")
		if next == line {
			break
		}
		line = next
	}
	return underscores.ReplaceAllString(line, "$1$2$3")
}

func tableRow(line string) string {
	cells := strings.Split(strings.Trim(line, "| "), "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return strings.Join(cells, " ")
}

func firstHeading(body string) string {
	inFence := false
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "```") || strings.HasPrefix(line, "~~~") {
			inFence = !inFence
			continue
		}
		if !inFence && strings.HasPrefix(line, "# ") {
			return inline(strings.TrimSpace(strings.TrimRight(line[2:], "# ")))
		}
	}
	return ""
}

// splitFrontMatter removes a leading "---" block and returns its title field.
func splitFrontMatter(src string) (body, title string) {
	if !strings.HasPrefix(src, "---\n") {
		return src, ""
	}
	end := strings.Index(src[4:], "\n---")
	if end < 0 {
		return src, ""
	}
	header := src[4 : 4+end]
	body = strings.TrimPrefix(src[4+end+4:], "\n")

	for _, line := range strings.Split(header, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if ok && strings.TrimSpace(key) == "title" {
			title = strings.Trim(strings.TrimSpace(value), `"'`)
		}
	}
	return body, title
}
