package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
	sentenceEnd    = regexp.MustCompile(`[.!?。！？]+`)
)

const (
	paragraphJoiner = "\n\n"
	sentenceJoiner  = " "
)

// Split breaks text into chunks of at most chunkSize runes.
//
// Paragraphs (separated by blank lines) are packed together until the next
// one would not fit. Each new chunk is seeded with the last overlap runes of
// the previous one when there is room for it. Paragraphs longer than
// chunkSize are split at sentence terminators, and sentences longer than
// chunkSize are cut into fixed windows that overlap by overlap runes.
//
// Invalid parameters are corrected rather than rejected: a non-positive
// chunkSize becomes DefaultChunkSize, and an overlap that is negative or not
// smaller than chunkSize becomes min(DefaultChunkOverlap, chunkSize/2).
// Blank input yields an empty slice.
func Split(text string, chunkSize, overlap int) []string {
	chunkSize, overlap = normaliseParams(chunkSize, overlap)
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	b := newBuilder(chunkSize, overlap, paragraphJoiner)
	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if runeLen(para) <= chunkSize {
			b.add(para)
			continue
		}
		for _, piece := range splitSentences(para, chunkSize, overlap) {
			b.add(piece)
		}
	}
	return b.finish()
}

func normaliseParams(chunkSize, overlap int) (int, int) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = min(DefaultChunkOverlap, chunkSize/2)
	}
	return chunkSize, overlap
}

// splitSentences packs the sentences of an oversized paragraph.
func splitSentences(para string, chunkSize, overlap int) []string {
	b := newBuilder(chunkSize, overlap, sentenceJoiner)
	for _, sentence := range sentences(para) {
		if runeLen(sentence) <= chunkSize {
			b.add(sentence)
			continue
		}
		b.addWindows(windows(sentence, chunkSize, overlap))
	}
	return b.finish()
}

// sentences splits text after each run of terminators, keeping the
// terminator with its sentence.
func sentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[last:loc[1]]); s != "" {
			out = append(out, s)
		}
		last = loc[1]
	}
	if s := strings.TrimSpace(text[last:]); s != "" {
		out = append(out, s)
	}
	return out
}

// windows cuts text into chunkSize-rune slices with stride chunkSize-overlap.
func windows(text string, chunkSize, overlap int) []string {
	runes := []rune(text)
	stride := chunkSize - overlap
	var out []string
	for start := 0; start < len(runes); start += stride {
		end := min(start+chunkSize, len(runes))
		if w := strings.TrimSpace(string(runes[start:end])); w != "" {
			out = append(out, w)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

// builder accumulates pieces into chunks.
// buf holds the chunk under construction; pending is false when buf only
// holds overlap carried over from a chunk that was already emitted.
type builder struct {
	size    int
	overlap int
	joiner  string
	buf     string
	pending bool
	out     []string
}

func newBuilder(size, overlap int, joiner string) *builder {
	return &builder{size: size, overlap: overlap, joiner: joiner, out: []string{}}
}

// add appends a piece that fits in size runes on its own.
func (b *builder) add(piece string) {
	if b.buf != "" && !b.fits(piece) {
		if b.pending {
			b.flush()
		}
		// Drop the carried overlap when it leaves no room for the piece.
		if !b.fits(piece) {
			b.buf = ""
		}
	}
	if b.buf == "" {
		b.buf = piece
	} else {
		b.buf += b.joiner + piece
	}
	b.pending = true
}

// addWindows emits pre-cut windows directly and resets the buffer.
func (b *builder) addWindows(ws []string) {
	if b.pending {
		b.flush()
	}
	b.out = append(b.out, ws...)
	b.buf = ""
	b.pending = false
}

func (b *builder) fits(piece string) bool {
	return runeLen(b.buf)+runeLen(b.joiner)+runeLen(piece) <= b.size
}

func (b *builder) flush() {
	chunk := strings.TrimSpace(b.buf)
	if chunk != "" {
		b.out = append(b.out, chunk)
	}
	b.buf = strings.TrimSpace(tail(chunk, b.overlap))
	b.pending = false
}

func (b *builder) finish() []string {
	if b.pending {
		b.flush()
	}
	return b.out
}

// tail returns the last n runes of s.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
