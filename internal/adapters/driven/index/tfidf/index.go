package tfidf

import (
	"maps"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

var _ driven.LexicalIndex = (*Index)(nil)

// entry is an indexed piece of text. Entries are never mutated once published.
type entry struct {
	id         string
	parentID   string
	content    string
	metadata   map[string]any
	termFreq   map[string]int
	terms      []string // sorted keys of termFreq
	totalTerms int
	indexedAt  time.Time
	seq        uint64
}

// snapshot is an immutable view of the index.
type snapshot struct {
	entries map[string]*entry
	order   []*entry // ascending seq
	idf     map[string]float64
	norms   map[string]float64 // L2 norm of each entry's TF-IDF vector
	terms   int
}

// Index is a TF-IDF lexical index safe for concurrent use.
type Index struct {
	mu   sync.Mutex // serialises writers
	seq  uint64
	snap atomic.Pointer[snapshot]
}

// New creates an empty index.
func New() *Index {
	ix := &Index{}
	ix.snap.Store(buildSnapshot(map[string]*entry{}))
	return ix
}

// Upsert indexes content under docID, replacing any prior entry.
// The parent document is taken from metadata["parent_doc_id"] when present.
func (ix *Index) Upsert(docID, content string, metadata map[string]any) domain.IndexResult {
	if docID == "" {
		return domain.IndexResult{Success: false}
	}

	var e *entry
	ix.update(func(entries map[string]*entry) {
		e = ix.newEntry(docID, content, metadata)
		entries[docID] = e
	})

	logger.Debug("index: upserted %s (%d unique terms, %d total)", docID, len(e.termFreq), e.totalTerms)
	return domain.IndexResult{
		Success:         true,
		UniqueTermCount: len(e.termFreq),
		TotalTerms:      e.totalTerms,
	}
}

// ReplaceChunks removes every entry belonging to parentID and indexes
// chunks in their place as one snapshot swap.
func (ix *Index) ReplaceChunks(parentID string, chunks []domain.Chunk) domain.IndexResult {
	if parentID == "" {
		return domain.IndexResult{Success: false}
	}

	unique := make(map[string]struct{})
	total := 0
	ix.update(func(entries map[string]*entry) {
		removeParent(entries, parentID)
		for i := range chunks {
			c := &chunks[i]
			meta := maps.Clone(c.Metadata)
			if meta == nil {
				meta = make(map[string]any, 1)
			}
			meta[domain.MetaParentDocID] = parentID
			e := ix.newEntry(c.ID, c.Content, meta)
			entries[c.ID] = e
			for t := range e.termFreq {
				unique[t] = struct{}{}
			}
			total += e.totalTerms
		}
	})

	logger.Debug("index: replaced chunks of %s with %d chunks", parentID, len(chunks))
	return domain.IndexResult{
		Success:         true,
		UniqueTermCount: len(unique),
		TotalTerms:      total,
	}
}

// Delete removes one entry. Returns false if it was absent.
func (ix *Index) Delete(docID string) bool {
	if !ix.Has(docID) {
		return false
	}
	removed := false
	ix.update(func(entries map[string]*entry) {
		if _, ok := entries[docID]; ok {
			delete(entries, docID)
			removed = true
		}
	})
	return removed
}

// DeleteChunks removes every entry belonging to parentID.
func (ix *Index) DeleteChunks(parentID string) int {
	if parentID == "" {
		return 0
	}
	n := 0
	ix.update(func(entries map[string]*entry) {
		n = removeParent(entries, parentID)
	})
	return n
}

// Search returns up to topK entries scoring above zero, best first.
// Ties keep insertion order. A non-positive topK is treated as 1.
func (ix *Index) Search(query string, topK int) []domain.IndexHit {
	if topK <= 0 {
		topK = 1
	}

	hits := []domain.IndexHit{}
	snap := ix.snap.Load()
	if len(snap.order) == 0 {
		return hits
	}

	qtf, qtotal := termFrequency(Tokenize(query))
	if qtotal == 0 {
		return hits
	}

	// Query terms are visited in sorted order so equal entries get
	// bit-identical scores.
	type weighted struct {
		term   string
		weight float64
	}
	var qvec []weighted
	qnorm := 0.0
	for _, t := range sortedKeys(qtf) {
		w := float64(qtf[t]) / float64(qtotal) * snap.idf[t]
		if w == 0 {
			continue
		}
		qvec = append(qvec, weighted{t, w})
		qnorm += w * w
	}
	if qnorm == 0 {
		return hits
	}
	qnorm = math.Sqrt(qnorm)

	for _, e := range snap.order {
		dnorm := snap.norms[e.id]
		if dnorm == 0 {
			continue
		}
		dot := 0.0
		for _, q := range qvec {
			if c, ok := e.termFreq[q.term]; ok {
				dot += q.weight * float64(c) / float64(e.totalTerms) * snap.idf[q.term]
			}
		}
		score := dot / (qnorm * dnorm)
		if score <= 0 {
			continue
		}
		hits = append(hits, domain.IndexHit{
			DocID:        e.id,
			Content:      e.content,
			Metadata:     maps.Clone(e.metadata),
			Score:        score,
			MatchedTerms: matchedTerms(qtf, e),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// Has reports whether docID is indexed.
func (ix *Index) Has(docID string) bool {
	_, ok := ix.snap.Load().entries[docID]
	return ok
}

// Parent returns the parent document of docID, empty for raw entries.
func (ix *Index) Parent(docID string) (string, bool) {
	e, ok := ix.snap.Load().entries[docID]
	if !ok {
		return "", false
	}
	return e.parentID, true
}

// IDs returns indexed entry IDs in insertion order.
func (ix *Index) IDs() []string {
	snap := ix.snap.Load()
	ids := make([]string, len(snap.order))
	for i, e := range snap.order {
		ids[i] = e.id
	}
	return ids
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	return len(ix.snap.Load().entries)
}

// Stats summarises the index.
func (ix *Index) Stats() domain.IndexStats {
	snap := ix.snap.Load()
	stats := domain.IndexStats{
		DocumentCount:  len(snap.entries),
		TotalTerms:     snap.terms,
		VocabularySize: len(snap.idf),
	}
	if stats.DocumentCount > 0 {
		stats.AverageTermsPerDocument = float64(stats.TotalTerms) / float64(stats.DocumentCount)
	}
	return stats
}

// Clear removes every entry.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.snap.Store(buildSnapshot(map[string]*entry{}))
}

// update applies fn to a copy of the entry map and publishes the result.
func (ix *Index) update(fn func(entries map[string]*entry)) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	entries := maps.Clone(ix.snap.Load().entries)
	fn(entries)
	ix.snap.Store(buildSnapshot(entries))
}

// newEntry must be called with mu held.
func (ix *Index) newEntry(id, content string, metadata map[string]any) *entry {
	ix.seq++
	tf, total := termFrequency(Tokenize(content))
	meta := maps.Clone(metadata)
	if meta == nil {
		meta = map[string]any{}
	}
	parent, _ := meta[domain.MetaParentDocID].(string)
	return &entry{
		id:         id,
		parentID:   parent,
		content:    content,
		metadata:   meta,
		termFreq:   tf,
		terms:      sortedKeys(tf),
		totalTerms: total,
		indexedAt:  time.Now(),
		seq:        ix.seq,
	}
}

func removeParent(entries map[string]*entry, parentID string) int {
	n := 0
	for id, e := range entries {
		if e.parentID == parentID {
			delete(entries, id)
			n++
		}
	}
	return n
}

// buildSnapshot recomputes insertion order, IDF and entry norms.
func buildSnapshot(entries map[string]*entry) *snapshot {
	s := &snapshot{
		entries: entries,
		order:   make([]*entry, 0, len(entries)),
		idf:     make(map[string]float64),
		norms:   make(map[string]float64, len(entries)),
	}

	df := make(map[string]int)
	for _, e := range entries {
		s.order = append(s.order, e)
		s.terms += e.totalTerms
		for t := range e.termFreq {
			df[t]++
		}
	}
	sort.Slice(s.order, func(i, j int) bool {
		return s.order[i].seq < s.order[j].seq
	})

	n := float64(len(entries))
	for t, d := range df {
		s.idf[t] = math.Log(n / float64(d))
	}

	for _, e := range entries {
		sum := 0.0
		for _, t := range e.terms {
			w := float64(e.termFreq[t]) / float64(e.totalTerms) * s.idf[t]
			sum += w * w
		}
		s.norms[e.id] = math.Sqrt(sum)
	}
	return s
}

func matchedTerms(qtf map[string]int, e *entry) []string {
	matched := make([]string, 0, len(qtf))
	for _, t := range sortedKeys(qtf) {
		if _, ok := e.termFreq[t]; ok {
			matched = append(matched, t)
		}
	}
	return matched
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
