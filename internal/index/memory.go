package index

import "sync"

// MemoryBuilder accumulates postings in memory and freezes into a read-only
// MemoryIndex. Grounded on the teacher's MemoryIndex
// (internal/indexer/index/memory_index.go), generalized from string
// term/doc keys to the core's TermId/DocId identifiers and from a
// positions-tracking inverted index to a frequency-only posting store.
type MemoryBuilder struct {
	mu       sync.Mutex
	postings map[TermId][]Posting
}

func NewMemoryBuilder() *MemoryBuilder {
	return &MemoryBuilder{postings: make(map[TermId][]Posting)}
}

// Add appends a (docid, freq) posting for term t. Postings must be added in
// strictly increasing docid order per term, matching the external collaborator's
// construction contract (§3: "a strictly increasing sequence").
func (b *MemoryBuilder) Add(t TermId, docid DocId, freq uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.postings[t] = append(b.postings[t], Posting{DocId: docid, Freq: freq})
}

// Build freezes the accumulated postings into a read-only MemoryIndex.
func (b *MemoryBuilder) Build(numDocs uint64) *MemoryIndex {
	b.mu.Lock()
	defer b.mu.Unlock()
	frozen := make(map[TermId][]Posting, len(b.postings))
	for t, list := range b.postings {
		frozen[t] = append([]Posting(nil), list...)
	}
	return &MemoryIndex{numDocs: numDocs, postings: frozen}
}

// MemoryIndex is a read-only, in-memory Index. Safe for concurrent use by
// multiple fusion workers, matching §5's "read-only, shared without
// locking" requirement — no mutex guards reads once built.
type MemoryIndex struct {
	numDocs  uint64
	postings map[TermId][]Posting
}

func (idx *MemoryIndex) NumDocs() uint64 { return idx.numDocs }

func (idx *MemoryIndex) Open(t TermId) (Cursor, bool) {
	list, ok := idx.postings[t]
	if !ok {
		return nil, false
	}
	return newSliceCursor(list, Sentinel(idx.numDocs)), true
}

// Warmup is a no-op for an in-memory index: there is nothing to prefault.
func (idx *MemoryIndex) Warmup(TermId) {}

// sliceCursor implements Cursor over an in-memory posting slice.
type sliceCursor struct {
	list     []Posting
	pos      int
	sentinel DocId
}

func newSliceCursor(list []Posting, sentinel DocId) *sliceCursor {
	return &sliceCursor{list: list, sentinel: sentinel}
}

func (c *sliceCursor) DocId() DocId {
	if c.pos >= len(c.list) {
		return c.sentinel
	}
	return c.list[c.pos].DocId
}

func (c *sliceCursor) Freq() uint32 {
	if c.pos >= len(c.list) {
		return 0
	}
	return c.list[c.pos].Freq
}

func (c *sliceCursor) Next() {
	if c.pos < len(c.list) {
		c.pos++
	}
}

func (c *sliceCursor) NextGEQ(target DocId) DocId {
	for c.pos < len(c.list) && c.list[c.pos].DocId < target {
		c.pos++
	}
	return c.DocId()
}

func (c *sliceCursor) Size() int { return len(c.list) }
