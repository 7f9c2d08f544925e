// Package wand implements the WandMetadata capability: per-term maximum
// score upper bounds and a block-wise enumerator exposing block-max upper
// bounds, grounded on block_max_scored_cursor.hpp's wdata.getenum/
// max_term_weight usage (_examples/original_source/include/pisa/cursor/
// block_max_scored_cursor.hpp).
package wand

import "github.com/salvocorp/rankcore/internal/index"

type DocId = index.DocId
type TermId = index.TermId

// Block is one block's docid range and upper-bound score for a term.
type Block struct {
	LastDocId DocId   // last docid covered by this block (inclusive)
	MaxScore  float64 // unscaled upper bound of the term's score within the block
}

// Enumerator walks a single term's blocks. Grounded on the "wand
// enumerator" contract of spec.md §3: docid() (last docid of the current
// block), score() (block upper bound), next_geq(target), next().
type Enumerator interface {
	DocId() DocId
	Score() float64
	NextGEQ(target DocId) DocId
	Next()
}

// Data is the WandMetadata capability: max_term_weight(t), norm_len(d),
// and getenum(t).
type Data interface {
	MaxTermWeight(t TermId) float64
	NormLen(d DocId) float64
	GetEnum(t TermId) (Enumerator, bool)
}

// InMemory is a reference WandData built directly from posting lists
// (no compression, no on-disk block-max codec — those are explicitly out
// of scope). The blockSize passed to Builder.AddTerm controls how many
// postings each block covers.
type InMemory struct {
	maxWeight map[TermId]float64
	blocks    map[TermId][]Block
	norms     []float64
	sentinel  DocId
}

// Builder accumulates per-term block-max metadata (via AddTerm) and
// optional per-document normalized lengths (via SetNormLens; nil when the
// scorer does not need them), then freezes them into an InMemory with Build.
type Builder struct {
	maxWeight map[TermId]float64
	blocks    map[TermId][]Block
	norms     []float64
	sentinel  DocId
}

func NewBuilder(numDocs uint64) *Builder {
	return &Builder{
		maxWeight: make(map[TermId]float64),
		blocks:    make(map[TermId][]Block),
		sentinel:  index.Sentinel(numDocs),
	}
}

// AddTerm computes max_term_weight and block-max metadata for term t from
// its postings, scored by score(docid, freq), partitioned into blocks of
// blockSize postings (a non-positive blockSize puts the whole list in one
// block).
func (b *Builder) AddTerm(t TermId, postings []index.Posting, blockSize int, score func(docid DocId, freq uint32) float64) {
	if blockSize <= 0 {
		blockSize = len(postings)
		if blockSize == 0 {
			blockSize = 1
		}
	}
	var maxWeight float64
	blocks := make([]Block, 0, len(postings)/blockSize+1)
	for start := 0; start < len(postings); start += blockSize {
		end := start + blockSize
		if end > len(postings) {
			end = len(postings)
		}
		var blockMax float64
		for _, p := range postings[start:end] {
			s := score(p.DocId, p.Freq)
			if s > blockMax {
				blockMax = s
			}
			if s > maxWeight {
				maxWeight = s
			}
		}
		blocks = append(blocks, Block{LastDocId: postings[end-1].DocId, MaxScore: blockMax})
	}
	b.maxWeight[t] = maxWeight
	b.blocks[t] = blocks
}

// SetNormLens records per-document normalized lengths (e.g. doclen/avgdoclen).
func (b *Builder) SetNormLens(norms []float64) { b.norms = norms }

func (b *Builder) Build() *InMemory {
	return &InMemory{maxWeight: b.maxWeight, blocks: b.blocks, norms: b.norms, sentinel: b.sentinel}
}

func (d *InMemory) MaxTermWeight(t TermId) float64 { return d.maxWeight[t] }

func (d *InMemory) NormLen(doc DocId) float64 {
	if int(doc) >= len(d.norms) {
		return 0
	}
	return d.norms[doc]
}

func (d *InMemory) GetEnum(t TermId) (Enumerator, bool) {
	blocks, ok := d.blocks[t]
	if !ok {
		return nil, false
	}
	return &blockEnum{blocks: blocks, sentinel: d.sentinel}, true
}

type blockEnum struct {
	blocks   []Block
	pos      int
	sentinel DocId
}

func (e *blockEnum) DocId() DocId {
	if e.pos >= len(e.blocks) {
		return e.sentinel
	}
	return e.blocks[e.pos].LastDocId
}

func (e *blockEnum) Score() float64 {
	if e.pos >= len(e.blocks) {
		return 0
	}
	return e.blocks[e.pos].MaxScore
}

func (e *blockEnum) Next() {
	if e.pos < len(e.blocks) {
		e.pos++
	}
}

func (e *blockEnum) NextGEQ(target DocId) DocId {
	for e.pos < len(e.blocks) && e.blocks[e.pos].LastDocId < target {
		e.pos++
	}
	return e.DocId()
}
