// Package cursor implements the ScoredCursor/MaxScoredCursor/
// BlockMaxScoredCursor family, grounded structurally on
// block_max_scored_cursor.hpp (_examples/original_source/include/pisa/
// cursor/block_max_scored_cursor.hpp) but expressed as struct embedding
// rather than C++ template instantiation, per spec.md §9's preference for
// static polymorphism over virtual dispatch in tight inner loops.
package cursor

import (
	"github.com/salvocorp/rankcore/internal/index"
	"github.com/salvocorp/rankcore/internal/scorer"
	"github.com/salvocorp/rankcore/internal/wand"
)

type DocId = index.DocId
type TermId = index.TermId

// Scored pairs a posting cursor with the query-term weight and the
// term-specific scorer closure.
type Scored struct {
	Docs    index.Cursor
	QWeight float64
	Scorer  scorer.TermScorer
}

func (c *Scored) DocId() DocId               { return c.Docs.DocId() }
func (c *Scored) Freq() uint32               { return c.Docs.Freq() }
func (c *Scored) Next()                      { c.Docs.Next() }
func (c *Scored) NextGEQ(target DocId) DocId { return c.Docs.NextGEQ(target) }
func (c *Scored) Score() float64             { return c.Scorer(c.DocId(), c.Freq()) }

// MaxScored adds the term's global maximum weight, scaled by the query
// weight — the upper bound the MaxScore/WAND family pivots on.
type MaxScored struct {
	Scored
	MaxWeight float64
}

// NewMaxScored builds a MaxScored cursor; maxWeight = qWeight * maxTermWeight.
func NewMaxScored(docs index.Cursor, qWeight float64, sc scorer.TermScorer, maxTermWeight float64) *MaxScored {
	return &MaxScored{
		Scored:    Scored{Docs: docs, QWeight: qWeight, Scorer: sc},
		MaxWeight: qWeight * maxTermWeight,
	}
}

// BlockMaxScored adds a wand block-max enumerator to MaxScored, used by
// Block-Max WAND and Block-Max MaxScore.
type BlockMaxScored struct {
	MaxScored
	W wand.Enumerator
}

func NewBlockMaxScored(docs index.Cursor, qWeight float64, sc scorer.TermScorer, maxTermWeight float64, w wand.Enumerator) *BlockMaxScored {
	return &BlockMaxScored{
		MaxScored: *NewMaxScored(docs, qWeight, sc, maxTermWeight),
		W:         w,
	}
}

// BlockUpperBound returns the current block's upper bound on this term's
// contribution: w.Score() scaled by q_weight, matching §3's
// "w.score() ≥ any term score on any doc in that block" invariant once
// scaled.
func (c *BlockMaxScored) BlockUpperBound() float64 {
	return c.W.Score() * c.QWeight
}
