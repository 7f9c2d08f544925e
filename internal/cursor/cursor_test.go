package cursor

import (
	"testing"

	"github.com/salvocorp/rankcore/internal/index"
	"github.com/salvocorp/rankcore/internal/wand"
)

func fixtureCursor(t *testing.T) index.Cursor {
	t.Helper()
	b := index.NewMemoryBuilder()
	b.Add(1, 0, 2)
	b.Add(1, 2, 5)
	idx := b.Build(4)
	c, ok := idx.Open(1)
	if !ok {
		t.Fatal("expected term 1 present")
	}
	return c
}

func TestScoredCursorScore(t *testing.T) {
	docs := fixtureCursor(t)
	s := &Scored{Docs: docs, QWeight: 2, Scorer: func(_ DocId, freq uint32) float64 { return float64(freq) }}
	if got := s.Score(); got != 2 {
		t.Fatalf("Score() = %v, want 2 (freq at docid 0)", got)
	}
	s.Next()
	if s.DocId() != 2 || s.Score() != 5 {
		t.Fatalf("after Next: docid=%d score=%v, want (2,5)", s.DocId(), s.Score())
	}
}

func TestMaxScoredCursorMaxWeight(t *testing.T) {
	docs := fixtureCursor(t)
	m := NewMaxScored(docs, 3, func(_ DocId, freq uint32) float64 { return float64(freq) }, 5)
	if m.MaxWeight != 15 {
		t.Fatalf("MaxWeight = %v, want 15 (qWeight=3 * maxTermWeight=5)", m.MaxWeight)
	}
}

func TestBlockMaxScoredCursorUpperBound(t *testing.T) {
	postings := []index.Posting{{DocId: 0, Freq: 2}, {DocId: 2, Freq: 5}}
	score := func(_ DocId, freq uint32) float64 { return float64(freq) }
	b := wand.NewBuilder(4)
	b.AddTerm(1, postings, 2, score)
	data := b.Build()
	enum, _ := data.GetEnum(1)

	docs := fixtureCursor(t)
	bm := NewBlockMaxScored(docs, 2, score, 5, enum)
	if got := bm.BlockUpperBound(); got != 10 {
		t.Fatalf("BlockUpperBound = %v, want 10 (block max 5 * qWeight 2)", got)
	}
}
