package wand

import (
	"testing"

	"github.com/salvocorp/rankcore/internal/index"
)

func TestBuilderComputesMaxTermWeightAndBlocks(t *testing.T) {
	postings := []index.Posting{
		{DocId: 0, Freq: 1},
		{DocId: 1, Freq: 5},
		{DocId: 2, Freq: 2},
		{DocId: 3, Freq: 3},
	}
	score := func(_ DocId, freq uint32) float64 { return float64(freq) }

	b := NewBuilder(4)
	b.AddTerm(1, postings, 2, score)
	data := b.Build()

	if got := data.MaxTermWeight(1); got != 5 {
		t.Fatalf("MaxTermWeight = %v, want 5", got)
	}

	enum, ok := data.GetEnum(1)
	if !ok {
		t.Fatal("expected enumerator for term 1")
	}
	if enum.DocId() != 1 || enum.Score() != 5 {
		t.Fatalf("first block = (docid=%d,score=%v), want (1,5)", enum.DocId(), enum.Score())
	}
	enum.Next()
	if enum.DocId() != 3 || enum.Score() != 3 {
		t.Fatalf("second block = (docid=%d,score=%v), want (3,3)", enum.DocId(), enum.Score())
	}
}

func TestEnumeratorNextGEQSkipsBlocks(t *testing.T) {
	postings := []index.Posting{
		{DocId: 0, Freq: 1},
		{DocId: 1, Freq: 1},
		{DocId: 2, Freq: 9},
		{DocId: 3, Freq: 1},
	}
	score := func(_ DocId, freq uint32) float64 { return float64(freq) }
	b := NewBuilder(4)
	b.AddTerm(1, postings, 2, score)
	data := b.Build()

	enum, _ := data.GetEnum(1)
	docid := enum.NextGEQ(2)
	if docid != 3 {
		t.Fatalf("NextGEQ(2) landed on block ending at %d, want 3", docid)
	}
	if enum.Score() != 9 {
		t.Fatalf("block score = %v, want 9 (max of the block containing docid 2)", enum.Score())
	}
}

func TestMissingTermHasZeroMaxWeightAndNoEnum(t *testing.T) {
	data := NewBuilder(4).Build()
	if got := data.MaxTermWeight(99); got != 0 {
		t.Fatalf("MaxTermWeight(missing) = %v, want 0", got)
	}
	if _, ok := data.GetEnum(99); ok {
		t.Fatal("expected no enumerator for an unbuilt term")
	}
}
