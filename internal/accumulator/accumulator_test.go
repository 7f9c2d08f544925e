package accumulator

import (
	"testing"

	"github.com/salvocorp/rankcore/internal/topk"
)

func topkSet(q *topk.Queue) map[topk.DocId]float64 {
	out := make(map[topk.DocId]float64)
	for _, e := range q.TopK() {
		out[e.DocId] = e.Score
	}
	return out
}

func TestDenseAccumulateSumsPerDoc(t *testing.T) {
	d := NewDense(8)
	d.Init()
	d.Accumulate(3, 1.5)
	d.Accumulate(5, 2)
	d.Accumulate(3, 0.5)

	q := topk.New(8)
	d.Aggregate(q)
	got := topkSet(q)
	if got[3] != 2 {
		t.Fatalf("docid 3 score = %v, want 2", got[3])
	}
	if got[5] != 2 {
		t.Fatalf("docid 5 score = %v, want 2", got[5])
	}
	if len(got) != 2 {
		t.Fatalf("aggregated %d docs, want 2", len(got))
	}
}

func TestDenseInitClearsPriorQueryState(t *testing.T) {
	d := NewDense(8)
	d.Init()
	d.Accumulate(1, 9)

	d.Init()
	d.Accumulate(2, 4)

	q := topk.New(8)
	d.Aggregate(q)
	got := topkSet(q)
	if _, touched := got[1]; touched {
		t.Fatalf("docid 1 should not carry over across Init, got %v", got)
	}
	if got[2] != 4 {
		t.Fatalf("docid 2 score = %v, want 4", got[2])
	}
}

func TestLazyAccumulateSumsWithinBlock(t *testing.T) {
	l := NewLazy(16, 4)
	l.Init()
	l.Accumulate(1, 1)
	l.Accumulate(1, 2)
	l.Accumulate(2, 5)

	q := topk.New(16)
	l.Aggregate(q)
	got := topkSet(q)
	if got[1] != 3 {
		t.Fatalf("docid 1 score = %v, want 3", got[1])
	}
	if got[2] != 5 {
		t.Fatalf("docid 2 score = %v, want 5", got[2])
	}
}

func TestLazyInitBumpsGenerationAndResetsStaleBlockOnWrite(t *testing.T) {
	l := NewLazy(16, 4)
	l.Init()
	l.Accumulate(1, 10) // block 0, generation 1
	l.Accumulate(2, 7)  // block 0, generation 1

	l.Init() // generation 2, touched list cleared
	l.Accumulate(2, 1) // same block 0, stale generation -> zero-filled before adding

	q := topk.New(16)
	l.Aggregate(q)
	got := topkSet(q)
	if _, stale := got[1]; stale {
		t.Fatalf("docid 1 from a prior generation should not be aggregated, got %v", got)
	}
	if got[2] != 1 {
		t.Fatalf("docid 2 score = %v, want 1 (block should have been zero-filled, not polluted by docid 2's generation-1 value)", got[2])
	}
}

func TestLazyAccumulateAcrossBlocksIndependent(t *testing.T) {
	l := NewLazy(16, 4)
	l.Init()
	l.Accumulate(0, 1)  // block 0
	l.Accumulate(4, 2)  // block 1
	l.Accumulate(8, 3)  // block 2

	q := topk.New(16)
	l.Aggregate(q)
	got := topkSet(q)
	if got[0] != 1 || got[4] != 2 || got[8] != 3 {
		t.Fatalf("unexpected cross-block scores: %v", got)
	}
}
