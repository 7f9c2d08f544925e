package scorer

import (
	"math"
	"testing"
)

func TestIdentityScorerReturnsFreq(t *testing.T) {
	s := Identity{}
	ts := s.TermScorer(1)
	if got := ts(0, 7); got != 7 {
		t.Fatalf("score = %v, want 7", got)
	}
}

func TestIdentityQueryTermWeightIsQtf(t *testing.T) {
	s := Identity{}
	if got := s.QueryTermWeight(3, 10, 100); got != 3 {
		t.Fatalf("QueryTermWeight = %v, want 3", got)
	}
}

func TestBM25ScoresHigherForRarerTerms(t *testing.T) {
	docLen := func(DocId) uint32 { return 10 }
	numDocs := uint64(100)

	common := NewBM25(numDocs, 10, docLen, func(TermId) int { return 90 })
	rare := NewBM25(numDocs, 10, docLen, func(TermId) int { return 2 })

	commonScore := common.TermScorer(1)(0, 3)
	rareScore := rare.TermScorer(1)(0, 3)

	if rareScore <= commonScore {
		t.Fatalf("rare-term score %v should exceed common-term score %v", rareScore, commonScore)
	}
}

func TestBM25ZeroWhenTermInEveryOrNoDocument(t *testing.T) {
	docLen := func(DocId) uint32 { return 10 }
	numDocs := uint64(50)

	s := NewBM25(numDocs, 10, docLen, func(TermId) int { return 0 })
	if got := s.TermScorer(1)(0, 5); got != 0 {
		t.Fatalf("score with df=0 = %v, want 0", got)
	}

	s2 := NewBM25(numDocs, 10, docLen, func(TermId) int { return int(numDocs) })
	if got := s2.TermScorer(1)(0, 5); got != 0 {
		t.Fatalf("score with df=N = %v, want 0", got)
	}
}

func TestBM25SaturatesWithIncreasingTermFrequency(t *testing.T) {
	docLen := func(DocId) uint32 { return 10 }
	s := NewBM25(100, 10, docLen, func(TermId) int { return 10 })
	ts := s.TermScorer(1)

	low := ts(0, 1)
	high := ts(0, 100)
	if high <= low {
		t.Fatalf("higher tf should score higher: low=%v high=%v", low, high)
	}
	// BM25's tf component is bounded by idf*(k1+1); confirm it doesn't diverge.
	bound := math.Log(100.0/10.0) * (0.9 + 1)
	if high > bound+1e-9 {
		t.Fatalf("BM25 score %v exceeded its asymptotic bound %v", high, bound)
	}
}
