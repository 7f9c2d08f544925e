package algorithm

import (
	"testing"

	"github.com/salvocorp/rankcore/internal/accumulator"
	"github.com/salvocorp/rankcore/internal/cursor"
	"github.com/salvocorp/rankcore/internal/index"
	"github.com/salvocorp/rankcore/internal/scorer"
	"github.com/salvocorp/rankcore/internal/topk"
	"github.com/salvocorp/rankcore/internal/wand"
)

const (
	termA = 1
	termB = 2
	termC = 3
)

// buildFixture constructs the S1/S3 index: term A postings [(0,2),(2,1),(3,3)],
// term B postings [(1,1),(2,2)], numDocs=4, identity scorer s(d,f)=f.
func buildFixture(t *testing.T, extraC bool) (*index.MemoryIndex, *wand.InMemory) {
	t.Helper()
	b := index.NewMemoryBuilder()
	b.Add(termA, 0, 2)
	b.Add(termA, 2, 1)
	b.Add(termA, 3, 3)
	b.Add(termB, 1, 1)
	b.Add(termB, 2, 2)
	if extraC {
		b.Add(termC, 0, 100)
	}
	idx := b.Build(4)

	wb := wand.NewBuilder(4)
	identity := func(_ index.DocId, freq uint32) float64 { return float64(freq) }
	for _, term := range []uint32{termA, termB, termC} {
		c, ok := idx.Open(term)
		if !ok {
			continue
		}
		var postings []index.Posting
		for c.DocId() != index.Sentinel(4) {
			postings = append(postings, index.Posting{DocId: c.DocId(), Freq: c.Freq()})
			c.Next()
		}
		wb.AddTerm(term, postings, 0, identity)
	}
	return idx, wb.Build()
}

func scoredCursors(t *testing.T, idx *index.MemoryIndex, terms []uint32) []*cursor.Scored {
	t.Helper()
	sc := scorer.Identity{}
	var cursors []*cursor.Scored
	for _, term := range terms {
		c, ok := idx.Open(term)
		if !ok {
			t.Fatalf("term %d not found", term)
		}
		cursors = append(cursors, &cursor.Scored{Docs: c, QWeight: 1, Scorer: sc.TermScorer(term)})
	}
	return cursors
}

func maxScoredCursors(t *testing.T, idx *index.MemoryIndex, wd *wand.InMemory, terms []uint32) []*cursor.MaxScored {
	t.Helper()
	sc := scorer.Identity{}
	var cursors []*cursor.MaxScored
	for _, term := range terms {
		c, ok := idx.Open(term)
		if !ok {
			t.Fatalf("term %d not found", term)
		}
		cursors = append(cursors, cursor.NewMaxScored(c, 1, sc.TermScorer(term), wd.MaxTermWeight(term)))
	}
	return cursors
}

func blockMaxScoredCursors(t *testing.T, idx *index.MemoryIndex, wd *wand.InMemory, terms []uint32) []*cursor.BlockMaxScored {
	t.Helper()
	sc := scorer.Identity{}
	var cursors []*cursor.BlockMaxScored
	for _, term := range terms {
		c, ok := idx.Open(term)
		if !ok {
			t.Fatalf("term %d not found", term)
		}
		w, ok := wd.GetEnum(term)
		if !ok {
			t.Fatalf("no wand enum for term %d", term)
		}
		cursors = append(cursors, cursor.NewBlockMaxScored(c, 1, sc.TermScorer(term), wd.MaxTermWeight(term), w))
	}
	return cursors
}

func entriesEqual(t *testing.T, got []topk.Entry, want []topk.Entry) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

// S1: ranked-OR baseline.
func TestScenarioS1RankedOrBaseline(t *testing.T) {
	idx, _ := buildFixture(t, false)
	cursors := scoredCursors(t, idx, []uint32{termA, termB})
	q := topk.New(3)
	RankedOr(cursors, index.Sentinel(idx.NumDocs()), q, nil)
	q.Finalize()
	entriesEqual(t, q.TopK(), []topk.Entry{{Score: 3, DocId: 3}, {Score: 3, DocId: 2}, {Score: 2, DocId: 0}})
}

// S2: WAND matches ranked-OR on the same input.
func TestScenarioS2WandMatchesOr(t *testing.T) {
	idx, wd := buildFixture(t, false)
	cursors := maxScoredCursors(t, idx, wd, []uint32{termA, termB})
	q := topk.New(3)
	WAND(cursors, index.Sentinel(idx.NumDocs()), q, nil)
	q.Finalize()
	entriesEqual(t, q.TopK(), []topk.Entry{{Score: 3, DocId: 3}, {Score: 3, DocId: 2}, {Score: 2, DocId: 0}})
}

// S3: MaxScore with an added term C at docid 0 (max_weight=100) must agree
// with the ranked-OR baseline and must not need to fully score docids 1-3
// to do so — docid 0 dominates by a wide margin once C's contribution is
// included alongside A's.
func TestScenarioS3MaxScoreSkipsNonEssential(t *testing.T) {
	idx, wd := buildFixture(t, true)
	maxDocId := index.Sentinel(idx.NumDocs())

	baseline := topk.New(1)
	baseStats := &Stats{}
	RankedOr(scoredCursors(t, idx, []uint32{termA, termB, termC}), maxDocId, baseline, baseStats)
	baseline.Finalize()

	q := topk.New(1)
	stats := &Stats{}
	MaxScore(maxScoredCursors(t, idx, wd, []uint32{termA, termB, termC}), maxDocId, q, stats)
	q.Finalize()
	entriesEqual(t, q.TopK(), baseline.TopK())
	if q.TopK()[0].DocId != 0 {
		t.Fatalf("expected docid 0 to dominate, got %+v", q.TopK()[0])
	}
	if stats.PostingsScanned >= baseStats.PostingsScanned {
		t.Fatalf("MaxScore scored %d postings, want fewer than ranked-OR's %d", stats.PostingsScanned, baseStats.PostingsScanned)
	}
}

// Property 1: WAND, Block-Max WAND, MaxScore, Block-Max MaxScore, and
// ranked-OR-TAAT agree with ranked-OR on the same fixture.
func TestAlgorithmEquivalence(t *testing.T) {
	idx, wd := buildFixture(t, true)
	terms := []uint32{termA, termB, termC}
	maxDocId := index.Sentinel(idx.NumDocs())

	baseline := topk.New(4)
	RankedOr(scoredCursors(t, idx, terms), maxDocId, baseline, nil)
	baseline.Finalize()
	want := baseline.TopK()

	wandQ := topk.New(4)
	WAND(maxScoredCursors(t, idx, wd, terms), maxDocId, wandQ, nil)
	wandQ.Finalize()
	entriesEqual(t, wandQ.TopK(), want)

	msQ := topk.New(4)
	MaxScore(maxScoredCursors(t, idx, wd, terms), maxDocId, msQ, nil)
	msQ.Finalize()
	entriesEqual(t, msQ.TopK(), want)

	bmwQ := topk.New(4)
	BlockMaxWAND(blockMaxScoredCursors(t, idx, wd, terms), maxDocId, bmwQ, nil)
	bmwQ.Finalize()
	entriesEqual(t, bmwQ.TopK(), want)

	bmmQ := topk.New(4)
	BlockMaxMaxScore(blockMaxScoredCursors(t, idx, wd, terms), maxDocId, bmmQ, nil)
	bmmQ.Finalize()
	entriesEqual(t, bmmQ.TopK(), want)

	taatQ := topk.New(4)
	RankedOrTaat(scoredCursors(t, idx, terms), maxDocId, accumulator.NewDense(idx.NumDocs()), taatQ, nil)
	taatQ.Finalize()
	entriesEqual(t, taatQ.TopK(), want)

	andQ := topk.New(4)
	RankedAnd(scoredCursors(t, idx, []uint32{termA}), maxDocId, andQ, nil)
	andQ.Finalize()
	if len(andQ.TopK()) == 0 {
		t.Fatal("expected ranked-and over a single term to behave like ranked-or over that term")
	}
}

func TestTopKMonotonicity(t *testing.T) {
	idx, _ := buildFixture(t, true)
	maxDocId := index.Sentinel(idx.NumDocs())
	terms := []uint32{termA, termB, termC}

	big := topk.New(4)
	RankedOr(scoredCursors(t, idx, terms), maxDocId, big, nil)
	big.Finalize()
	bigTop := big.TopK()

	small := topk.New(2)
	RankedOr(scoredCursors(t, idx, terms), maxDocId, small, nil)
	small.Finalize()
	smallTop := small.TopK()

	for i, e := range smallTop {
		if e != bigTop[i] {
			t.Fatalf("smaller-k result is not a prefix of larger-k result at index %d: %+v vs %+v", i, e, bigTop[i])
		}
	}
}

// weightedMaxScoredCursors builds MaxScored cursors with an explicit
// per-term query weight, simulating a qtf>1 duplicate term (e.g. term A
// appearing twice in a query gives QWeight=2 via query.Freqs/
// QueryTermWeight) without routing through the fusion/query packages.
func weightedMaxScoredCursors(t *testing.T, idx *index.MemoryIndex, wd *wand.InMemory, term uint32, qWeight float64) *cursor.MaxScored {
	t.Helper()
	sc := scorer.Identity{}
	c, ok := idx.Open(term)
	if !ok {
		t.Fatalf("term %d not found", term)
	}
	return cursor.NewMaxScored(c, qWeight, sc.TermScorer(term), wd.MaxTermWeight(term))
}

// TestQtfDoesNotAmplifyEssentialScoreButScalesBounds pins the qtf>1
// behavior documented in DESIGN.md's Open Question #3 correction: a
// duplicate query term raises QWeight (here set directly to 2, as
// query.Freqs/Evaluator.queryTermWeight would for a term occurring twice),
// which scales the WAND/MaxScore pivoting bound (MaxWeight) but does NOT
// get folded into cursor.Scored.Score() itself, so RankedOr and WAND still
// agree with each other under qtf=2 the same way they do under qtf=1.
func TestQtfDoesNotAmplifyEssentialScoreButScalesBounds(t *testing.T) {
	idx, wd := buildFixture(t, false)
	maxDocId := index.Sentinel(idx.NumDocs())

	qtf1 := weightedMaxScoredCursors(t, idx, wd, termA, 1)
	qtf2 := weightedMaxScoredCursors(t, idx, wd, termA, 2)
	if qtf2.MaxWeight != 2*qtf1.MaxWeight {
		t.Fatalf("MaxWeight should scale with QWeight: qtf1=%v qtf2=%v", qtf1.MaxWeight, qtf2.MaxWeight)
	}
	if qtf2.Score() != qtf1.Score() {
		t.Fatalf("Score() must not fold QWeight: qtf1=%v qtf2=%v", qtf1.Score(), qtf2.Score())
	}

	baseline := topk.New(4)
	RankedOr(scoredCursors(t, idx, []uint32{termA, termB}), maxDocId, baseline, nil)
	baseline.Finalize()

	weighted := topk.New(4)
	cursors := []*cursor.MaxScored{
		weightedMaxScoredCursors(t, idx, wd, termA, 2),
		weightedMaxScoredCursors(t, idx, wd, termB, 1),
	}
	WAND(cursors, maxDocId, weighted, nil)
	weighted.Finalize()

	entriesEqual(t, weighted.TopK(), baseline.TopK())
}
