package fusion

import (
	"context"
	"testing"

	"github.com/salvocorp/rankcore/internal/algorithm"
	"github.com/salvocorp/rankcore/internal/index"
	"github.com/salvocorp/rankcore/internal/query"
	"github.com/salvocorp/rankcore/internal/scorer"
	"github.com/salvocorp/rankcore/internal/topk"
)

const (
	termA = 1
	termB = 2
)

func newEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	b := index.NewMemoryBuilder()
	b.Add(termA, 0, 2)
	b.Add(termA, 2, 1)
	b.Add(termA, 3, 3)
	b.Add(termB, 1, 1)
	b.Add(termB, 2, 2)
	idx := b.Build(4)
	return &Evaluator{Index: idx, Scorer: scorer.Identity{}}
}

func entriesEqual(t *testing.T, got, want []topk.Entry) {
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

// S4: CombSUM fusion of two single-term variants.
func TestScenarioS4CombSUM(t *testing.T) {
	eval := newEvaluator(t)
	driver := &Driver{Evaluator: eval}
	mq := query.MultiQuery{
		Id: "q1",
		Variants: []query.Query{
			{Id: "q1", Terms: []query.TermId{termA}},
			{Id: "q1", Terms: []query.TermId{termB}},
		},
	}
	got, err := driver.CombSUM(context.Background(), mq, 2, 3, algorithm.RankedOrName)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// q1=[A] top-2: [(3,docid=3),(2,docid=0)]; q2=[B] top-2: [(2,docid=2),(1,docid=1)].
	// accumulator: {3:3, 0:2, 2:2, 1:1} -> fused top-3 [(3,3),(2,2),(2,0)]
	// (score-2 tie breaks docid descending, per topk.Queue.Finalize).
	entriesEqual(t, got, []topk.Entry{{Score: 3, DocId: 3}, {Score: 2, DocId: 2}, {Score: 2, DocId: 0}})
}

// S5: SP-CS on the same MultiQuery as S4 flattens to [A,B] and matches S1.
func TestScenarioS5SPCS(t *testing.T) {
	eval := newEvaluator(t)
	driver := &Driver{Evaluator: eval}
	mq := query.MultiQuery{
		Id: "q1",
		Variants: []query.Query{
			{Id: "q1", Terms: []query.TermId{termA}},
			{Id: "q1", Terms: []query.TermId{termB}},
		},
	}
	got, err := driver.SPCS(mq, 3, algorithm.RankedOrName)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entriesEqual(t, got, []topk.Entry{{Score: 3, DocId: 3}, {Score: 3, DocId: 2}, {Score: 2, DocId: 0}})
}

// Property 7: for single-term variants, SP-CS equals CombSUM.
func TestSPCSEqualsCombSUMForSingleTermVariants(t *testing.T) {
	eval := newEvaluator(t)
	driver := &Driver{Evaluator: eval}
	mq := query.MultiQuery{
		Id: "q1",
		Variants: []query.Query{
			{Id: "q1", Terms: []query.TermId{termA}},
			{Id: "q1", Terms: []query.TermId{termB}},
		},
	}
	combsum, err := driver.CombSUM(context.Background(), mq, 4, 4, algorithm.RankedOrName)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	spcs, err := driver.SPCS(mq, 4, algorithm.RankedOrName)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entriesEqual(t, spcs, combsum)
}

// S6: a query of only stop-words yields an empty top-k (no cursors built).
func TestScenarioS6EmptyAfterStopwords(t *testing.T) {
	eval := newEvaluator(t)
	got, err := eval.Eval(query.Query{Id: "q1", Terms: nil}, algorithm.RankedOrName, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty top-k, got %v", got)
	}
}

func TestCombSUMRejectsEmptyMultiQuery(t *testing.T) {
	eval := newEvaluator(t)
	driver := &Driver{Evaluator: eval}
	_, err := driver.CombSUM(context.Background(), query.MultiQuery{Id: "q1"}, 2, 2, algorithm.RankedOrName)
	if err == nil {
		t.Fatal("expected error for empty multiquery")
	}
}
