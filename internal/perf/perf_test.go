package perf

import (
	"errors"
	"testing"
)

func TestRunWarmsUpOnceAndDiscardsFirstRepetition(t *testing.T) {
	warmCalls := 0
	evalCalls := make([]int, 0)
	warm := func() { warmCalls++ }
	eval := func(i int) error {
		evalCalls = append(evalCalls, i)
		return nil
	}

	_, stats, err := Run(warm, eval, 3, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warmCalls != 1 {
		t.Fatalf("warm called %d times, want 1", warmCalls)
	}
	// 3 queries x (2 timed runs + 1 discarded) = 9 eval calls.
	if len(evalCalls) != 9 {
		t.Fatalf("eval called %d times, want 9", len(evalCalls))
	}
	if stats.MeanUsec < 0 {
		t.Fatalf("mean latency should be non-negative, got %v", stats.MeanUsec)
	}
}

func TestRunPropagatesEvalError(t *testing.T) {
	boom := errors.New("boom")
	eval := func(i int) error { return boom }
	_, _, err := Run(nil, eval, 1, 1)
	if !errors.Is(err, boom) {
		t.Fatalf("expected eval error to propagate, got %v", err)
	}
}

func TestPercentileClampsAtUpperBound(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	if got := percentile(sorted, 100); got != 5 {
		t.Fatalf("percentile(100) = %v, want 5", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("percentile of empty slice = %v, want 0", got)
	}
}
