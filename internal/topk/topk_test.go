package topk

import "testing"

func TestInsertRespectsCapacity(t *testing.T) {
	q := New(2)
	if !q.Insert(1.0, 10) {
		t.Fatal("expected admission into non-full queue")
	}
	if !q.Insert(2.0, 11) {
		t.Fatal("expected admission into non-full queue")
	}
	if q.Insert(0.5, 12) {
		t.Fatal("lower score must not displace a full queue's minimum")
	}
	if !q.Insert(3.0, 13) {
		t.Fatal("higher score must displace the minimum once full")
	}
	if q.Len() != 2 {
		t.Fatalf("expected len 2, got %d", q.Len())
	}
}

func TestFinalizeOrdersDescendingWithDocIdTiebreak(t *testing.T) {
	q := New(3)
	q.Insert(3.0, 2)
	q.Insert(3.0, 5)
	q.Insert(1.0, 9)
	q.Finalize()
	got := q.TopK()
	want := []Entry{{3.0, 5}, {3.0, 2}, {1.0, 9}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestThresholdIsZeroUntilFull(t *testing.T) {
	q := New(2)
	if q.Threshold() != 0 {
		t.Fatal("empty queue threshold must be 0")
	}
	q.Insert(5.0, 1)
	if q.Threshold() != 0 {
		t.Fatal("non-full queue threshold must be 0")
	}
	q.Insert(1.0, 2)
	if q.Threshold() != 1.0 {
		t.Fatalf("full queue threshold should be the minimum, got %v", q.Threshold())
	}
}

func TestWouldEnter(t *testing.T) {
	q := New(1)
	if !q.WouldEnter(0.0) {
		t.Fatal("empty queue admits anything")
	}
	q.Insert(5.0, 1)
	if q.WouldEnter(5.0) {
		t.Fatal("equal score must not be admitted once full")
	}
	if !q.WouldEnter(5.1) {
		t.Fatal("strictly greater score must be admitted")
	}
}
