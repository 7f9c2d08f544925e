package index

import "testing"

func TestMemoryIndexOpenAndCursor(t *testing.T) {
	b := NewMemoryBuilder()
	b.Add(1, 0, 2)
	b.Add(1, 2, 1)
	b.Add(1, 5, 3)
	idx := b.Build(8)

	c, ok := idx.Open(1)
	if !ok {
		t.Fatal("expected term 1 to be present")
	}
	if c.Size() != 3 {
		t.Fatalf("size = %d, want 3", c.Size())
	}
	if c.DocId() != 0 || c.Freq() != 2 {
		t.Fatalf("first posting = (%d,%d), want (0,2)", c.DocId(), c.Freq())
	}
	c.Next()
	if c.DocId() != 2 {
		t.Fatalf("docid after next = %d, want 2", c.DocId())
	}
}

func TestMemoryIndexOpenMissingTerm(t *testing.T) {
	idx := NewMemoryBuilder().Build(4)
	if _, ok := idx.Open(99); ok {
		t.Fatal("expected missing term to report not-ok")
	}
}

func TestMemoryIndexCursorNextGEQ(t *testing.T) {
	b := NewMemoryBuilder()
	b.Add(1, 0, 1)
	b.Add(1, 3, 1)
	b.Add(1, 7, 1)
	idx := b.Build(10)
	c, _ := idx.Open(1)
	got := c.NextGEQ(5)
	if got != 7 {
		t.Fatalf("NextGEQ(5) = %d, want 7", got)
	}
}

func TestMemoryIndexCursorReachesSentinel(t *testing.T) {
	b := NewMemoryBuilder()
	b.Add(1, 0, 1)
	idx := b.Build(4)
	c, _ := idx.Open(1)
	c.Next()
	if c.DocId() != Sentinel(4) {
		t.Fatalf("exhausted cursor docid = %d, want sentinel %d", c.DocId(), Sentinel(4))
	}
}
