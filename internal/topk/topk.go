// Package topk implements the bounded top-k admission queue shared by every
// pruning algorithm and the fusion driver.
package topk

import "sort"

// DocId mirrors the core's 32-bit document identifier.
type DocId = uint32

// Entry is a single (score, docid) admission into a Queue.
type Entry struct {
	Score float64
	DocId DocId
}

// Queue is a fixed-capacity min-heap of Entry, ordered on Score ascending
// so the minimum-scoring entry is always at index 0. It is grounded on the
// teacher's scoredDocHeap in internal/searcher/merger/merger.go, generalized
// to expose an O(1) Threshold and the would-enter/insert/finalize contract
// the pruning algorithms rely on.
type Queue struct {
	k         int
	heap      []Entry
	finalized bool
}

// New returns a Queue capped at k. k must be ≥ 1.
func New(k int) *Queue {
	return &Queue{k: k, heap: make([]Entry, 0, k)}
}

// Len returns the current number of admitted entries.
func (q *Queue) Len() int { return len(q.heap) }

// Full reports whether the queue has reached its capacity.
func (q *Queue) Full() bool { return len(q.heap) >= q.k }

// Threshold returns the minimum score currently held, or 0 if the queue is
// not yet full (an empty queue also reads 0). Must stay O(1): it returns
// heap[0] directly rather than scanning.
func (q *Queue) Threshold() float64 {
	if len(q.heap) < q.k || len(q.heap) == 0 {
		return 0
	}
	return q.heap[0].Score
}

// WouldEnter reports whether a candidate score would be admitted: the heap
// has room, or the score beats the current minimum.
func (q *Queue) WouldEnter(score float64) bool {
	if len(q.heap) < q.k {
		return true
	}
	return score > q.heap[0].Score
}

// Insert admits (score, docid) iff WouldEnter(score), evicting the current
// minimum when the heap is already full. Returns whether admission occurred.
func (q *Queue) Insert(score float64, docid DocId) bool {
	if !q.WouldEnter(score) {
		return false
	}
	if len(q.heap) < q.k {
		q.heap = append(q.heap, Entry{Score: score, DocId: docid})
		q.siftUp(len(q.heap) - 1)
		return true
	}
	q.heap[0] = Entry{Score: score, DocId: docid}
	q.siftDown(0)
	return true
}

// Finalize sorts the admitted entries by score descending, breaking ties by
// docid descending, and freezes further mutation semantics for TopK. This
// matches topk_queue::finalize's std::sort(..., std::greater<>()) over
// pair<float,docid> in the original implementation: std::greater<> on a
// pair compares the second element descending too once scores tie.
func (q *Queue) Finalize() {
	sort.Slice(q.heap, func(i, j int) bool {
		if q.heap[i].Score != q.heap[j].Score {
			return q.heap[i].Score > q.heap[j].Score
		}
		return q.heap[i].DocId > q.heap[j].DocId
	})
	q.finalized = true
}

// TopK returns a snapshot of the current entries. Call Finalize first for a
// sorted view; otherwise the order is heap order.
func (q *Queue) TopK() []Entry {
	out := make([]Entry, len(q.heap))
	copy(out, q.heap)
	return out
}

func (q *Queue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if q.heap[parent].Score <= q.heap[i].Score {
			break
		}
		q.heap[parent], q.heap[i] = q.heap[i], q.heap[parent]
		i = parent
	}
}

func (q *Queue) siftDown(i int) {
	n := len(q.heap)
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < n && q.heap[left].Score < q.heap[smallest].Score {
			smallest = left
		}
		if right < n && q.heap[right].Score < q.heap[smallest].Score {
			smallest = right
		}
		if smallest == i {
			return
		}
		q.heap[i], q.heap[smallest] = q.heap[smallest], q.heap[i]
		i = smallest
	}
}
