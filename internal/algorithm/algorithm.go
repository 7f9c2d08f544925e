// Package algorithm implements the seven dynamic-pruning top-k evaluation
// algorithms over the closed set named in spec.md §6: wand, block_max_wand,
// block_max_maxscore, ranked_or, maxscore, ranked_and, ranked_or_taat.
// Grounded primarily on spec.md §4.3's algorithmic prose, cross-checked
// against _examples/original_source/include/pisa/query/algorithm/
// block_max_maxscore_query.hpp and ranked_or_taat_query.hpp (the two
// algorithm headers retrieved into the pack) for structural fidelity.
package algorithm

import (
	"fmt"
	"sort"

	"github.com/salvocorp/rankcore/internal/accumulator"
	"github.com/salvocorp/rankcore/internal/cursor"
	"github.com/salvocorp/rankcore/internal/topk"
)

type DocId = topk.DocId

// Name is one of the closed set of algorithm values accepted at the CLI
// boundary (-a/--algorithm).
type Name string

const (
	WANDName             Name = "wand"
	BlockMaxWANDName     Name = "block_max_wand"
	BlockMaxMaxScoreName Name = "block_max_maxscore"
	RankedOrName         Name = "ranked_or"
	MaxScoreName         Name = "maxscore"
	RankedAndName        Name = "ranked_and"
	RankedOrTaatName     Name = "ranked_or_taat"
)

// Names lists every valid algorithm value, in CLI-documentation order.
var Names = []Name{WANDName, BlockMaxWANDName, BlockMaxMaxScoreName, RankedOrName, MaxScoreName, RankedAndName, RankedOrTaatName}

// Valid reports whether name belongs to the closed algorithm set.
func Valid(name Name) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

func (n Name) String() string { return string(n) }

// ParseName validates a raw CLI string against the closed set, fatal per
// spec.md §7 ("Unknown index type / algorithm: fatal at startup").
func ParseName(raw string) (Name, error) {
	n := Name(raw)
	if !Valid(n) {
		return "", fmt.Errorf("unknown algorithm %q (valid: %v)", raw, Names)
	}
	return n, nil
}

// Stats accumulates optional per-invocation instrumentation counters for
// the Prometheus bindings in pkg/metrics (postings scanned, pivot
// advances, block-max skips). A nil *Stats is always a valid argument —
// every algorithm function is a no-op on its counters when passed nil, so
// callers that don't care about instrumentation pay nothing for it.
type Stats struct {
	PostingsScanned int64
	PivotMoves      int64
	BlocksSkipped   int64
}

func (s *Stats) scanned(n int64) {
	if s != nil {
		s.PostingsScanned += n
	}
}

func (s *Stats) pivotMove() {
	if s != nil {
		s.PivotMoves++
	}
}

func (s *Stats) blockSkip() {
	if s != nil {
		s.BlocksSkipped++
	}
}

func minEssentialDocId[C interface{ DocId() DocId }](ordered []C, from int, maxDocId DocId) DocId {
	m := maxDocId
	for i := from; i < len(ordered); i++ {
		if d := ordered[i].DocId(); d < m {
			m = d
		}
	}
	return m
}

// RankedOr is the baseline DAAT algorithm (§4.3.1): every algorithm must
// produce results bit-identical (up to summation order) to this one.
func RankedOr(cursors []*cursor.Scored, maxDocId DocId, q *topk.Queue, stats *Stats) {
	if len(cursors) == 0 {
		return
	}
	for {
		curDoc := minEssentialDocId(cursors, 0, maxDocId)
		if curDoc >= maxDocId {
			return
		}
		var score float64
		for _, c := range cursors {
			if c.DocId() == curDoc {
				score += c.Score()
				stats.scanned(1)
				c.Next()
			}
		}
		q.Insert(score, curDoc)
	}
}

// RankedAnd (§4.3.2) scores only docids on which every cursor agrees,
// converging via repeated next_geq(max(docid_i)).
func RankedAnd(cursors []*cursor.Scored, maxDocId DocId, q *topk.Queue, stats *Stats) {
	if len(cursors) == 0 {
		return
	}
	for {
		target := DocId(0)
		for _, c := range cursors {
			if c.DocId() > target {
				target = c.DocId()
			}
		}
		if target >= maxDocId {
			return
		}
		allMatch := true
		for _, c := range cursors {
			if c.DocId() < target {
				nd := c.NextGEQ(target)
				if nd >= maxDocId {
					return
				}
				if nd != target {
					allMatch = false
				}
			}
		}
		if !allMatch {
			continue
		}
		var score float64
		for _, c := range cursors {
			score += c.Score()
			stats.scanned(1)
		}
		q.Insert(score, target)
		for _, c := range cursors {
			c.Next()
		}
	}
}

// MaxScore (§4.3.3): essential/non-essential partition by ascending
// max_weight, prefix-summed upper bounds gate early termination of the
// non-essential pass.
func MaxScore(cursors []*cursor.MaxScored, maxDocId DocId, q *topk.Queue, stats *Stats) {
	n := len(cursors)
	if n == 0 {
		return
	}
	ordered := append([]*cursor.MaxScored(nil), cursors...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].MaxWeight < ordered[j].MaxWeight })
	U := make([]float64, n)
	var running float64
	for i := 0; i < n; i++ {
		running += ordered[i].MaxWeight
		U[i] = running
	}

	nonEssential := 0
	curDoc := minEssentialDocId(ordered, nonEssential, maxDocId)
	for {
		if nonEssential == n || curDoc >= maxDocId {
			return
		}
		var score float64
		nextDoc := maxDocId
		for i := nonEssential; i < n; i++ {
			c := ordered[i]
			if c.DocId() == curDoc {
				score += c.Score()
				stats.scanned(1)
				c.Next()
			}
			if c.DocId() < nextDoc {
				nextDoc = c.DocId()
			}
		}

		remaining := float64(0)
		if nonEssential > 0 {
			remaining = U[nonEssential-1]
		}
		for i := nonEssential - 1; i >= 0; i-- {
			c := ordered[i]
			if d := c.NextGEQ(curDoc); d == curDoc {
				score += c.Score()
				stats.scanned(1)
			}
			remaining -= c.MaxWeight
			if !q.WouldEnter(score + remaining) {
				break
			}
		}

		if q.Insert(score, curDoc) {
			for nonEssential < n && !q.WouldEnter(U[nonEssential]) {
				nonEssential++
			}
		}
		curDoc = nextDoc
	}
}

// WAND (§4.3.4): with cursors ordered by current docid, pivot on the
// shortest prefix whose summed max_weight exceeds the current threshold;
// cursors after the pivot that sit on the same docid join the pivot.
func WAND(cursors []*cursor.MaxScored, maxDocId DocId, q *topk.Queue, stats *Stats) {
	n := len(cursors)
	if n == 0 {
		return
	}
	list := append([]*cursor.MaxScored(nil), cursors...)
	for {
		sort.Slice(list, func(i, j int) bool { return list[i].DocId() < list[j].DocId() })
		if list[0].DocId() >= maxDocId {
			return
		}
		threshold := q.Threshold()
		pivot := -1
		var sum float64
		for i := 0; i < n; i++ {
			sum += list[i].MaxWeight
			if sum > threshold {
				pivot = i
				break
			}
		}
		if pivot == -1 {
			return
		}
		pivotDoc := list[pivot].DocId()
		for pivot+1 < n && list[pivot+1].DocId() == pivotDoc {
			pivot++
		}
		stats.pivotMove()

		allAtPivot := true
		for i := 0; i < pivot; i++ {
			if list[i].DocId() != pivotDoc {
				allAtPivot = false
				break
			}
		}
		if allAtPivot {
			var score float64
			for i := 0; i <= pivot; i++ {
				if list[i].DocId() == pivotDoc {
					score += list[i].Score()
					stats.scanned(1)
					list[i].Next()
				}
			}
			q.Insert(score, pivotDoc)
		} else {
			list[0].NextGEQ(pivotDoc)
		}
	}
}

// BlockMaxWAND (§4.3.5): WAND's pivot selection, refined by the block-max
// sum before committing to a full scoring pass.
func BlockMaxWAND(cursors []*cursor.BlockMaxScored, maxDocId DocId, q *topk.Queue, stats *Stats) {
	n := len(cursors)
	if n == 0 {
		return
	}
	list := append([]*cursor.BlockMaxScored(nil), cursors...)
	for {
		sort.Slice(list, func(i, j int) bool { return list[i].DocId() < list[j].DocId() })
		if list[0].DocId() >= maxDocId {
			return
		}
		threshold := q.Threshold()
		pivot := -1
		var sum float64
		for i := 0; i < n; i++ {
			sum += list[i].MaxWeight
			if sum > threshold {
				pivot = i
				break
			}
		}
		if pivot == -1 {
			return
		}
		pivotDoc := list[pivot].DocId()
		for pivot+1 < n && list[pivot+1].DocId() == pivotDoc {
			pivot++
		}
		stats.pivotMove()

		var blockSum float64
		minBlockDoc := maxDocId
		for i := 0; i <= pivot; i++ {
			bd := list[i].W.NextGEQ(pivotDoc)
			blockSum += list[i].W.Score() * list[i].QWeight
			if bd < minBlockDoc {
				minBlockDoc = bd
			}
		}
		if blockSum <= threshold {
			stats.blockSkip()
			list[0].NextGEQ(minBlockDoc + 1)
			continue
		}

		allAtPivot := true
		for i := 0; i < pivot; i++ {
			if list[i].DocId() != pivotDoc {
				allAtPivot = false
				break
			}
		}
		if allAtPivot {
			var score float64
			for i := 0; i <= pivot; i++ {
				if list[i].DocId() == pivotDoc {
					score += list[i].Score()
					stats.scanned(1)
					list[i].Next()
				}
			}
			q.Insert(score, pivotDoc)
		} else {
			list[0].NextGEQ(pivotDoc)
		}
	}
}

// BlockMaxMaxScore (§4.3.6): MaxScore's outer structure with the
// non-essential pass replaced by the two named routines spec.md calls
// out explicitly.
func BlockMaxMaxScore(cursors []*cursor.BlockMaxScored, maxDocId DocId, q *topk.Queue, stats *Stats) {
	n := len(cursors)
	if n == 0 {
		return
	}
	ordered := append([]*cursor.BlockMaxScored(nil), cursors...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].MaxWeight < ordered[j].MaxWeight })
	U := make([]float64, n)
	var running float64
	for i := 0; i < n; i++ {
		running += ordered[i].MaxWeight
		U[i] = running
	}

	nonEssential := 0
	curDoc := minEssentialDocId(ordered, nonEssential, maxDocId)
	for {
		if nonEssential == n || curDoc >= maxDocId {
			return
		}
		var score float64
		nextDoc := maxDocId
		for i := nonEssential; i < n; i++ {
			c := ordered[i]
			if c.DocId() == curDoc {
				score += c.Score()
				stats.scanned(1)
				c.Next()
			}
			if c.DocId() < nextDoc {
				nextDoc = c.DocId()
			}
		}

		bound := currentBlockUpperBound(ordered, nonEssential, U, curDoc, score, q)
		if q.WouldEnter(score + bound) {
			score = scoreNonEssential(ordered, nonEssential, curDoc, score, bound, q, stats)
		} else {
			stats.blockSkip()
		}

		if q.Insert(score, curDoc) {
			for nonEssential < n && !q.WouldEnter(U[nonEssential]) {
				nonEssential++
			}
		}
		curDoc = nextDoc
	}
}

// currentBlockUpperBound refines U[non_essential-1] with each non-essential
// term's block-max share in place of its global max_weight, breaking early
// once admission becomes impossible.
func currentBlockUpperBound(ordered []*cursor.BlockMaxScored, nonEssential int, U []float64, curDoc DocId, score float64, q *topk.Queue) float64 {
	bound := float64(0)
	if nonEssential > 0 {
		bound = U[nonEssential-1]
	}
	for i := nonEssential - 1; i >= 0; i-- {
		c := ordered[i]
		c.W.NextGEQ(curDoc)
		blockShare := c.W.Score() * c.QWeight
		bound -= c.MaxWeight - blockShare
		if !q.WouldEnter(score + bound) {
			break
		}
	}
	return bound
}

// scoreNonEssential walks non-essentials in reverse order, scoring those
// positioned on curDoc. bound is the sum of every non-essential's
// block-max share (as computed by currentBlockUpperBound); it is
// decremented by each processed cursor's share so the break check always
// reflects the upper bound of cursors not yet visited, not just the one
// just processed.
func scoreNonEssential(ordered []*cursor.BlockMaxScored, nonEssential int, curDoc DocId, score float64, bound float64, q *topk.Queue, stats *Stats) float64 {
	remaining := bound
	for i := nonEssential - 1; i >= 0; i-- {
		c := ordered[i]
		if d := c.NextGEQ(curDoc); d == curDoc {
			score += c.Score()
			stats.scanned(1)
		}
		remaining -= c.W.Score() * c.QWeight
		if !q.WouldEnter(score + remaining) {
			stats.blockSkip()
			break
		}
	}
	return score
}

// RankedOrTaat (§4.3.7) drains every cursor's entire posting list into an
// accumulator, term-at-a-time, then aggregates into the top-k. Grounded
// directly on ranked_or_taat_query.hpp: accumulation uses cursor.Score()
// without multiplying by q_weight (resolved Open Question #3).
func RankedOrTaat(cursors []*cursor.Scored, maxDocId DocId, acc accumulator.Accumulator, q *topk.Queue, stats *Stats) {
	if len(cursors) == 0 {
		return
	}
	acc.Init()
	for _, c := range cursors {
		for c.DocId() < maxDocId {
			acc.Accumulate(c.DocId(), c.Score())
			stats.scanned(1)
			c.Next()
		}
	}
	acc.Aggregate(q)
}
