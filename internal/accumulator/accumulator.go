// Package accumulator implements the dense and lazy per-docid score
// accumulators used by ranked-OR-TAAT, grounded on the accumulate/init/
// aggregate contract of ranked_or_taat_query.hpp
// (_examples/original_source/include/pisa/query/algorithm/
// ranked_or_taat_query.hpp) and spec.md §4.3.7/§9 ("the lazy accumulator
// partitions docids into fixed-size blocks with a generation counter").
package accumulator

import "github.com/salvocorp/rankcore/internal/topk"

type DocId = topk.DocId

// Accumulator is the capability ranked-OR-TAAT drives: init before a
// query, accumulate per (docid, score) contribution, aggregate into a
// TopKQueue once every cursor is drained.
type Accumulator interface {
	Init()
	Accumulate(docid DocId, score float64)
	Aggregate(q *topk.Queue)
}

// Dense is a flat float64 vector sized to the corpus — functionally
// equivalent to Lazy. Init clears only the slots the previous query
// touched, tracked in an ordered list that Aggregate also walks.
type Dense struct {
	scores  []float64
	touched []bool
	any     []DocId
}

func NewDense(numDocs uint64) *Dense {
	return &Dense{
		scores:  make([]float64, numDocs),
		touched: make([]bool, numDocs),
	}
}

func (d *Dense) Init() {
	for _, id := range d.any {
		d.scores[id] = 0
		d.touched[id] = false
	}
	d.any = d.any[:0]
}

func (d *Dense) Accumulate(docid DocId, score float64) {
	if !d.touched[docid] {
		d.touched[docid] = true
		d.any = append(d.any, docid)
	}
	d.scores[docid] += score
}

func (d *Dense) Aggregate(q *topk.Queue) {
	for _, id := range d.any {
		q.Insert(d.scores[id], id)
	}
}

// Lazy partitions docids into fixed-size blocks, each carrying a
// generation counter. A write to a block whose generation is stale resets
// the block's slots before applying the write, avoiding a full zero-fill
// between queries — the optimization spec.md §9 calls out for very large
// corpora with sparse queries.
type Lazy struct {
	blockSize   int
	numDocs     uint64
	generation  int
	blockGen    []int
	scores      []float64
	touchedGen  []int
	touchedList []DocId
}

func NewLazy(numDocs uint64, blockSize int) *Lazy {
	if blockSize <= 0 {
		blockSize = 1024
	}
	numBlocks := int(numDocs)/blockSize + 1
	return &Lazy{
		blockSize:  blockSize,
		numDocs:    numDocs,
		blockGen:   make([]int, numBlocks),
		scores:     make([]float64, numDocs),
		touchedGen: make([]int, numDocs),
	}
}

func (l *Lazy) Init() {
	l.generation++
	l.touchedList = l.touchedList[:0]
}

func (l *Lazy) Accumulate(docid DocId, score float64) {
	block := int(docid) / l.blockSize
	if l.blockGen[block] != l.generation {
		start := block * l.blockSize
		end := start + l.blockSize
		if end > int(l.numDocs) {
			end = int(l.numDocs)
		}
		for i := start; i < end; i++ {
			l.scores[i] = 0
		}
		l.blockGen[block] = l.generation
	}
	if l.touchedGen[docid] != l.generation {
		l.touchedGen[docid] = l.generation
		l.touchedList = append(l.touchedList, docid)
	}
	l.scores[docid] += score
}

// Aggregate inserts touched docids in the order they were first accumulated
// this generation — deterministic, unlike ranging over a map — so ties at
// the top-k admission threshold resolve the same way across runs.
func (l *Lazy) Aggregate(q *topk.Queue) {
	for _, id := range l.touchedList {
		q.Insert(l.scores[id], id)
	}
}
