// Package fusion implements cursor construction from a parsed Query
// (§4.2), per-variant algorithm dispatch (§4.3's common contract), and the
// multi-query CombSUM/SP-CS fusion drivers (§4.4). Grounded on
// _examples/original_source/src/parallel_combsum.cpp and
// src/evaluate_parallel_combsum.cpp for the fan-out/join/accumulate shape.
package fusion

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/salvocorp/rankcore/internal/accumulator"
	"github.com/salvocorp/rankcore/internal/algorithm"
	"github.com/salvocorp/rankcore/internal/cursor"
	"github.com/salvocorp/rankcore/internal/index"
	"github.com/salvocorp/rankcore/internal/query"
	"github.com/salvocorp/rankcore/internal/scorer"
	"github.com/salvocorp/rankcore/internal/topk"
	"github.com/salvocorp/rankcore/internal/wand"
	"github.com/salvocorp/rankcore/pkg/metrics"
)

// Evaluator binds the external capabilities (Index, WandData, Scorer) and
// runs any of the closed set of algorithms over a single Query.
type Evaluator struct {
	Index  index.Index
	Wand   wand.Data // required only by wand/maxscore/block-max algorithms
	Scorer scorer.Scorer
	Log    *slog.Logger

	// Metrics is optional; when nil, Eval skips all Prometheus recording.
	Metrics *metrics.Metrics

	// LazyAccumulatorBlockSize selects the ranked-OR-TAAT accumulator: 0
	// (the default) constructs Dense; a positive value constructs Lazy
	// with that block size, per spec.md §9's "both must be selectable".
	LazyAccumulatorBlockSize int
}

// taatAccumulator picks the ranked-OR-TAAT accumulator per
// LazyAccumulatorBlockSize.
func (e *Evaluator) taatAccumulator() accumulator.Accumulator {
	if e.LazyAccumulatorBlockSize > 0 {
		return accumulator.NewLazy(e.Index.NumDocs(), e.LazyAccumulatorBlockSize)
	}
	return accumulator.NewDense(e.Index.NumDocs())
}

func (e *Evaluator) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}

// buildScored opens a Scored cursor per (term, qtf) pair, dropping terms
// absent from the index with a warning — §4.2's "Terms absent from the
// index are dropped with a warning."
func (e *Evaluator) buildScored(freqs []query.TermFreq) []*cursor.Scored {
	var out []*cursor.Scored
	for _, tf := range freqs {
		c, ok := e.Index.Open(tf.Term)
		if !ok {
			e.logger().Warn("term absent from index, dropping", "term", tf.Term)
			continue
		}
		qWeight := e.queryTermWeight(tf)
		out = append(out, &cursor.Scored{Docs: c, QWeight: qWeight, Scorer: e.Scorer.TermScorer(tf.Term)})
	}
	return out
}

func (e *Evaluator) buildMaxScored(freqs []query.TermFreq) []*cursor.MaxScored {
	var out []*cursor.MaxScored
	for _, tf := range freqs {
		c, ok := e.Index.Open(tf.Term)
		if !ok {
			e.logger().Warn("term absent from index, dropping", "term", tf.Term)
			continue
		}
		qWeight := e.queryTermWeight(tf)
		out = append(out, cursor.NewMaxScored(c, qWeight, e.Scorer.TermScorer(tf.Term), e.Wand.MaxTermWeight(tf.Term)))
	}
	return out
}

func (e *Evaluator) buildBlockMaxScored(freqs []query.TermFreq) []*cursor.BlockMaxScored {
	var out []*cursor.BlockMaxScored
	for _, tf := range freqs {
		c, ok := e.Index.Open(tf.Term)
		if !ok {
			e.logger().Warn("term absent from index, dropping", "term", tf.Term)
			continue
		}
		w, ok := e.Wand.GetEnum(tf.Term)
		if !ok {
			e.logger().Warn("no wand block-max data for term, dropping", "term", tf.Term)
			continue
		}
		qWeight := e.queryTermWeight(tf)
		out = append(out, cursor.NewBlockMaxScored(c, qWeight, e.Scorer.TermScorer(tf.Term), e.Wand.MaxTermWeight(tf.Term), w))
	}
	return out
}

// queryTermWeight is the scorer-supplied query_term_weight(qtf, df,
// num_docs), used for every algorithm; both reference scorers return qtf.
func (e *Evaluator) queryTermWeight(tf query.TermFreq) float64 {
	return e.Scorer.QueryTermWeight(tf.Freq, e.docFreq(tf.Term), e.Index.NumDocs())
}

// docFreq reports a term's document frequency by opening (and discarding)
// a cursor purely to read Size().
func (e *Evaluator) docFreq(t query.TermId) int {
	c, ok := e.Index.Open(t)
	if !ok {
		return 0
	}
	return c.Size()
}

// Eval dispatches to the algorithm named by algo and returns a finalized
// top-k. An empty cursor set (every term dropped) produces an empty top-k
// per §7 ("Empty cursor set after parsing: soft, produce empty top-k").
func (e *Evaluator) Eval(q query.Query, algo algorithm.Name, k int) ([]topk.Entry, error) {
	start := time.Now()
	entries, err := e.eval(q, algo, k)
	if e.Metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		e.Metrics.QueriesTotal.WithLabelValues(string(algo), outcome).Inc()
		e.Metrics.QueryLatency.WithLabelValues(string(algo)).Observe(time.Since(start).Seconds())
		if err == nil {
			e.Metrics.TopKResultsCount.Observe(float64(len(entries)))
		}
	}
	return entries, err
}

func (e *Evaluator) eval(q query.Query, algo algorithm.Name, k int) ([]topk.Entry, error) {
	freqs := query.Freqs(q.Terms)
	maxDocId := index.Sentinel(e.Index.NumDocs())
	out := topk.New(k)
	stats := &algorithm.Stats{}

	switch algo {
	case algorithm.RankedOrName:
		algorithm.RankedOr(e.buildScored(freqs), maxDocId, out, stats)
	case algorithm.RankedAndName:
		algorithm.RankedAnd(e.buildScored(freqs), maxDocId, out, stats)
	case algorithm.RankedOrTaatName:
		algorithm.RankedOrTaat(e.buildScored(freqs), maxDocId, e.taatAccumulator(), out, stats)
	case algorithm.WANDName:
		algorithm.WAND(e.buildMaxScored(freqs), maxDocId, out, stats)
	case algorithm.MaxScoreName:
		algorithm.MaxScore(e.buildMaxScored(freqs), maxDocId, out, stats)
	case algorithm.BlockMaxWANDName:
		algorithm.BlockMaxWAND(e.buildBlockMaxScored(freqs), maxDocId, out, stats)
	case algorithm.BlockMaxMaxScoreName:
		algorithm.BlockMaxMaxScore(e.buildBlockMaxScored(freqs), maxDocId, out, stats)
	default:
		return nil, fmt.Errorf("unknown algorithm %q", algo)
	}
	out.Finalize()
	if e.Metrics != nil {
		e.Metrics.PostingsScannedTotal.WithLabelValues(string(algo)).Add(float64(stats.PostingsScanned))
		e.Metrics.PivotMovesTotal.WithLabelValues(string(algo)).Add(float64(stats.PivotMoves))
		e.Metrics.BlocksSkippedTotal.WithLabelValues(string(algo)).Add(float64(stats.BlocksSkipped))
	}
	return out.TopK(), nil
}
