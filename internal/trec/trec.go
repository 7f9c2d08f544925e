// Package trec emits TREC-format top-k rankings, grounded on
// _examples/original_source/src/evaluate_parallel_combsum.cpp's output
// loop and other_examples/andrewtrotman-JASSjr__JASSjr_search.go's
// fmt.Printf row-formatting idiom.
package trec

import (
	"bufio"
	"fmt"
	"io"

	"github.com/salvocorp/rankcore/internal/topk"
)

// Lexicon resolves an internal docid to the external id emitted in TREC
// rows, the DocumentLexicon capability of spec.md §6.
type Lexicon interface {
	Get(docid topk.DocId) (string, bool)
}

// Writer emits tab-separated TREC rows, flushed per query per spec.md §6
// ("flushed per query, not per result row").
type Writer struct {
	w         *bufio.Writer
	Iteration string
	RunId     string
}

// NewWriter returns a Writer with the documented defaults: iteration "Q0",
// run id "R0".
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w), Iteration: "Q0", RunId: "R0"}
}

// WriteQuery emits one row per (rank, entry) in results — already
// finalized, descending by score — then flushes.
func (w *Writer) WriteQuery(qid string, results []topk.Entry, lex Lexicon) error {
	for rank, e := range results {
		external, ok := lex.Get(e.DocId)
		if !ok {
			external = fmt.Sprintf("%d", e.DocId)
		}
		if _, err := fmt.Fprintf(w.w, "%s\t%s\t%s\t%d\t%.4f\t%s\n", qid, w.Iteration, external, rank, e.Score, w.RunId); err != nil {
			return err
		}
	}
	return w.w.Flush()
}
