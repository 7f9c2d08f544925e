// Package scorer defines the Scorer capability — a per-term closure
// producing a score from (docid, freq) — and ships a BM25 reference
// implementation. The statistical model itself is an external collaborator
// per the core's scope; BM25 here is the fixture, grounded on
// other_examples/andrewtrotman-JASSjr__JASSjr_search.go's k1/b constants
// and formula, cross-checked against the teacher's
// internal/searcher/ranker/ranker.go structure.
package scorer

import (
	"math"

	"github.com/salvocorp/rankcore/internal/index"
)

type DocId = index.DocId
type TermId = index.TermId

// TermScorer is the per-term closure the core calls as score(docid, freq).
type TermScorer func(docid DocId, freq uint32) float64

// Scorer is the capability consumed from the external collaborator.
type Scorer interface {
	TermScorer(t TermId) TermScorer
	// QueryTermWeight returns the q_weight the core uses for a term that
	// occurs qtf times in the query; a scorer that does not weight query
	// terms returns float64(qtf).
	QueryTermWeight(qtf int, df int, numDocs uint64) float64
}

// BM25 reproduces JASSjr's BM25 constants and formula:
// idf = log(N/n); tfNorm = tf*(k1+1) / (tf + k1*(1-b+b*(docLen/avgDocLen))).
type BM25 struct {
	K1        float64
	B         float64
	NumDocs   uint64
	AvgDocLen float64
	DocLen    func(DocId) uint32
	DocFreq   func(TermId) int
}

// NewBM25 returns a BM25 scorer with JASSjr's defaults (k1=0.9, b=0.4).
func NewBM25(numDocs uint64, avgDocLen float64, docLen func(DocId) uint32, docFreq func(TermId) int) *BM25 {
	return &BM25{K1: 0.9, B: 0.4, NumDocs: numDocs, AvgDocLen: avgDocLen, DocLen: docLen, DocFreq: docFreq}
}

func (s *BM25) TermScorer(t TermId) TermScorer {
	n := s.DocFreq(t)
	if n == 0 || n == int(s.NumDocs) {
		return func(DocId, uint32) float64 { return 0 }
	}
	idf := math.Log(float64(s.NumDocs) / float64(n))
	return func(docid DocId, freq uint32) float64 {
		tf := float64(freq)
		docLen := float64(s.DocLen(docid))
		norm := s.K1 * (1 - s.B + s.B*(docLen/s.AvgDocLen))
		return idf * (tf * (s.K1 + 1) / (tf + norm))
	}
}

// QueryTermWeight: BM25 does not weight query terms and returns the raw qtf.
func (s *BM25) QueryTermWeight(qtf int, df int, numDocs uint64) float64 {
	return float64(qtf)
}

// Identity is a trivial scorer used by tests and spec scenarios S1-S3:
// score(d, f) = f.
type Identity struct{}

func (Identity) TermScorer(TermId) TermScorer {
	return func(_ DocId, freq uint32) float64 { return float64(freq) }
}

func (Identity) QueryTermWeight(qtf int, _ int, _ uint64) float64 {
	return float64(qtf)
}
