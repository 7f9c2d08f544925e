// Package query implements the Query/MultiQuery data model, the two query
// parser modes (raw term ids vs. lexicon-looked-up surface terms), the
// MultiQuery grouper, and the SP-CS flattener. Grounded directly on
// _examples/original_source/include/pisa/query/queries.hpp
// (split_query_at_colon, parse_query_ids, parse_query_terms, query_freqs,
// generate_multi_queries, multi_query_to_spcs) — the primary source for
// this package's semantics.
package query

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/salvocorp/rankcore/pkg/errors"
)

type TermId = uint32

// Query is one parsed query line: an optional id and an ordered sequence
// of term ids (duplicates meaningful — duplicate count is the query-term
// frequency). queries.hpp's Query also carries a term_weights vector, but
// no parser in the original ever populates it and no query algorithm ever
// reads it; per-term weight input is unsupported here for the same reason.
type Query struct {
	Id    string
	Terms []TermId
}

// MultiQuery is a non-empty ordered sequence of Query variants sharing one id.
type MultiQuery struct {
	Id       string
	Variants []Query
}

// TermFreq is a (term, query-term-frequency) pair, sorted by term ascending.
type TermFreq struct {
	Term TermId
	Freq int
}

// splitAtColon mirrors split_query_at_colon: an optional "id:" prefix
// followed by the raw query text.
func splitAtColon(line string) (id string, hasId bool, rest string) {
	if idx := strings.IndexByte(line, ':'); idx >= 0 {
		return line[:idx], true, line[idx+1:]
	}
	return "", false, line
}

// ParseIds parses a line in ids mode: tokens are decimal TermIds. A
// non-integer token is a fatal malformed-query-line error per spec.md §7.
func ParseIds(line string) (Query, error) {
	id, _, rest := splitAtColon(line)
	fields := strings.FieldsFunc(rest, func(r rune) bool {
		return r == '\t' || r == ' ' || r == ',' || r == '\v' || r == '\f' || r == '\r' || r == '\n'
	})
	terms := make([]TermId, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return Query{}, fmt.Errorf("%w: token %q in query %q", errors.ErrInvalidInput, f, line)
		}
		terms = append(terms, TermId(n))
	}
	return Query{Id: id, Terms: terms}, nil
}

// TermProcessor is the external collaborator consumed in terms mode: it
// looks up a surface term's TermId and reports stop-word status. Grounded
// on the teacher's tokenizer (internal/indexer/tokenizer/tokenizer.go)
// generalized into a lookup capability rather than an inline stemmer.
type TermProcessor interface {
	Lookup(term string) (TermId, bool)
	IsStopword(term string) bool
}

// ParseTerms parses a line in terms mode: tokens are surface words run
// through proc. Stop-words and unknown terms are dropped with a warning
// (soft error per spec.md §7); the query proceeds, possibly empty.
func ParseTerms(line string, proc TermProcessor, log *slog.Logger) Query {
	id, _, rest := splitAtColon(line)
	fields := strings.Fields(rest)
	terms := make([]TermId, 0, len(fields))
	for _, raw := range fields {
		lower := strings.ToLower(raw)
		if proc.IsStopword(lower) {
			log.Warn("term is a stopword and will be ignored", "term", raw)
			continue
		}
		t, ok := proc.Lookup(lower)
		if !ok {
			log.Warn("term not found and will be ignored", "term", raw)
			continue
		}
		terms = append(terms, t)
	}
	return Query{Id: id, Terms: terms}
}

// Freqs returns the sorted (term, query-term-frequency) pairs for a term
// sequence, matching query_freqs: sort then run-length count duplicates.
func Freqs(terms []TermId) []TermFreq {
	sorted := append([]TermId(nil), terms...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var out []TermFreq
	for i, t := range sorted {
		if i == 0 || t != sorted[i-1] {
			out = append(out, TermFreq{Term: t, Freq: 1})
		} else {
			out[len(out)-1].Freq++
		}
	}
	return out
}

// RemoveDuplicateTerms returns a sorted, deduplicated copy of terms, matching
// remove_duplicate_terms — used by GroupMultiQueries on each variant
// before grouping, NOT by the SP-CS flattener (Open Question #1:
// SP-CS concatenation does not deduplicate).
func RemoveDuplicateTerms(terms []TermId) []TermId {
	sorted := append([]TermId(nil), terms...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	out := sorted[:0]
	for i, t := range sorted {
		if i == 0 || t != sorted[i-1] {
			out = append(out, t)
		}
	}
	return out
}

// GroupMultiQueries groups queries sharing an id into MultiQueries,
// deduplicating each variant's own term list first, matching
// generate_multi_queries. Every query must carry a non-empty id; violation
// is fatal (missing-MultiQuery-id per spec.md §7).
func GroupMultiQueries(queries []Query) ([]MultiQuery, error) {
	order := make([]string, 0)
	grouped := make(map[string]*MultiQuery)
	for _, q := range queries {
		if q.Id == "" {
			return nil, fmt.Errorf("%w: multi queries must have ids", errors.ErrMissingQueryID)
		}
		q.Terms = RemoveDuplicateTerms(q.Terms)
		mq, ok := grouped[q.Id]
		if !ok {
			mq = &MultiQuery{Id: q.Id}
			grouped[q.Id] = mq
			order = append(order, q.Id)
		}
		mq.Variants = append(mq.Variants, q)
	}
	out := make([]MultiQuery, 0, len(order))
	for _, id := range order {
		out = append(out, *grouped[id])
	}
	return out, nil
}

// Flatten collapses a MultiQuery into a single SP-CS Query: the
// concatenation (not union) of every variant's raw term sequence, matching
// multi_query_to_spcs exactly — query-term-frequency accumulates naturally
// through the concatenation, with no deduplication across variants.
func Flatten(mq MultiQuery) Query {
	var terms []TermId
	for _, v := range mq.Variants {
		terms = append(terms, v.Terms...)
	}
	return Query{Id: mq.Id, Terms: terms}
}
