package query

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
)

func TestParseIds(t *testing.T) {
	q, err := ParseIds("q1: 1 2 3 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Id != "q1" {
		t.Fatalf("expected id q1, got %q", q.Id)
	}
	want := []TermId{1, 2, 3, 2}
	if !reflect.DeepEqual(q.Terms, want) {
		t.Fatalf("got %v, want %v", q.Terms, want)
	}
}

func TestParseIdsRejectsNonInteger(t *testing.T) {
	if _, err := ParseIds("q1: 1 foo"); err == nil {
		t.Fatal("expected error for non-integer token")
	}
}

func TestFreqsCountsDuplicates(t *testing.T) {
	got := Freqs([]TermId{3, 1, 1, 2})
	want := []TermFreq{{1, 2}, {2, 1}, {3, 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestGroupMultiQueriesRequiresId(t *testing.T) {
	_, err := GroupMultiQueries([]Query{{Terms: []TermId{1}}})
	if err == nil {
		t.Fatal("expected missing-id error")
	}
}

func TestGroupMultiQueriesDedupsEachVariant(t *testing.T) {
	mqs, err := GroupMultiQueries([]Query{
		{Id: "q1", Terms: []TermId{2, 1, 1}},
		{Id: "q1", Terms: []TermId{3}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mqs) != 1 || len(mqs[0].Variants) != 2 {
		t.Fatalf("expected one multiquery with two variants, got %+v", mqs)
	}
	if !reflect.DeepEqual(mqs[0].Variants[0].Terms, []TermId{1, 2}) {
		t.Fatalf("expected deduped+sorted terms, got %v", mqs[0].Variants[0].Terms)
	}
}

// Open Question #1: SP-CS concatenation must NOT deduplicate across variants.
func TestFlattenDoesNotDeduplicate(t *testing.T) {
	mq := MultiQuery{
		Id: "q1",
		Variants: []Query{
			{Id: "q1", Terms: []TermId{1, 2}},
			{Id: "q1", Terms: []TermId{2, 3}},
		},
	}
	got := Flatten(mq)
	want := []TermId{1, 2, 2, 3}
	if !reflect.DeepEqual(got.Terms, want) {
		t.Fatalf("got %v, want %v", got.Terms, want)
	}
}

type fakeProcessor struct {
	stop    map[string]struct{}
	lexicon map[string]TermId
}

func (f fakeProcessor) IsStopword(term string) bool { _, ok := f.stop[term]; return ok }
func (f fakeProcessor) Lookup(term string) (TermId, bool) {
	t, ok := f.lexicon[term]
	return t, ok
}

func TestParseTermsDropsStopwordsAndUnknown(t *testing.T) {
	proc := fakeProcessor{
		stop:    map[string]struct{}{"the": {}},
		lexicon: map[string]TermId{"cat": 1},
	}
	q := ParseTerms("q1: the cat dog", proc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if !reflect.DeepEqual(q.Terms, []TermId{1}) {
		t.Fatalf("expected only known non-stopword terms, got %v", q.Terms)
	}
}

func TestParseTermsEmptyAfterStopwords(t *testing.T) {
	proc := fakeProcessor{stop: map[string]struct{}{"the": {}, "a": {}}}
	q := ParseTerms("q1: the a", proc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if len(q.Terms) != 0 {
		t.Fatalf("expected empty term list, got %v", q.Terms)
	}
}
