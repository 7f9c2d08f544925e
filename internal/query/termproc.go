package query

import (
	"strings"
	"unicode"
)

var defaultStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// LexiconTermProcessor is the reference TermProcessor: a surface-term
// stemmer (adapted from the teacher's suffix-stripping stemmer in
// internal/indexer/tokenizer/tokenizer.go, since a production stemmer is
// an external collaborator per spec.md §1) feeding a lookup table from
// stemmed surface term to TermId.
type LexiconTermProcessor struct {
	stopwords map[string]struct{}
	lexicon   map[string]TermId
}

// NewLexiconTermProcessor builds a processor over a term→id lexicon.
// A nil stopwords set falls back to a built-in English stop-word list.
func NewLexiconTermProcessor(lexicon map[string]TermId, stopwords map[string]struct{}) *LexiconTermProcessor {
	if stopwords == nil {
		stopwords = defaultStopwords
	}
	return &LexiconTermProcessor{stopwords: stopwords, lexicon: lexicon}
}

func (p *LexiconTermProcessor) IsStopword(term string) bool {
	_, ok := p.stopwords[term]
	return ok
}

func (p *LexiconTermProcessor) Lookup(term string) (TermId, bool) {
	t, ok := p.lexicon[stem(normalize(term))]
	return t, ok
}

func normalize(word string) string {
	var b strings.Builder
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

var stemRules = []struct {
	suffix      string
	replacement string
	minLen      int
}{
	{"ational", "ate", 2},
	{"tional", "tion", 2},
	{"encies", "ence", 2},
	{"ances", "ance", 2},
	{"ments", "ment", 2},
	{"izing", "ize", 2},
	{"ating", "ate", 2},
	{"iness", "y", 2},
	{"ously", "ous", 2},
	{"ively", "ive", 2},
	{"eness", "ene", 2},
	{"tion", "t", 3},
	{"sion", "s", 3},
	{"ying", "y", 2},
	{"ling", "l", 3},
	{"ies", "y", 2},
	{"ing", "", 3},
	{"ers", "er", 2},
	{"est", "", 3},
	{"ful", "", 3},
	{"ous", "", 3},
	{"ess", "", 3},
	{"ble", "", 3},
	{"ed", "", 3},
	{"er", "", 3},
	{"ly", "", 3},
	{"es", "", 3},
	{"ss", "ss", 2},
	{"s", "", 3},
}

// stem applies the same suffix-stripping rule table as the teacher's
// tokenizer, kept here because terms-mode parsing needs to stem a query
// token the same way the (external) index-construction pipeline stemmed
// the term before assigning it an id.
func stem(word string) string {
	for _, rule := range stemRules {
		if strings.HasSuffix(word, rule.suffix) {
			newWord := word[:len(word)-len(rule.suffix)] + rule.replacement
			if len(newWord) >= rule.minLen {
				return newWord
			}
		}
	}
	return word
}
