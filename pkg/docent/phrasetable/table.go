// Package phrasetable provides the query interface Docent consumes from its
// phrase-table backend, an in-memory implementation for tests, a
// sqlite-backed implementation for production corpora, and the segmentation
// sampler (Collection) built on top of either.
package phrasetable

import "github.com/chardmeier/docent/pkg/docent/phrase"

// Entry is one candidate translation for a source span, as handed back by
// a phrase-table backend before it is interned.
type Entry struct {
	Target      phrase.Words
	Annotations []phrase.Words
	Alignment   *phrase.Alignment
	Scores      []float64
	OOV         bool
}

// Table is the query interface a phrase-table backend must satisfy. It is
// assumed immutable for the lifetime of a decoding run; only the span
// query, the vocabulary, and a close hook are required.
type Table interface {
	// Query returns every entry covering exactly the word sequence source,
	// and whether any entry was found at all.
	Query(source phrase.Words) (entries []Entry, found bool)
	// Vocab returns the backend's id->word mapping, for components that
	// need to resolve word ids back to surface forms.
	Vocab() map[int]string
	Close() error
}
