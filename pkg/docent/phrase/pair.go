package phrase

import (
	"strconv"
	"strings"
	"sync"
)

// Words is an ordered sequence of source or target tokens.
type Words []string

func (w Words) String() string { return strings.Join(w, " ") }

// Data is the immutable content of one phrase pair: the source and target
// word sequences, any parallel target annotation layers (e.g. POS tags
// carried alongside the surface form, one slice per layer), the word
// alignment between them, the per-feature scalar scores assigned by the
// phrase table, and whether the table marked it out-of-vocabulary.
//
// Data is never mutated after construction; Pair hash-conses it so that
// two phrase pairs with identical content share one Data and compare equal
// by pointer.
type Data struct {
	Source      Words
	Target      Words
	Annotations []Words
	Alignment   *Alignment
	Scores      []float64
	OOV         bool

	key string // precomputed interning key
}

func (d *Data) computeKey() string {
	var b strings.Builder
	b.WriteString(d.Source.String())
	b.WriteByte('\x00')
	b.WriteString(d.Target.String())
	for _, a := range d.Annotations {
		b.WriteByte('\x00')
		b.WriteString(a.String())
	}
	b.WriteByte('\x00')
	if d.Alignment != nil {
		for i := 0; i < d.Alignment.nsrc; i++ {
			for _, j := range d.Alignment.TargetsFor(i) {
				b.WriteByte(' ')
				b.WriteString(strconv.Itoa(i))
				b.WriteByte('-')
				b.WriteString(strconv.Itoa(j))
			}
		}
	}
	b.WriteByte('\x00')
	for _, s := range d.Scores {
		b.WriteString(strconv.FormatFloat(s, 'g', -1, 64))
		b.WriteByte(',')
	}
	if d.OOV {
		b.WriteString("oov")
	}
	return b.String()
}

// Pair is a hash-consed handle to a Data value: equality and hashing are
// O(1) pointer operations because Intern guarantees one physical Data per
// distinct logical value.
type Pair struct {
	data *Data
}

// Equal reports whether two handles refer to the same interned value.
func (p Pair) Equal(o Pair) bool { return p.data == o.data }

// Data returns the immutable content behind the handle.
func (p Pair) Data() *Data { return p.data }

func (p Pair) IsZero() bool { return p.data == nil }

// Table interns Data values into Pair handles. One Table is shared by all
// PhrasePairCollections reading from the same phrase-table backend, so that
// phrase pairs proposed for different sentences still share storage when
// their content coincides.
type Table struct {
	mu    sync.Mutex
	byKey map[string]*Data
}

// NewTable returns an empty interning table.
func NewTable() *Table {
	return &Table{byKey: make(map[string]*Data)}
}

// Intern returns the canonical Pair for d's content, constructing and
// storing d if no equal value has been interned yet.
func (t *Table) Intern(d Data) Pair {
	key := d.computeKey()
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.byKey[key]; ok {
		return Pair{data: existing}
	}
	d.key = key
	stored := d
	t.byKey[key] = &stored
	return Pair{data: &stored}
}

// AnchoredPair anchors a Pair to specific source positions within its
// sentence via its coverage bitmap.
type AnchoredPair struct {
	Coverage Coverage
	Pair     Pair
}

// Equal reports whether two anchored pairs have the same coverage and refer
// to the same interned phrase pair.
func (a AnchoredPair) Equal(o AnchoredPair) bool {
	return a.Coverage.Equal(o.Coverage) && a.Pair.Equal(o.Pair)
}

// Compare orders two anchored pairs by (coverage's first source position,
// source phrase text, target phrase text), the tuple ordering the sampler
// uses to restore a canonical (sorted) order for LinearisePhrases.
func Compare(a, b AnchoredPair) int {
	af, bf := a.Coverage.FirstSet(), b.Coverage.FirstSet()
	if af != bf {
		if af < bf {
			return -1
		}
		return 1
	}
	if s := strings.Compare(a.Pair.Data().Source.String(), b.Pair.Data().Source.String()); s != 0 {
		return s
	}
	return strings.Compare(a.Pair.Data().Target.String(), b.Pair.Data().Target.String())
}
