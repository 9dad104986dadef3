package phrasetable

import (
	"testing"

	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/random"
)

func buildABCTable() *MemTable {
	mt := NewMemTable()
	mt.Add(phrase.Words{"a"}, Entry{Target: phrase.Words{"A"}, Scores: []float64{1}})
	mt.Add(phrase.Words{"b"}, Entry{Target: phrase.Words{"B"}, Scores: []float64{1}})
	mt.Add(phrase.Words{"c"}, Entry{Target: phrase.Words{"C"}, Scores: []float64{1}})
	mt.Add(phrase.Words{"a", "b"}, Entry{Target: phrase.Words{"AB"}, Scores: []float64{1}})
	mt.Add(phrase.Words{"b", "c"}, Entry{Target: phrase.Words{"BC"}, Scores: []float64{1}})
	mt.Add(phrase.Words{"a", "b", "c"}, Entry{Target: phrase.Words{"ABC"}, Scores: []float64{1}})
	return mt
}

func TestProposeSegmentationCoversSentence(t *testing.T) {
	tbl := phrase.NewTable()
	backend := buildABCTable()
	rnd := random.New(1)
	col := Build(phrase.Words{"a", "b", "c"}, backend, tbl, rnd)

	for i := 0; i < 50; i++ {
		seg, ok := col.ProposeSegmentation()
		if !ok {
			t.Fatalf("expected a segmentation to exist")
		}
		if !seg.Coverage().Equal(phrase.Full(3)) {
			t.Fatalf("coverage = %v, want full coverage", seg.Coverage())
		}
		// disjointness
		var seen phrase.Coverage
		for _, ap := range seg {
			if seen.Intersects(ap.Coverage) {
				t.Fatalf("overlapping coverage in segmentation %v", seg)
			}
			seen = seen.Union(ap.Coverage)
		}
	}
}

func TestProposeAlternativeTranslationSameSpan(t *testing.T) {
	tbl := phrase.NewTable()
	backend := NewMemTable()
	backend.Add(phrase.Words{"a"}, Entry{Target: phrase.Words{"A1"}, Scores: []float64{1}})
	backend.Add(phrase.Words{"a"}, Entry{Target: phrase.Words{"A2"}, Scores: []float64{1}})
	rnd := random.New(2)
	col := Build(phrase.Words{"a"}, backend, tbl, rnd)

	old := col.pairs[0]
	seenOther := false
	for i := 0; i < 20; i++ {
		alt := col.ProposeAlternativeTranslation(old)
		if !alt.Coverage.Equal(old.Coverage) {
			t.Fatalf("alternative must cover the same span")
		}
		if !alt.Pair.Equal(old.Pair) {
			seenOther = true
		}
	}
	if !seenOther {
		t.Fatalf("expected at least one alternative to differ over 20 draws")
	}
}

func TestProposeAlternativeTranslationNoneReturnsOld(t *testing.T) {
	tbl := phrase.NewTable()
	backend := buildABCTable()
	rnd := random.New(3)
	col := Build(phrase.Words{"a"}, backend, tbl, rnd)

	old := col.pairs[0]
	alt := col.ProposeAlternativeTranslation(old)
	if !alt.Pair.Equal(old.Pair) {
		t.Fatalf("expected no-alternative case to return the same pair")
	}
}

func TestPhrasesExist(t *testing.T) {
	tbl := phrase.NewTable()
	backend := buildABCTable()
	rnd := random.New(4)
	col := Build(phrase.Words{"a", "b", "c"}, backend, tbl, rnd)

	seg, ok := col.ProposeSegmentation()
	if !ok {
		t.Fatalf("expected a segmentation")
	}
	if !col.PhrasesExist(seg) {
		t.Fatalf("a segmentation built from this collection must validate against it")
	}

	bogus := phrase.Segmentation{{
		Coverage: phrase.NewCoverage(0, 3),
		Pair:     tbl.Intern(phrase.Data{Source: phrase.Words{"a", "b", "c"}, Target: phrase.Words{"NOPE"}}),
	}}
	if col.PhrasesExist(bogus) {
		t.Fatalf("an unknown phrase pair must fail PhrasesExist")
	}
}
