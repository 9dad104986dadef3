package operation

import (
	"testing"

	"github.com/chardmeier/docent/pkg/docent/feature"
	"github.com/chardmeier/docent/pkg/docent/feature/builtin"
	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/phrasetable"
	"github.com/chardmeier/docent/pkg/docent/random"
	"github.com/chardmeier/docent/pkg/docent/state"
)

// buildFourWordState builds a single-sentence DocumentState over "a b c d",
// with every contiguous span also available as a single phrase pair, giving
// every operator room to propose something non-trivial.
func buildFourWordState(t *testing.T, seed uint64) (*state.DocumentState, *random.Source) {
	t.Helper()
	source := phrase.Words{"a", "b", "c", "d"}
	backend := phrasetable.NewMemTable()
	words := []string{"a", "b", "c", "d"}
	for _, w := range words {
		backend.Add(phrase.Words{w}, phrasetable.Entry{Target: phrase.Words{w + "*"}})
	}
	for from := 0; from < len(source); from++ {
		for to := from + 2; to <= len(source); to++ {
			span := source[from:to]
			target := phrase.Words{}
			for _, w := range span {
				target = append(target, w+"*")
			}
			backend.Add(span, phrasetable.Entry{Target: target})
		}
	}

	tbl := phrase.NewTable()
	rnd := random.New(seed)
	col := phrasetable.Build(source, backend, tbl, rnd)

	seg := phrase.Segmentation{}
	for i, w := range words {
		pair := tbl.Intern(phrase.Data{Source: phrase.Words{w}, Target: phrase.Words{w + "*"}})
		seg = append(seg, phrase.AnchoredPair{Coverage: phrase.NewCoverage(i, i+1), Pair: pair})
	}

	features := []*feature.Instantiation{{ID: "phrase-penalty", ScoreIndex: 0, Impl: builtin.PhrasePenalty{}}}
	ds := state.New([]*phrasetable.Collection{col}, []phrase.Segmentation{seg}, features, []float64{1.0})
	return ds, rnd
}

func TestMovePhrasesRefusesSingletonSentence(t *testing.T) {
	_, rnd := buildFourWordState(t, 1)
	m := MovePhrases{SizeDecay: 0.5, LeftDecay: 0.5, RightDecay: 0.5, RightMovePreference: 0.5}
	// Build a genuinely single-phrase sentence to exercise the refusal path.
	backend := phrasetable.NewMemTable()
	backend.Add(phrase.Words{"x"}, phrasetable.Entry{Target: phrase.Words{"X"}})
	tbl := phrase.NewTable()
	col := phrasetable.Build(phrase.Words{"x"}, backend, tbl, rnd)
	pair := tbl.Intern(phrase.Data{Source: phrase.Words{"x"}, Target: phrase.Words{"X"}})
	seg := phrase.Segmentation{{Coverage: phrase.NewCoverage(0, 1), Pair: pair}}
	features := []*feature.Instantiation{{ID: "phrase-penalty", ScoreIndex: 0, Impl: builtin.PhrasePenalty{}}}
	oneWord := state.New([]*phrasetable.Collection{col}, []phrase.Segmentation{seg}, features, []float64{1.0})

	for i := 0; i < 50; i++ {
		if _, ok := m.Propose(oneWord, rnd); ok {
			t.Fatalf("MovePhrases should never succeed on a single-phrase sentence")
		}
	}
}

func TestMovePhrasesPreservesCoverageAndChangesOrder(t *testing.T) {
	m := MovePhrases{SizeDecay: 0.6, LeftDecay: 0.6, RightDecay: 0.6, RightMovePreference: 0.5}
	succeeded := false
	for seed := uint64(1); seed < 200 && !succeeded; seed++ {
		ds, rnd := buildFourWordState(t, seed)
		s, ok := m.Propose(ds, rnd)
		if !ok {
			continue
		}
		succeeded = true
		before := ds.Segmentation(0).Clone()
		for i := 0; i < s.Modifications(); i++ {
			sentno, from, to, proposal := s.Modification(i)
			after := ds.Segmentation(sentno).Splice(from, to, proposal)
			if !after.Coverage().Equal(before.Coverage()) {
				t.Fatalf("move changed total coverage: before %v after %v", before.Coverage(), after.Coverage())
			}
			if after.Equal(before) {
				t.Fatalf("move produced a no-op splice")
			}
		}
	}
	if !succeeded {
		t.Fatalf("MovePhrases never produced a proposal across 200 seeds")
	}
}

func TestResegmentAllowsSingletonBlockAndPreservesCoverage(t *testing.T) {
	r := Resegment{Decay: 0.5}
	for seed := uint64(1); seed < 200; seed++ {
		ds, rnd := buildFourWordState(t, seed)
		before := ds.Segmentation(0).Clone()
		s, ok := r.Propose(ds, rnd)
		if !ok {
			continue
		}
		for i := 0; i < s.Modifications(); i++ {
			sentno, from, to, proposal := s.Modification(i)
			after := ds.Segmentation(sentno).Splice(from, to, proposal)
			if !after.Coverage().Equal(before.Coverage()) {
				t.Fatalf("resegment changed total coverage: before %v after %v", before.Coverage(), after.Coverage())
			}
		}
	}
}

func TestStateGeneratorRejectsEmptyOperatorList(t *testing.T) {
	rnd := random.New(1)
	if _, err := NewStateGenerator(rnd, nil, nil); err == nil {
		t.Fatalf("expected a ConfigurationError for an empty operator list")
	}
}

func TestStateGeneratorRejectsNonPositiveWeights(t *testing.T) {
	rnd := random.New(1)
	if _, err := NewStateGenerator(rnd, []Operation{ChangePhraseTranslation{}}, []float64{0}); err == nil {
		t.Fatalf("expected a ConfigurationError when every operator weight is non-positive")
	}
}

func TestStateGeneratorCreateSearchStepSucceeds(t *testing.T) {
	ds, rnd := buildFourWordState(t, 42)
	ops := []Operation{
		ChangePhraseTranslation{},
		PermutePhrases{Decay: 0.5},
		LinearisePhrases{Decay: 0.5},
		SwapPhrases{Decay: 0.5},
		MovePhrases{SizeDecay: 0.5, LeftDecay: 0.5, RightDecay: 0.5, RightMovePreference: 0.5},
		Resegment{Decay: 0.5},
	}
	weights := []float64{1, 1, 1, 1, 1, 1}
	gen, err := NewStateGenerator(rnd, ops, weights)
	if err != nil {
		t.Fatalf("NewStateGenerator: %v", err)
	}
	s, ok := gen.CreateSearchStep(ds)
	if !ok {
		t.Fatalf("CreateSearchStep failed to produce any step across %d retries", gen.MaxConsecutiveRefusals)
	}
	if s.Modifications() == 0 {
		t.Fatalf("CreateSearchStep returned an empty step")
	}
}

func TestMonotonicInitialiserProducesFullCoverage(t *testing.T) {
	ds, _ := buildFourWordState(t, 3)
	var m MonotonicInitialiser
	seg, err := m.Initialise(0, ds.Collections[0])
	if err != nil {
		t.Fatalf("Initialise: %v", err)
	}
	if !seg.Coverage().Equal(phrase.Full(4)) {
		t.Fatalf("monotonic initial segmentation coverage = %v, want full", seg.Coverage())
	}
}

func TestSavedStateInitialiserRejectsUnknownPhrase(t *testing.T) {
	ds, _ := buildFourWordState(t, 4)
	tbl := phrase.NewTable()
	bogus := tbl.Intern(phrase.Data{Source: phrase.Words{"zzz"}, Target: phrase.Words{"ZZZ"}})
	bad := phrase.Segmentation{{Coverage: phrase.NewCoverage(0, 4), Pair: bogus}}
	init := SavedStateInitialiser{Segmentations: []phrase.Segmentation{bad}}
	if _, err := init.Initialise(0, ds.Collections[0]); err == nil {
		t.Fatalf("expected a FileFormatError for a segmentation referencing an unknown phrase pair")
	}
}

func TestTestsetInitialiserFallsBackToMonotonic(t *testing.T) {
	ds, _ := buildFourWordState(t, 5)
	tbl := phrase.NewTable()
	bogus := tbl.Intern(phrase.Data{Source: phrase.Words{"zzz"}, Target: phrase.Words{"ZZZ"}})
	bad := phrase.Segmentation{{Coverage: phrase.NewCoverage(0, 4), Pair: bogus}}
	init := TestsetInitialiser{Segmentations: []phrase.Segmentation{bad}}
	seg, err := init.Initialise(0, ds.Collections[0])
	if err != nil {
		t.Fatalf("Initialise should fall back instead of erroring: %v", err)
	}
	if !seg.Coverage().Equal(phrase.Full(4)) {
		t.Fatalf("fallback segmentation coverage = %v, want full", seg.Coverage())
	}
}
