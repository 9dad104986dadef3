package state

import (
	"testing"

	"github.com/chardmeier/docent/pkg/docent/feature"
	"github.com/chardmeier/docent/pkg/docent/feature/builtin"
	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/phrasetable"
	"github.com/chardmeier/docent/pkg/docent/random"
)

func buildSingleSentenceState(t *testing.T) (*DocumentState, *phrase.Table) {
	t.Helper()
	backend := phrasetable.NewMemTable()
	backend.Add(phrase.Words{"a"}, phrasetable.Entry{Target: phrase.Words{"A"}})
	backend.Add(phrase.Words{"b"}, phrasetable.Entry{Target: phrase.Words{"B"}})
	backend.Add(phrase.Words{"c"}, phrasetable.Entry{Target: phrase.Words{"C"}})
	backend.Add(phrase.Words{"a", "b", "c"}, phrasetable.Entry{Target: phrase.Words{"ABC"}})

	tbl := phrase.NewTable()
	rnd := random.New(42)
	col := phrasetable.Build(phrase.Words{"a", "b", "c"}, backend, tbl, rnd)

	seg, ok := col.ProposeSegmentationRange(phrase.Full(3))
	if !ok {
		t.Fatalf("expected some segmentation")
	}

	features := []*feature.Instantiation{
		{ID: "phrase-penalty", ScoreIndex: 0, Impl: builtin.PhrasePenalty{}},
	}
	weights := []float64{1.0}
	ds := New([]*phrasetable.Collection{col}, []phrase.Segmentation{seg}, features, weights)
	return ds, tbl
}

func TestGetScoreInnerProduct(t *testing.T) {
	ds, _ := buildSingleSentenceState(t)
	got := ds.GetScore()
	want := 0.0
	for i, s := range ds.Scores() {
		want += s * ds.Weights[i]
	}
	if got != want {
		t.Fatalf("GetScore() = %v, want %v", got, want)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	ds, _ := buildSingleSentenceState(t)
	clone := ds.Clone()
	if !ds.Equal(clone) {
		t.Fatalf("clone must initially equal the original")
	}
	clone.segs[0] = clone.segs[0].Clone()
	clone.scores[0] = -999
	if ds.scores[0] == -999 {
		t.Fatalf("mutating the clone's scores must not affect the original")
	}
}

func TestInitialGenerationIsZero(t *testing.T) {
	ds, _ := buildSingleSentenceState(t)
	if ds.Generation() != 0 {
		t.Fatalf("initial generation = %d, want 0", ds.Generation())
	}
}
