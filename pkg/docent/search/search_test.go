package search

import (
	"testing"

	"github.com/chardmeier/docent/pkg/docent/feature"
	"github.com/chardmeier/docent/pkg/docent/feature/builtin"
	"github.com/chardmeier/docent/pkg/docent/operation"
	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/phrasetable"
	"github.com/chardmeier/docent/pkg/docent/random"
	"github.com/chardmeier/docent/pkg/docent/schedule"
	"github.com/chardmeier/docent/pkg/docent/state"
)

// buildSearchableState builds a single four-word sentence whose phrase
// table offers every contiguous span as a single phrase pair, so
// PhrasePenalty gives the search room to improve by merging phrases.
func buildSearchableState(t *testing.T, seed uint64) (*state.DocumentState, *operation.StateGenerator, *random.Source) {
	t.Helper()
	source := phrase.Words{"a", "b", "c", "d"}
	backend := phrasetable.NewMemTable()
	for _, w := range []string{"a", "b", "c", "d"} {
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
	for i, w := range []string{"a", "b", "c", "d"} {
		pair := tbl.Intern(phrase.Data{Source: phrase.Words{w}, Target: phrase.Words{w + "*"}})
		seg = append(seg, phrase.AnchoredPair{Coverage: phrase.NewCoverage(i, i+1), Pair: pair})
	}

	features := []*feature.Instantiation{{ID: "phrase-penalty", ScoreIndex: 0, Impl: builtin.PhrasePenalty{}}}
	ds := state.New([]*phrasetable.Collection{col}, []phrase.Segmentation{seg}, features, []float64{1.0})

	ops := []operation.Operation{
		operation.ChangePhraseTranslation{},
		operation.PermutePhrases{Decay: 0.5},
		operation.LinearisePhrases{Decay: 0.5},
		operation.SwapPhrases{Decay: 0.5},
		operation.MovePhrases{SizeDecay: 0.5, LeftDecay: 0.5, RightDecay: 0.5, RightMovePreference: 0.5},
		operation.Resegment{Decay: 0.5},
	}
	weights := []float64{1, 1, 1, 1, 1, 3}
	gen, err := operation.NewStateGenerator(rnd, ops, weights)
	if err != nil {
		t.Fatalf("NewStateGenerator: %v", err)
	}
	return ds, gen, rnd
}

func TestSimulatedAnnealingNeverLosesTheBestState(t *testing.T) {
	ds, gen, rnd := buildSearchableState(t, 11)
	initial := ds.GetScore()

	sa := SimulatedAnnealing{
		Schedule: schedule.NewGeometric(1.0, 0.9, -30, true),
		Limits:   Limits{MaxSteps: 500, NbestSize: 3},
	}
	best, aborted := sa.Run(ds, gen, rnd)
	if aborted {
		t.Fatalf("search aborted unexpectedly")
	}
	top, ok := best.Best()
	if !ok {
		t.Fatalf("expected a best state after search")
	}
	if top.GetScore() < initial {
		t.Fatalf("best score %v regressed below initial score %v", top.GetScore(), initial)
	}
}

func TestHillClimbingTerminatesAndImproves(t *testing.T) {
	ds, gen, rnd := buildSearchableState(t, 23)
	initial := ds.GetScore()

	hc := HillClimbing{
		Schedule: schedule.NewHillClimbing(100),
		Limits:   Limits{MaxSteps: 2000, NbestSize: 3},
	}
	best, aborted := hc.Run(ds, gen, rnd)
	if aborted {
		t.Fatalf("search aborted unexpectedly")
	}
	top, ok := best.Best()
	if !ok {
		t.Fatalf("expected a best state after search")
	}
	if top.GetScore() < initial {
		t.Fatalf("best score %v regressed below initial score %v", top.GetScore(), initial)
	}
}

func TestLocalBeamSearchMaintainsBeamAndImproves(t *testing.T) {
	ds, gen, rnd := buildSearchableState(t, 37)
	initial := ds.GetScore()

	lb := LocalBeamSearch{
		Schedule: schedule.NewGeometric(1.0, 0.95, -30, true),
		Limits:   Limits{MaxSteps: 500, NbestSize: 3},
		BeamSize: 5,
	}
	best, aborted := lb.Run(ds, gen, rnd)
	if aborted {
		t.Fatalf("search aborted unexpectedly")
	}
	top, ok := best.Best()
	if !ok {
		t.Fatalf("expected a best state after search")
	}
	if top.GetScore() < initial {
		t.Fatalf("best score %v regressed below initial score %v", top.GetScore(), initial)
	}
}

func TestHillClimbingRespectsMaxStepsBound(t *testing.T) {
	ds, gen, rnd := buildSearchableState(t, 41)
	hc := HillClimbing{
		Schedule: schedule.NewHillClimbing(1_000_000),
		Limits:   Limits{MaxSteps: 50},
	}
	// With a max-rejected cap effectively disabled, MaxSteps is the only
	// thing that can stop this search; it must still return.
	if _, aborted := hc.Run(ds, gen, rnd); aborted {
		t.Fatalf("search aborted unexpectedly")
	}
}
