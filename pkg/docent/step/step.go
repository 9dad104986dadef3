// Package step implements SearchStep (§4.5): a candidate, not-yet-committed
// edit to a document, its consolidation algorithm, and its two-phase lazy
// scoring protocol (estimate, then exact).
package step

import (
	"sort"

	"github.com/chardmeier/docent/pkg/docent/feature"
	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/state"
)

// Modification is one proposed local edit: replace sentence Sentno's
// segmentation positions [From, To) with Proposal. Within one SearchStep,
// Modifications must touch disjoint sentence spans before consolidation
// fuses adjacent ones together.
type Modification struct {
	Sentno   int
	From, To int
	Proposal phrase.Segmentation
}

type scoreState int

const (
	noScores scoreState = iota
	scoresEstimated
	scoresComputed
)

// SearchStep is a proposed edit bundle produced by one StateOperation. It
// carries the generation of its originating DocumentState so a stale step
// can never be applied (I4), and computes its score lazily in two phases:
// a cheap estimate used to reject before paying for the exact computation,
// then (only if the estimate clears the threshold) the exact score.
type SearchStep struct {
	doc        *state.DocumentState
	generation int
	operator   string
	mods         []Modification
	consolidated bool

	state scoreState

	featureMods     []feature.StateModification
	estimatedScores []float64
	finalScores     []float64
}

// New constructs an empty SearchStep referencing doc's current generation.
// Operators append Modifications to it before returning it to the search
// loop; a step with zero Modifications after construction is a refusal and
// must be discarded before consolidation (§8 boundary behavior).
func New(doc *state.DocumentState, operator string) *SearchStep {
	return &SearchStep{
		doc:        doc,
		generation: doc.Generation(),
		operator:   operator,
	}
}

// Add appends one Modification.
func (s *SearchStep) Add(sentno, from, to int, proposal phrase.Segmentation) {
	s.mods = append(s.mods, Modification{Sentno: sentno, From: from, To: to, Proposal: proposal})
}

// Generation returns the DocumentState generation this step was built
// against.
func (s *SearchStep) Generation() int { return s.generation }

// Operator returns the name of the operator that produced this step.
func (s *SearchStep) Operator() string { return s.operator }

// Empty reports whether the step carries no edits at all — the
// empty-modification-proposal case §8 requires callers to detect and
// discard before consolidation.
func (s *SearchStep) Empty() bool { return len(s.mods) == 0 }

// Modifications implements feature.Step / state.Step.
func (s *SearchStep) Modifications() int { return len(s.mods) }

// Modification implements feature.Step / state.Step.
func (s *SearchStep) Modification(i int) (sentno, from, to int, proposal phrase.Segmentation) {
	m := s.mods[i]
	return m.Sentno, m.From, m.To, m.Proposal
}

// Consolidate sorts Modifications by (Sentno, From) and fuses adjacent runs
// within the same sentence where the previous To equals the next From,
// concatenating their proposals (§4.5). It is idempotent (I7): consolidating
// an already-consolidated step is a no-op.
func (s *SearchStep) Consolidate() {
	if s.consolidated {
		return
	}
	sort.Slice(s.mods, func(i, j int) bool {
		if s.mods[i].Sentno != s.mods[j].Sentno {
			return s.mods[i].Sentno < s.mods[j].Sentno
		}
		return s.mods[i].From < s.mods[j].From
	})

	var out []Modification
	for _, m := range s.mods {
		if n := len(out); n > 0 && out[n-1].Sentno == m.Sentno && out[n-1].To == m.From {
			out[n-1].To = m.To
			out[n-1].Proposal = append(out[n-1].Proposal, m.Proposal...)
			continue
		}
		out = append(out, m)
	}
	s.mods = out
	s.consolidated = true
}

// FeatureModifications implements state.Step: one opaque StateModification
// per configured feature, populated once scoring has run.
func (s *SearchStep) FeatureModifications() []feature.StateModification { return s.featureMods }

// FinalScores implements state.Step.
func (s *SearchStep) FinalScores() []float64 { return s.finalScores }

func (s *SearchStep) ensureEstimated() {
	if s.state != noScores {
		return
	}
	s.Consolidate()
	s.featureMods = make([]feature.StateModification, len(s.doc.Features))
	scratch := append([]float64(nil), s.doc.Scores()...)
	for i, fi := range s.doc.Features {
		view := fi.Slice(scratch)
		mod, newSc := fi.Impl.EstimateScoreUpdate(s.doc, s, s.doc.FeatureState(i), view)
		copy(view, newSc)
		s.featureMods[i] = mod
	}
	s.estimatedScores = scratch
	s.state = scoresEstimated
}

func (s *SearchStep) ensureComputed() {
	s.ensureEstimated()
	if s.state == scoresComputed {
		return
	}
	scratch := append([]float64(nil), s.doc.Scores()...)
	for i, fi := range s.doc.Features {
		view := fi.Slice(scratch)
		mod, newSc := fi.Impl.UpdateScore(s.doc, s, s.doc.FeatureState(i), s.featureMods[i], view)
		copy(view, newSc)
		s.featureMods[i] = mod
	}
	s.finalScores = scratch
	s.state = scoresComputed
}

func weightedSum(scores, weights []float64) float64 {
	total := 0.0
	for i, sc := range scores {
		total += sc * weights[i]
	}
	return total
}

// GetScoreEstimate forces the estimate phase and returns the weighted-sum
// estimate (an upper bound on GetScore(), per I3).
func (s *SearchStep) GetScoreEstimate() float64 {
	s.ensureEstimated()
	return weightedSum(s.estimatedScores, s.doc.Weights)
}

// IsProvisionallyAcceptable forces the estimate phase and reports whether
// the estimated score clears threshold, letting the caller reject a step
// without ever paying for UpdateScore (§4.5).
func (s *SearchStep) IsProvisionallyAcceptable(threshold float64) bool {
	return s.GetScoreEstimate() > threshold
}

// GetScore forces the exact computation phase (only meaningful once the
// estimate has cleared a threshold) and returns the weighted-sum exact
// score.
func (s *SearchStep) GetScore() float64 {
	s.ensureComputed()
	return weightedSum(s.finalScores, s.doc.Weights)
}
