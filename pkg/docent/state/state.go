// Package state implements DocumentState (§4.2): the document-wide
// segmentation hypothesis the search mutates, together with its feature
// score vector and per-feature opaque state.
package state

import (
	"github.com/chardmeier/docent/pkg/docent/feature"
	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/phrasetable"
	"github.com/chardmeier/docent/pkg/docent/random"
)

// MoveCounts tracks, per operator name, the bookkeeping the original keeps
// for diagnostics and acceptance-rate tuning. ApplyModifications increments
// both counters for every applied step; proposals that are never applied
// are not counted, so Attempted equals Accepted.
type MoveCounts struct {
	Attempted, Accepted int
}

// DocumentState holds one hypothesis for an entire document: the current
// segmentation of every sentence, the combined feature score vector, one
// opaque per-feature State, and a monotonic generation counter that guards
// against applying a stale SearchStep (I4).
type DocumentState struct {
	Collections   []*phrasetable.Collection // one per sentence, precomputed candidates
	segs          []phrase.Segmentation     // one per sentence, current hypothesis
	Features      []*feature.Instantiation
	featureStates []feature.State
	Weights       []float64 // one weight per score-vector entry
	scores        []float64 // total feature score vector, len == sum of NumberOfScores()

	generation int
	moves      map[string]*MoveCounts

	cumLength []float64 // cumulative source-sentence length, for drawSentence
}

// New builds a DocumentState from per-sentence phrase-table Collections and
// an initial segmentation for each (supplied by a StateInitialiser), then
// runs InitDocument on every feature function in configuration order,
// accumulating the score vector (§4.2 Construction).
func New(collections []*phrasetable.Collection, initial []phrase.Segmentation, features []*feature.Instantiation, weights []float64) *DocumentState {
	ds := &DocumentState{
		Collections: collections,
		segs:        initial,
		Features:    features,
		Weights:     weights,
		moves:       make(map[string]*MoveCounts),
	}

	total := 0
	for _, fi := range features {
		total += fi.NumberOfScores()
	}
	ds.scores = make([]float64, total)
	ds.featureStates = make([]feature.State, len(features))

	for i, fi := range features {
		st, sc := fi.Impl.InitDocument(ds)
		ds.featureStates[i] = st
		copy(fi.Slice(ds.scores), sc)
	}

	ds.cumLength = make([]float64, len(initial))
	running := 0.0
	for i, seg := range initial {
		running += float64(seg.Coverage().Count())
		ds.cumLength[i] = running
	}
	return ds
}

// NumSentences implements feature.Document.
func (ds *DocumentState) NumSentences() int { return len(ds.segs) }

// Segmentation implements feature.Document.
func (ds *DocumentState) Segmentation(sentno int) phrase.Segmentation { return ds.segs[sentno] }

// FeatureState returns the opaque state for the i-th configured feature.
func (ds *DocumentState) FeatureState(i int) feature.State { return ds.featureStates[i] }

// Generation returns the current commit counter (I4).
func (ds *DocumentState) Generation() int { return ds.generation }

// Scores returns the full feature score vector.
func (ds *DocumentState) Scores() []float64 { return ds.scores }

// GetScore returns the inner product of the score vector and the configured
// weight vector (§4.2 getScore).
func (ds *DocumentState) GetScore() float64 {
	total := 0.0
	for i, s := range ds.scores {
		total += s * ds.Weights[i]
	}
	return total
}

// DrawSentence samples a sentence index with probability proportional to
// its source length (§4.2 drawSentence).
func (ds *DocumentState) DrawSentence(rnd *random.Source) int {
	return rnd.DrawFromCumulative(ds.cumLength)
}

// MoveCounts returns the (attempted, accepted) counters for operator name,
// creating a zeroed entry on first access.
func (ds *DocumentState) MoveCounts(operator string) *MoveCounts {
	mc, ok := ds.moves[operator]
	if !ok {
		mc = &MoveCounts{}
		ds.moves[operator] = mc
	}
	return mc
}

// Step is the view of a SearchStep that ApplyModifications needs. It is
// defined here, not imported from package step, to avoid a dependency
// cycle (step needs DocumentState to read sentences when computing
// estimates); step.SearchStep satisfies this interface structurally.
type Step interface {
	Generation() int
	Operator() string
	Modifications() int
	Modification(i int) (sentno, from, to int, proposal phrase.Segmentation)
	FeatureModifications() []feature.StateModification
	FinalScores() []float64
}

// ApplyModifications consumes one accepted SearchStep: it asserts the
// generation guard (I4), updates the operator's move counters, splices
// every (consolidated) Modification into its sentence's segmentation,
// installs the step's final score vector, lets every feature with a
// non-nil modification install it, and bumps the generation counter
// (§4.2 applyModifications).
func (ds *DocumentState) ApplyModifications(step Step) {
	if step.Generation() != ds.generation {
		panic("docent: stale SearchStep applied to DocumentState (generation mismatch)")
	}
	mc := ds.MoveCounts(step.Operator())
	mc.Attempted++
	mc.Accepted++

	for i := 0; i < step.Modifications(); i++ {
		sentno, from, to, proposal := step.Modification(i)
		ds.segs[sentno] = ds.segs[sentno].Splice(from, to, proposal)
	}

	copy(ds.scores, step.FinalScores())

	mods := step.FeatureModifications()
	for i, fi := range ds.Features {
		if mods[i] == nil {
			continue
		}
		ds.featureStates[i] = fi.Impl.ApplyStateModifications(ds.featureStates[i], mods[i])
	}

	ds.generation++
}

// Equal reports whether two states have element-wise equal segmentations
// for every sentence (§4.2 Equality; configuration-pointer equality is
// implicit since both states in a decoding run always share configuration).
func (ds *DocumentState) Equal(o *DocumentState) bool {
	if len(ds.segs) != len(o.segs) {
		return false
	}
	for i := range ds.segs {
		if !ds.segs[i].Equal(o.segs[i]) {
			return false
		}
	}
	return true
}

// Clone deep-copies a DocumentState: segmentations are copied, feature
// states are cloned through their polymorphic Clone, and Collections /
// Features / Weights are shared (immutable for the run), matching the
// "feature states are cloned O(1) times per search, at NbestStorage.offer"
// resource policy of §5.
func (ds *DocumentState) Clone() *DocumentState {
	clone := &DocumentState{
		Collections: ds.Collections,
		Features:    ds.Features,
		Weights:     ds.Weights,
		generation:  ds.generation,
		cumLength:   ds.cumLength,
	}
	clone.segs = make([]phrase.Segmentation, len(ds.segs))
	for i, s := range ds.segs {
		clone.segs[i] = s.Clone()
	}
	clone.scores = append([]float64(nil), ds.scores...)
	clone.featureStates = make([]feature.State, len(ds.featureStates))
	for i, st := range ds.featureStates {
		clone.featureStates[i] = st.Clone()
	}
	clone.moves = make(map[string]*MoveCounts, len(ds.moves))
	for k, v := range ds.moves {
		cp := *v
		clone.moves[k] = &cp
	}
	return clone
}
