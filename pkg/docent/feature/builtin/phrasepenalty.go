// Package builtin provides the small set of illustrative feature functions
// needed to exercise the core end to end: a per-phrase penalty (the feature
// spec.md's end-to-end scenario 1 names explicitly), a word-count feature,
// and a document-scoped discourse-consistency feature that demonstrates the
// "complex document-scoped cache" case §4.1 calls out.
package builtin

import "github.com/chardmeier/docent/pkg/docent/feature"

// PhrasePenalty scores each sentence by the negated number of phrases in its
// segmentation. The search always accepts an improving (larger) score, so a
// positive configured weight rewards fewer, longer phrases: with weight 1.0
// the monotonic `a b c` segmentation (3 phrases) scores -3, and merging down
// to the single phrase `ABC` scores -1, the higher, preferred score — the
// scenario 1 corpus from spec.md §8.
type PhrasePenalty struct{}

type phrasePenaltyState struct{ perSentence []int }

func (s *phrasePenaltyState) Clone() feature.State {
	cp := make([]int, len(s.perSentence))
	copy(cp, s.perSentence)
	return &phrasePenaltyState{perSentence: cp}
}

func (PhrasePenalty) NumberOfScores() int { return 1 }

func (PhrasePenalty) InitDocument(doc feature.Document) (feature.State, []float64) {
	st := &phrasePenaltyState{perSentence: make([]int, doc.NumSentences())}
	total := 0
	for i := 0; i < doc.NumSentences(); i++ {
		n := len(doc.Segmentation(i))
		st.perSentence[i] = n
		total += n
	}
	return st, []float64{-float64(total)}
}

func (p PhrasePenalty) EstimateScoreUpdate(doc feature.Document, step feature.Step, prev feature.State, prevScores []float64) (feature.StateModification, []float64) {
	return p.UpdateScore(doc, step, prev, nil, prevScores)
}

func (PhrasePenalty) UpdateScore(_ feature.Document, step feature.Step, prev feature.State, _ feature.StateModification, prevScores []float64) (feature.StateModification, []float64) {
	st := prev.(*phrasePenaltyState)
	delta := 0
	mod := make(phrasePenaltyMod, step.Modifications())
	for i := 0; i < step.Modifications(); i++ {
		sentno, from, to, proposal := step.Modification(i)
		change := len(proposal) - (to - from)
		delta += change
		mod[sentno] = st.perSentence[sentno] + change
	}
	return mod, []float64{prevScores[0] - float64(delta)}
}

type phrasePenaltyMod map[int]int

func (PhrasePenalty) ApplyStateModifications(old feature.State, mod feature.StateModification) feature.State {
	st := old.(*phrasePenaltyState)
	for sentno, n := range mod.(phrasePenaltyMod) {
		st.perSentence[sentno] = n
	}
	return st
}

func (PhrasePenalty) ComputeSentenceScores(doc feature.Document, sentno int) []float64 {
	return []float64{-float64(len(doc.Segmentation(sentno)))}
}
