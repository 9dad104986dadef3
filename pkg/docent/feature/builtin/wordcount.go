package builtin

import "github.com/chardmeier/docent/pkg/docent/feature"

// WordCount scores a document by its total target-side word count, weighted
// negatively in typical configurations to discourage needlessly verbose
// translations. It keeps no state beyond the running total: estimate and
// update are the same cheap O(edit-size) computation, since this feature
// has nothing resembling the document-scoped cache §4.1 distinguishes.
type WordCount struct{}

type wordCountState struct{ total int }

func (s *wordCountState) Clone() feature.State {
	return &wordCountState{total: s.total}
}

func (WordCount) NumberOfScores() int { return 1 }

func (WordCount) InitDocument(doc feature.Document) (feature.State, []float64) {
	total := 0
	for i := 0; i < doc.NumSentences(); i++ {
		for _, ap := range doc.Segmentation(i) {
			total += len(ap.Pair.Data().Target)
		}
	}
	return &wordCountState{total: total}, []float64{float64(total)}
}

func (w WordCount) EstimateScoreUpdate(doc feature.Document, step feature.Step, prev feature.State, prevScores []float64) (feature.StateModification, []float64) {
	return w.UpdateScore(doc, step, prev, nil, prevScores)
}

func (WordCount) UpdateScore(doc feature.Document, step feature.Step, prev feature.State, _ feature.StateModification, prevScores []float64) (feature.StateModification, []float64) {
	st := prev.(*wordCountState)
	delta := 0
	for i := 0; i < step.Modifications(); i++ {
		sentno, from, to, proposal := step.Modification(i)
		for _, ap := range proposal {
			delta += len(ap.Pair.Data().Target)
		}
		for _, ap := range doc.Segmentation(sentno)[from:to] {
			delta -= len(ap.Pair.Data().Target)
		}
	}
	return wordCountMod{newTotal: st.total + delta}, []float64{prevScores[0] + float64(delta)}
}

type wordCountMod struct{ newTotal int }

func (WordCount) ApplyStateModifications(old feature.State, mod feature.StateModification) feature.State {
	st := old.(*wordCountState)
	m := mod.(wordCountMod)
	st.total = m.newTotal
	return st
}

func (WordCount) ComputeSentenceScores(doc feature.Document, sentno int) []float64 {
	total := 0
	for _, ap := range doc.Segmentation(sentno) {
		total += len(ap.Pair.Data().Target)
	}
	return []float64{float64(total)}
}
