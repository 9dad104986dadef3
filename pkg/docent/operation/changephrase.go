package operation

import (
	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/random"
	"github.com/chardmeier/docent/pkg/docent/state"
	"github.com/chardmeier/docent/pkg/docent/step"
)

// ChangePhraseTranslation picks a length-weighted sentence and a uniformly
// random phrase position within it, then asks the sentence's collection
// for an alternative translation covering the same source span. Refuses if
// the collection has nothing different to offer (§4.3.1).
type ChangePhraseTranslation struct{}

func (ChangePhraseTranslation) Name() string { return "change-phrase-translation" }

func (ChangePhraseTranslation) Propose(doc *state.DocumentState, rnd *random.Source) (*step.SearchStep, bool) {
	sentno := doc.DrawSentence(rnd)
	seg := doc.Segmentation(sentno)
	if len(seg) == 0 {
		return nil, false
	}
	idx := rnd.DrawFromRange(0, len(seg)-1)
	old := seg[idx]

	alt := doc.Collections[sentno].ProposeAlternativeTranslation(old)
	if alt.Pair.Equal(old.Pair) {
		return nil, false
	}

	s := step.New(doc, "change-phrase-translation")
	s.Add(sentno, idx, idx+1, phrase.Segmentation{alt})
	return s, true
}
