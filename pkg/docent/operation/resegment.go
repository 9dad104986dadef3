package operation

import (
	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/random"
	"github.com/chardmeier/docent/pkg/docent/state"
	"github.com/chardmeier/docent/pkg/docent/step"
)

// Resegment draws a block the same way PermutePhrases does (size 1 is
// allowed, unlike the other block operators, since re-breaking a single
// phrase into smaller ones is a legal and useful move), then asks the
// sentence's collection to resample a fresh segmentation of exactly that
// block's source span. Refuses if the collection has no legal alternative
// breakdown or resamples the identical one (§4.3.6).
type Resegment struct {
	Decay float64
}

func (Resegment) Name() string { return "resegment" }

func (r Resegment) Propose(doc *state.DocumentState, rnd *random.Source) (*step.SearchStep, bool) {
	sentno := doc.DrawSentence(rnd)
	seg := doc.Segmentation(sentno)
	if len(seg) == 0 {
		return nil, false
	}

	n := rnd.DrawFromGeometric(r.Decay, len(seg)-1) + 1
	if n > len(seg) {
		n = len(seg)
	}
	start := rnd.DrawFromRange(0, len(seg)-n)
	original := seg[start : start+n]

	var region phrase.Coverage
	for _, ap := range original {
		region = region.Union(ap.Coverage)
	}

	proposed, ok := doc.Collections[sentno].ProposeSegmentationRange(region)
	if !ok {
		return nil, false
	}
	if proposed.Equal(original) {
		return nil, false
	}

	return finishReorder(doc, sentno, start, n, original, proposed, "resegment"), true
}
