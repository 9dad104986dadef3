package operation

import (
	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/random"
	"github.com/chardmeier/docent/pkg/docent/state"
	"github.com/chardmeier/docent/pkg/docent/step"
)

// SwapPhrases picks a phrase position, a direction (forward preferred at
// the left edge, backward at the right edge, else a coin flip), and a
// second position at a geometrically-distributed distance in that
// direction, then exchanges their content (§4.3.4).
type SwapPhrases struct {
	Decay float64
}

func (SwapPhrases) Name() string { return "swap-phrases" }

func (sw SwapPhrases) Propose(doc *state.DocumentState, rnd *random.Source) (*step.SearchStep, bool) {
	sentno := doc.DrawSentence(rnd)
	seg := doc.Segmentation(sentno)
	if len(seg) < 2 {
		return nil, false
	}

	idx1 := rnd.DrawFromRange(0, len(seg)-1)
	var forward bool
	switch {
	case idx1 == 0:
		forward = true
	case idx1 == len(seg)-1:
		forward = false
	default:
		forward = rnd.FlipCoin(0.5)
	}

	var maxDist int
	if forward {
		maxDist = len(seg) - 1 - idx1
	} else {
		maxDist = idx1
	}
	if maxDist == 0 {
		return nil, false
	}
	dist := rnd.DrawFromGeometric(sw.Decay, maxDist-1) + 1

	var idx2 int
	if forward {
		idx2 = idx1 + dist
	} else {
		idx2 = idx1 - dist
	}
	if idx1 == idx2 {
		return nil, false
	}

	lo, hi := idx1, idx2
	if lo > hi {
		lo, hi = hi, lo
	}

	s := step.New(doc, "swap-phrases")
	s.Add(sentno, lo, lo+1, phrase.Segmentation{seg[hi]})
	s.Add(sentno, hi, hi+1, phrase.Segmentation{seg[lo]})
	return s, true
}
