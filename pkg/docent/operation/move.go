package operation

import (
	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/random"
	"github.com/chardmeier/docent/pkg/docent/state"
	"github.com/chardmeier/docent/pkg/docent/step"
)

// MovePhrases draws a block (geometric size, decayed by SizeDecay) and
// relocates it past a geometrically-distributed run of its neighbours,
// favouring a rightward move with probability RightMovePreference and using
// independent decays for the two directions (§4.3.5). The erase-then-insert
// is expressed as one Modification over the combined affected span, since
// both edits touch the same sentence and must be applied together.
type MovePhrases struct {
	SizeDecay           float64
	LeftDecay           float64
	RightDecay          float64
	RightMovePreference float64
}

func (MovePhrases) Name() string { return "move-phrases" }

func (m MovePhrases) Propose(doc *state.DocumentState, rnd *random.Source) (*step.SearchStep, bool) {
	sentno := doc.DrawSentence(rnd)
	seg := doc.Segmentation(sentno)
	if len(seg) < 2 {
		return nil, false
	}

	blockSize := rnd.DrawFromGeometric(m.SizeDecay, len(seg)-1) + 1
	if blockSize > len(seg) {
		blockSize = len(seg)
	}
	start := rnd.DrawFromRange(0, len(seg)-blockSize)
	block := seg[start : start+blockSize]

	right := rnd.FlipCoin(m.RightMovePreference)

	if right {
		maxDist := len(seg) - (start + blockSize)
		if maxDist == 0 {
			return nil, false
		}
		dist := rnd.DrawFromGeometric(m.RightDecay, maxDist-1) + 1

		jumped := seg[start+blockSize : start+blockSize+dist]
		proposal := make(phrase.Segmentation, 0, len(jumped)+len(block))
		proposal = append(proposal, jumped...)
		proposal = append(proposal, block...)

		s := step.New(doc, "move-phrases")
		s.Add(sentno, start, start+blockSize+dist, proposal)
		return s, true
	}

	maxDist := start
	if maxDist == 0 {
		return nil, false
	}
	dist := rnd.DrawFromGeometric(m.LeftDecay, maxDist-1) + 1

	jumped := seg[start-dist : start]
	proposal := make(phrase.Segmentation, 0, len(jumped)+len(block))
	proposal = append(proposal, block...)
	proposal = append(proposal, jumped...)

	s := step.New(doc, "move-phrases")
	s.Add(sentno, start-dist, start+blockSize, proposal)
	return s, true
}
