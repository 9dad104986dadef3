package operation

import (
	"sort"

	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/random"
	"github.com/chardmeier/docent/pkg/docent/state"
	"github.com/chardmeier/docent/pkg/docent/step"
)

// LinearisePhrases draws a block the same way PermutePhrases does, but
// proposes the block sorted into coverage order (by first covered source
// position) rather than a random shuffle; refuses if the block is already
// sorted (§4.3.3).
type LinearisePhrases struct {
	Decay float64
}

func (LinearisePhrases) Name() string { return "linearise-phrases" }

func (l LinearisePhrases) Propose(doc *state.DocumentState, rnd *random.Source) (*step.SearchStep, bool) {
	sentno, seg, start, n, ok := pickBlock(doc, rnd, l.Decay)
	if !ok {
		return nil, false
	}
	original := seg[start : start+n]

	sorted := original.Clone()
	sort.Slice(sorted, func(i, j int) bool { return phrase.Compare(sorted[i], sorted[j]) < 0 })
	if sorted.Equal(original) {
		return nil, false
	}

	return finishReorder(doc, sentno, start, n, original, sorted, "linearise-phrases"), true
}
