package operation

import (
	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/random"
	"github.com/chardmeier/docent/pkg/docent/state"
	"github.com/chardmeier/docent/pkg/docent/step"
)

const blockPickRetries = 10

// pickBlock finds a sentence of size >= 2 (retrying up to blockPickRetries
// length-weighted draws) and a block of phrases within it: length drawn
// from a truncated geometric (decay, capped at sentsize-1) plus one, start
// position uniform. Shared by PermutePhrases, LinearisePhrases and
// Resegment's own variant.
func pickBlock(doc *state.DocumentState, rnd *random.Source, decay float64) (sentno int, seg phrase.Segmentation, start, n int, ok bool) {
	for attempt := 0; attempt < blockPickRetries; attempt++ {
		sentno = doc.DrawSentence(rnd)
		seg = doc.Segmentation(sentno)
		if len(seg) >= 2 {
			n = rnd.DrawFromGeometric(decay, len(seg)-1) + 1
			if n > len(seg) {
				n = len(seg)
			}
			start = rnd.DrawFromRange(0, len(seg)-n)
			return sentno, seg, start, n, true
		}
	}
	return 0, nil, 0, 0, false
}

// PermutePhrases draws a block of phrases and shuffles it, retrying the
// shuffle until it differs from the original order (up to blockPickRetries
// times), then trims the equal prefix/suffix to tighten the Modification to
// the actually changed sub-range (§4.3.2).
type PermutePhrases struct {
	Decay float64
}

func (PermutePhrases) Name() string { return "permute-phrases" }

func (p PermutePhrases) Propose(doc *state.DocumentState, rnd *random.Source) (*step.SearchStep, bool) {
	sentno, seg, start, n, ok := pickBlock(doc, rnd, p.Decay)
	if !ok {
		return nil, false
	}
	original := seg[start : start+n]

	var shuffled phrase.Segmentation
	differs := false
	for attempt := 0; attempt < blockPickRetries; attempt++ {
		shuffled = original.Clone()
		rnd.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if !shuffled.Equal(original) {
			differs = true
			break
		}
	}
	if !differs {
		return nil, false
	}

	return finishReorder(doc, sentno, start, n, original, shuffled, "permute-phrases"), true
}

// finishReorder trims the common prefix/suffix between the original block
// and its proposed replacement, then builds the (possibly empty) resulting
// SearchStep. It always returns a step; callers detect refusals themselves
// before calling it (this helper assumes original != proposed already).
func finishReorder(doc *state.DocumentState, sentno, start, n int, original, proposed phrase.Segmentation, operator string) *step.SearchStep {
	prefix := commonPrefixLen(original, proposed)
	maxSuffix := n - prefix
	if other := len(proposed) - prefix; other < maxSuffix {
		maxSuffix = other
	}
	suffix := commonSuffixLen(original, proposed, maxSuffix)

	from := start + prefix
	to := start + n - suffix
	mid := proposed[prefix : len(proposed)-suffix]

	s := step.New(doc, operator)
	s.Add(sentno, from, to, mid)
	return s
}
