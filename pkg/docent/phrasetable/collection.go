package phrasetable

import (
	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/random"
)

// Collection is the per-sentence set of candidate phrase pairs, precomputed
// once from a Table backend by querying every contiguous source span. It
// provides the segmentation sampler the state operators use (§4.4).
type Collection struct {
	rnd    *random.Source
	length int
	pairs  []phrase.AnchoredPair
}

// Build queries backend for every contiguous span of source and interns the
// results through table, producing the Collection that drives sampling for
// this one sentence.
func Build(source phrase.Words, backend Table, table *phrase.Table, rnd *random.Source) *Collection {
	c := &Collection{rnd: rnd, length: len(source)}
	for from := 0; from < len(source); from++ {
		for to := from + 1; to <= len(source); to++ {
			entries, found := backend.Query(source[from:to])
			if !found {
				continue
			}
			cov := phrase.NewCoverage(from, to)
			for _, e := range entries {
				pair := table.Intern(phrase.Data{
					Source:      append(phrase.Words{}, source[from:to]...),
					Target:      e.Target,
					Annotations: e.Annotations,
					Alignment:   e.Alignment,
					Scores:      e.Scores,
					OOV:         e.OOV,
				})
				c.pairs = append(c.pairs, phrase.AnchoredPair{Coverage: cov, Pair: pair})
			}
		}
	}
	return c
}

// Length returns the sentence's word count.
func (c *Collection) Length() int { return c.length }

func isSubset(a, of phrase.Coverage) bool {
	return a.Subtract(of).IsZero()
}

func (c *Collection) candidatesAt(firstBit int, remaining phrase.Coverage) []phrase.AnchoredPair {
	var out []phrase.AnchoredPair
	for _, ap := range c.pairs {
		if ap.Coverage.FirstSet() == firstBit && isSubset(ap.Coverage, remaining) {
			out = append(out, ap)
		}
	}
	return out
}

// ProposeSegmentation samples a complete segmentation of the whole sentence
// via the recursive leftmost-uncovered backtracking search described in
// §4.4: at each level the candidates covering the leftmost uncovered word
// are tried in random order and the first that completes is kept. Every
// legal segmentation can be drawn, but not all with equal probability.
func (c *Collection) ProposeSegmentation() (phrase.Segmentation, bool) {
	return c.ProposeSegmentationRange(phrase.Full(c.length))
}

// ProposeSegmentationRange samples a segmentation restricted to the given
// coverage region (used by Resegment, which only wants a fresh breakdown of
// a contiguous sub-span).
func (c *Collection) ProposeSegmentationRange(region phrase.Coverage) (phrase.Segmentation, bool) {
	return c.search(region)
}

func (c *Collection) search(remaining phrase.Coverage) (phrase.Segmentation, bool) {
	if remaining.IsZero() {
		return phrase.Segmentation{}, true
	}
	b := remaining.FirstSet()
	candidates := c.candidatesAt(b, remaining)
	if len(candidates) == 0 {
		return nil, false
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	c.rnd.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	for _, idx := range order {
		choice := candidates[idx]
		rest := remaining.Subtract(choice.Coverage)
		tail, ok := c.search(rest)
		if !ok {
			continue
		}
		seg := make(phrase.Segmentation, 0, len(tail)+1)
		seg = append(seg, choice)
		seg = append(seg, tail...)
		return seg, true
	}
	return nil, false
}

// ProposeAlternativeTranslation returns a phrase pair covering the same
// source span as old but with (uniformly randomly chosen) different
// content. If no alternative exists, it returns old unchanged, matching the
// original's "no-op on starvation" contract relied on by ChangePhraseTranslation.
func (c *Collection) ProposeAlternativeTranslation(old phrase.AnchoredPair) phrase.AnchoredPair {
	var alternatives []phrase.AnchoredPair
	for _, ap := range c.pairs {
		if ap.Coverage.Equal(old.Coverage) && !ap.Pair.Equal(old.Pair) {
			alternatives = append(alternatives, ap)
		}
	}
	if len(alternatives) == 0 {
		return old
	}
	return alternatives[c.rnd.DrawFromRange(0, len(alternatives)-1)]
}

// PhrasesExist reports whether every AnchoredPair in seg is a phrase pair
// this collection actually knows about, the validity check the saved-state
// initialiser runs after reloading a segmentation from disk.
func (c *Collection) PhrasesExist(seg phrase.Segmentation) bool {
	for _, want := range seg {
		found := false
		for _, have := range c.pairs {
			if have.Equal(want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
