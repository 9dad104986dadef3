package builtin

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/chardmeier/docent/pkg/docent/feature"
)

// DiscourseConsistency penalises a document for translating the same source
// phrase two different ways. It is the illustrative stand-in for the
// "complex document-scoped cache" features §4.1 describes as carrying the
// full state-modification machinery: its State owns a bounded LRU of
// source-phrase -> most-recent-target-phrase, so a long document's memory
// for this feature stays O(cache capacity), not O(document length).
//
// Unlike PhrasePenalty and WordCount, its estimate and exact computation
// coincide: incrementally bounding consistency-count changes against an
// LRU whose eviction order depends on global history isn't worth staging
// two separate code paths for an illustrative feature, so the "estimate"
// is simply the same exact pass, a valid (if loose) upper bound.
type DiscourseConsistency struct {
	Capacity int // LRU capacity; 0 means DefaultDiscourseCacheSize
}

// DefaultDiscourseCacheSize bounds the per-document LRU when Capacity is unset.
const DefaultDiscourseCacheSize = 256

func (d DiscourseConsistency) capacity() int {
	if d.Capacity > 0 {
		return d.Capacity
	}
	return DefaultDiscourseCacheSize
}

type discourseState struct {
	cache        *lru.Cache[string, string]
	inconsistent int
}

func (s *discourseState) Clone() feature.State {
	clone, _ := lru.New[string, string](s.cache.Len())
	if clone == nil {
		clone, _ = lru.New[string, string](1)
	}
	for _, key := range s.cache.Keys() {
		if v, ok := s.cache.Peek(key); ok {
			clone.Add(key, v)
		}
	}
	return &discourseState{cache: clone, inconsistent: s.inconsistent}
}

func (DiscourseConsistency) NumberOfScores() int { return 1 }

func (d DiscourseConsistency) InitDocument(doc feature.Document) (feature.State, []float64) {
	cache, _ := lru.New[string, string](d.capacity())
	st := &discourseState{cache: cache}
	for i := 0; i < doc.NumSentences(); i++ {
		for _, ap := range doc.Segmentation(i) {
			src := ap.Pair.Data().Source.String()
			tgt := ap.Pair.Data().Target.String()
			if prev, ok := cache.Get(src); ok && prev != tgt {
				st.inconsistent++
			}
			cache.Add(src, tgt)
		}
	}
	return st, []float64{-float64(st.inconsistent)}
}

type discourseWrite struct{ source, target string }
type discourseMod struct {
	writes       []discourseWrite
	inconsistent int
}

func (d DiscourseConsistency) EstimateScoreUpdate(doc feature.Document, step feature.Step, prev feature.State, prevScores []float64) (feature.StateModification, []float64) {
	return d.UpdateScore(doc, step, prev, nil, prevScores)
}

func (d DiscourseConsistency) UpdateScore(_ feature.Document, step feature.Step, prev feature.State, _ feature.StateModification, prevScores []float64) (feature.StateModification, []float64) {
	st := prev.(*discourseState)
	mod := discourseMod{inconsistent: st.inconsistent}
	for i := 0; i < step.Modifications(); i++ {
		_, _, _, proposal := step.Modification(i)
		for _, ap := range proposal {
			src := ap.Pair.Data().Source.String()
			tgt := ap.Pair.Data().Target.String()
			prevTgt, ok := st.cache.Peek(src)
			for _, w := range mod.writes {
				if w.source == src {
					prevTgt, ok = w.target, true
				}
			}
			if ok && prevTgt != tgt {
				mod.inconsistent++
			}
			mod.writes = append(mod.writes, discourseWrite{source: src, target: tgt})
		}
	}
	return mod, []float64{-float64(mod.inconsistent)}
}

func (DiscourseConsistency) ApplyStateModifications(old feature.State, modification feature.StateModification) feature.State {
	st := old.(*discourseState)
	mod := modification.(discourseMod)
	for _, w := range mod.writes {
		st.cache.Add(w.source, w.target)
	}
	st.inconsistent = mod.inconsistent
	return st
}

func (d DiscourseConsistency) ComputeSentenceScores(doc feature.Document, sentno int) []float64 {
	count := 0
	seen := make(map[string]string)
	for _, ap := range doc.Segmentation(sentno) {
		src := ap.Pair.Data().Source.String()
		tgt := ap.Pair.Data().Target.String()
		if prev, ok := seen[src]; ok && prev != tgt {
			count++
		}
		seen[src] = tgt
	}
	return []float64{-float64(count)}
}
