// Package nbest implements NbestStorage (§4.6): a bounded, deduplicated
// max-k store of the best document states seen during search, backed by a
// container/heap min-heap keyed on score so eviction and the reject-fast
// path are both O(log k).
package nbest

import (
	"container/heap"
	"math"
)

// Document is the minimal view of a document state NbestStorage needs: a
// score to order by and an equality test to deduplicate by. Satisfied by
// *state.DocumentState (kept as an interface here to avoid importing
// state, which has no need to import nbest).
type Document[T any] interface {
	GetScore() float64
	Equal(other T) bool
	Clone() T
}

type entry[T Document[T]] struct {
	doc   T
	score float64
}

type minHeap[T Document[T]] []entry[T]

func (h minHeap[T]) Len() int            { return len(h) }
func (h minHeap[T]) Less(i, j int) bool  { return h[i].score < h[j].score }
func (h minHeap[T]) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap[T]) Push(x interface{}) { *h = append(*h, x.(entry[T])) }
func (h *minHeap[T]) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Storage is the bounded deduplicated heap itself, sized to hold at most
// Capacity document states.
type Storage[T Document[T]] struct {
	Capacity int
	heap     minHeap[T]
	best     *T
	bestSc   float64
}

// New returns an empty Storage bounded at capacity.
func New[T Document[T]](capacity int) *Storage[T] {
	return &Storage[T]{Capacity: capacity}
}

// Len returns the number of entries currently stored.
func (s *Storage[T]) Len() int { return len(s.heap) }

// LowestScore returns the score of the worst retained entry, or negative
// infinity if empty — the O(1) reject threshold Offer checks against.
func (s *Storage[T]) LowestScore() float64 {
	if len(s.heap) == 0 {
		return math.Inf(-1)
	}
	return s.heap[0].score
}

// Offer proposes doc for inclusion (§4.6 offer):
//  1. reject if doc's score doesn't beat the current minimum and storage is full,
//     or if an equal document is already stored;
//  2. clone doc, push it in;
//  3. while oversize, evict the minimum.
//
// Offer returns whether doc was accepted.
func (s *Storage[T]) Offer(doc T) bool {
	score := doc.GetScore()
	if len(s.heap) >= s.Capacity && score <= s.LowestScore() {
		return false
	}
	for _, e := range s.heap {
		if e.doc.Equal(doc) {
			return false
		}
	}

	heap.Push(&s.heap, entry[T]{doc: doc.Clone(), score: score})
	for len(s.heap) > s.Capacity {
		heap.Pop(&s.heap)
	}

	if s.best == nil || score > s.bestSc {
		d := doc.Clone()
		s.best = &d
		s.bestSc = score
	}
	return true
}

// PickRandom returns a uniformly random entry from the current contents,
// via the supplied draw function (an index in [0, Len())). Used by
// LocalBeamSearch to pick the document to propose from next.
func (s *Storage[T]) PickRandom(draw func(n int) int) (T, bool) {
	var zero T
	if len(s.heap) == 0 {
		return zero, false
	}
	return s.heap[draw(len(s.heap))].doc, true
}

// Best returns the highest-scoring document ever accepted (a cached clone,
// updated by Offer on each accepted improvement rather than found by
// scanning the heap).
func (s *Storage[T]) Best() (T, bool) {
	if s.best == nil {
		var zero T
		return zero, false
	}
	return *s.best, true
}

// CopyDescending returns the current contents sorted by descending score,
// the shape the driver and the CLI tools emit as an n-best list.
func (s *Storage[T]) CopyDescending() []T {
	cp := make(minHeap[T], len(s.heap))
	copy(cp, s.heap)
	out := make([]T, 0, len(cp))
	for len(cp) > 0 {
		top := heap.Pop(&cp).(entry[T])
		out = append(out, top.doc)
	}
	// cp pops ascending (min-heap); reverse to get descending order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
