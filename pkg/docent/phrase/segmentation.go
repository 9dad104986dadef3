package phrase

// Segmentation is the ordered sequence of AnchoredPairs covering one
// sentence. The original implementation used a splice-friendly linked list
// with stable iterators into unchanged regions; here Modifications address
// positions by plain slice index instead (see step.Modification), so
// Segmentation is simply a slice.
//
// Invariants: the Coverage fields of consecutive elements are pairwise
// disjoint and their union equals the full sentence coverage; target order
// equals list order.
type Segmentation []AnchoredPair

// Clone returns a shallow copy (AnchoredPair values are themselves
// immutable handles, so a shallow copy is a full logical copy).
func (s Segmentation) Clone() Segmentation {
	out := make(Segmentation, len(s))
	copy(out, s)
	return out
}

// Coverage returns the union of every element's coverage bitmap.
func (s Segmentation) Coverage() Coverage {
	var c Coverage
	for _, ap := range s {
		c = c.Union(ap.Coverage)
	}
	return c
}

// Equal reports whether two segmentations have the same length and the
// same AnchoredPair at every position, the equality DocumentState uses to
// compare two documents' hypotheses (spec.md I5, R2).
func (s Segmentation) Equal(o Segmentation) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if !s[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Splice replaces the elements [from, to) with proposal, returning a new
// Segmentation. It never aliases s's backing array with proposal's, so
// callers may keep using proposal afterward.
func (s Segmentation) Splice(from, to int, proposal Segmentation) Segmentation {
	out := make(Segmentation, 0, len(s)-(to-from)+len(proposal))
	out = append(out, s[:from]...)
	out = append(out, proposal...)
	out = append(out, s[to:]...)
	return out
}
