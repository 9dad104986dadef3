// Package operation implements the StateOperation family (§4.3): the six
// proposal operators, the PhrasePairCollection-backed segmentation sampler
// consumers, and StateGenerator (§4.6 in this package's numbering; §2 row 6
// / §4.3 in spec.md), which picks an operator by weighted draw and bounds
// consecutive refusals. The initial DocumentState segmentation is built by
// the StateInitialiser variants, also in this package.
package operation

import (
	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/random"
	"github.com/chardmeier/docent/pkg/docent/state"
	"github.com/chardmeier/docent/pkg/docent/step"
)

// Operation is a proposal operator: given the current DocumentState and a
// random source, it either returns a SearchStep or refuses (ok=false).
// Refusals propagate to StateGenerator, which tolerates up to a bounded
// number of consecutive refusals before declaring the document immovable.
type Operation interface {
	Name() string
	Propose(doc *state.DocumentState, rnd *random.Source) (*step.SearchStep, bool)
}

// commonPrefixLen returns how many leading elements of a and b are
// pairwise equal.
func commonPrefixLen(a, b phrase.Segmentation) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i].Equal(b[i]) {
		i++
	}
	return i
}

// commonSuffixLen returns how many trailing elements of a and b are
// pairwise equal, never exceeding limit (so the prefix and suffix trims
// computed from the same pair never overlap).
func commonSuffixLen(a, b phrase.Segmentation, limit int) int {
	i := 0
	for i < limit && a[len(a)-1-i].Equal(b[len(b)-1-i]) {
		i++
	}
	return i
}
