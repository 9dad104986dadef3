package operation

import (
	"github.com/chardmeier/docent/internal/docenterr"
	"github.com/chardmeier/docent/pkg/docent/random"
	"github.com/chardmeier/docent/pkg/docent/state"
	"github.com/chardmeier/docent/pkg/docent/step"
)

// DefaultMaxConsecutiveRefusals bounds how many times in a row
// StateGenerator will retry a refused operator draw before giving up and
// reporting a TransientSearchFailure (§7, §8).
const DefaultMaxConsecutiveRefusals = 100

// StateGenerator draws an operator by weighted random choice and asks it to
// propose a SearchStep, retrying on refusal (nil step, or a step with no
// Modifications) up to MaxConsecutiveRefusals times (§4.6).
type StateGenerator struct {
	ops                    []Operation
	cumWeights             []float64
	rnd                    *random.Source
	MaxConsecutiveRefusals int
}

// NewStateGenerator builds a StateGenerator from parallel operator/weight
// slices. Weights need not sum to one; they are normalised implicitly by
// DrawFromCumulative. Returns a ConfigurationError if the slices are empty,
// mismatched in length, or every weight is non-positive.
func NewStateGenerator(rnd *random.Source, operators []Operation, weights []float64) (*StateGenerator, error) {
	if len(operators) == 0 || len(operators) != len(weights) {
		return nil, &docenterr.ConfigurationError{
			Path:   "search/state-generator/operation",
			Reason: "operator and weight lists must be non-empty and equal in length",
		}
	}
	cum := make([]float64, len(weights))
	running := 0.0
	for i, w := range weights {
		running += w
		cum[i] = running
	}
	if running <= 0 {
		return nil, &docenterr.ConfigurationError{
			Path:   "search/state-generator/operation",
			Param:  "weight",
			Reason: "at least one operator weight must be positive",
		}
	}
	return &StateGenerator{
		ops:                    operators,
		cumWeights:             cum,
		rnd:                    rnd,
		MaxConsecutiveRefusals: DefaultMaxConsecutiveRefusals,
	}, nil
}

func (g *StateGenerator) pick() Operation {
	idx := g.rnd.DrawFromCumulative(g.cumWeights)
	return g.ops[idx]
}

// CreateSearchStep repeatedly draws an operator and asks it to propose a
// step, discarding refusals (including a non-nil but Empty step, the
// empty-modification-proposal boundary case from §8) until one succeeds or
// MaxConsecutiveRefusals is exceeded, in which case ok is false and the
// caller should treat the document as having run dry for this iteration.
func (g *StateGenerator) CreateSearchStep(doc *state.DocumentState) (s *step.SearchStep, ok bool) {
	for i := 0; i < g.MaxConsecutiveRefusals; i++ {
		op := g.pick()
		s, proposed := op.Propose(doc, g.rnd)
		if !proposed || s == nil || s.Empty() {
			continue
		}
		return s, true
	}
	return nil, false
}
