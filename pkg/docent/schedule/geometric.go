package schedule

import "math"

// Geometric implements T(n) = T0 * decay^n, terminating once log T drops
// below doneThreshold (the original uses approximately -30). By default n
// advances on every Step call; StepOnAcceptance restricts advancement to
// accepted steps only, matching the original's configurable stepOnAcceptance_
// flag (default false).
type Geometric struct {
	logT0            float64
	logDecay         float64
	doneThreshold    float64
	stepOnAcceptance bool
	n                int
}

// NewGeometric constructs a Geometric schedule. doneThreshold defaults to
// -30 when 0 is passed, matching the original.
func NewGeometric(t0, decay, doneThreshold float64, stepOnAcceptance bool) *Geometric {
	if doneThreshold == 0 {
		doneThreshold = -30
	}
	return &Geometric{
		logT0:            math.Log(t0),
		logDecay:         math.Log(decay),
		doneThreshold:    doneThreshold,
		stepOnAcceptance: stepOnAcceptance,
	}
}

func (g *Geometric) logT() float64 { return g.logT0 + float64(g.n)*g.logDecay }

func (g *Geometric) Temperature() float64 { return math.Exp(g.logT()) }

func (g *Geometric) IsDone() bool { return g.logT() < g.doneThreshold }

func (g *Geometric) Step(score float64, accepted bool) {
	if g.stepOnAcceptance && !accepted {
		return
	}
	g.n++
}
