// Package search implements the SearchAlgorithm family (§4.8): the outer
// loops that repeatedly ask a StateGenerator for a SearchStep, decide
// whether to commit it against a schedule-driven acceptance threshold, and
// collect the best states seen into an NbestStorage.
package search

import (
	"math"

	"github.com/chardmeier/docent/pkg/docent/nbest"
	"github.com/chardmeier/docent/pkg/docent/operation"
	"github.com/chardmeier/docent/pkg/docent/random"
	"github.com/chardmeier/docent/pkg/docent/schedule"
	"github.com/chardmeier/docent/pkg/docent/state"
)

// DefaultNbestSize is used when Limits.NbestSize is left at zero.
const DefaultNbestSize = 1

// Limits bounds how long an Algorithm is willing to run, independent of
// its schedule's own isDone notion (§4.8 termination guarantees).
type Limits struct {
	MaxSteps       int // <= 0 means unbounded
	MaxAccepted    int // <= 0 means unbounded
	HasTargetScore bool
	TargetScore    float64
	NbestSize      int // <= 0 defaults to DefaultNbestSize
}

func (l Limits) nbestSize() int {
	if l.NbestSize <= 0 {
		return DefaultNbestSize
	}
	return l.NbestSize
}

// Algorithm is one configured SearchAlgorithm instance, bound to exactly
// one document's search (§5: per-document parallelism only — an Algorithm
// value must never be shared between two documents in flight).
type Algorithm interface {
	// Run drives doc forward in place until termination, returning the
	// n-best states collected and whether the search aborted because the
	// generator could not propose a non-refusal step (a
	// TransientSearchFailure at the driver level, never fatal here).
	Run(doc *state.DocumentState, gen *operation.StateGenerator, rnd *random.Source) (best *nbest.Storage[*state.DocumentState], aborted bool)
}

func (l Limits) exceeded(steps, accepted int, bestScore float64) bool {
	if l.MaxSteps > 0 && steps >= l.MaxSteps {
		return true
	}
	if l.MaxAccepted > 0 && accepted >= l.MaxAccepted {
		return true
	}
	if l.HasTargetScore && bestScore >= l.TargetScore {
		return true
	}
	return false
}

// metropolisStep implements one iteration of the shared outer-loop skeleton
// (§4.8): draw a step, compute the Metropolis threshold once, reject cheaply
// against the estimate, and only pay for the exact score if the estimate
// clears the bar. Returns accepted=true if doc was mutated in place.
func metropolisStep(doc *state.DocumentState, gen *operation.StateGenerator, rnd *random.Source, sched schedule.Schedule) (accepted, aborted bool) {
	s, ok := gen.CreateSearchStep(doc)
	if !ok {
		return false, true
	}

	threshold := sched.Temperature()*math.Log(rnd.Draw01()) + doc.GetScore()

	if !s.IsProvisionallyAcceptable(threshold) {
		sched.Step(s.GetScoreEstimate(), false)
		return false, false
	}

	score := s.GetScore()
	if score > threshold {
		sched.Step(score, true)
		doc.ApplyModifications(s)
		return true, false
	}
	sched.Step(score, false)
	return false, false
}

// runMetropolis is the body shared by SimulatedAnnealing and HillClimbing:
// they differ only in which Schedule implementation drives the threshold
// and isDone decision (§4.7), exactly as the skeleton in §4.8 states.
func runMetropolis(doc *state.DocumentState, gen *operation.StateGenerator, rnd *random.Source, sched schedule.Schedule, limits Limits) (*nbest.Storage[*state.DocumentState], bool) {
	best := nbest.New[*state.DocumentState](limits.nbestSize())
	best.Offer(doc)

	steps, accepted := 0, 0
	for {
		if sched.IsDone() || limits.exceeded(steps, accepted, doc.GetScore()) {
			return best, false
		}
		ok, aborted := metropolisStep(doc, gen, rnd, sched)
		if aborted {
			return best, true
		}
		steps++
		if ok {
			accepted++
			best.Offer(doc)
		}
	}
}

// SimulatedAnnealing runs the Metropolis skeleton against a temperature
// schedule that cools over time, typically schedule.Geometric or
// schedule.AartsLaarhoven.
type SimulatedAnnealing struct {
	Schedule schedule.Schedule
	Limits   Limits
}

func (sa SimulatedAnnealing) Run(doc *state.DocumentState, gen *operation.StateGenerator, rnd *random.Source) (*nbest.Storage[*state.DocumentState], bool) {
	return runMetropolis(doc, gen, rnd, sa.Schedule, sa.Limits)
}

// HillClimbing runs the identical Metropolis skeleton against a fixed,
// near-zero temperature schedule, which in practice enforces strict
// improvement: the threshold collapses to (almost exactly) the current
// score (§4.7, §4.8).
type HillClimbing struct {
	Schedule *schedule.HillClimbing
	Limits   Limits
}

func (hc HillClimbing) Run(doc *state.DocumentState, gen *operation.StateGenerator, rnd *random.Source) (*nbest.Storage[*state.DocumentState], bool) {
	return runMetropolis(doc, gen, rnd, hc.Schedule, hc.Limits)
}

// DefaultBeamSize is used when LocalBeamSearch.BeamSize is left at zero.
const DefaultBeamSize = 5

// LocalBeamSearch keeps a population ("the beam") of candidate document
// states instead of mutating a single one. Each step picks a beam member
// uniformly, proposes a SearchStep from a clone of it, and — if the clone's
// new score beats the beam's current minimum — commits the clone and offers
// it to both the beam and the overall n-best list (§4.8).
type LocalBeamSearch struct {
	Schedule schedule.Schedule
	Limits   Limits
	BeamSize int
}

func (lb LocalBeamSearch) beamSize() int {
	if lb.BeamSize <= 0 {
		return DefaultBeamSize
	}
	return lb.BeamSize
}

func (lb LocalBeamSearch) Run(doc *state.DocumentState, gen *operation.StateGenerator, rnd *random.Source) (*nbest.Storage[*state.DocumentState], bool) {
	beam := nbest.New[*state.DocumentState](lb.beamSize())
	beam.Offer(doc)

	best := nbest.New[*state.DocumentState](lb.Limits.nbestSize())
	best.Offer(doc)

	steps, accepted := 0, 0
	for {
		bestScore, _ := best.Best()
		if lb.Schedule.IsDone() || lb.Limits.exceeded(steps, accepted, bestScore.GetScore()) {
			return best, false
		}

		picked, ok := beam.PickRandom(func(n int) int { return rnd.DrawFromRange(0, n-1) })
		if !ok {
			return best, false
		}
		candidate := picked.Clone()

		s, proposed := gen.CreateSearchStep(candidate)
		if !proposed {
			return best, true
		}
		threshold := beam.LowestScore()

		steps++
		if !s.IsProvisionallyAcceptable(threshold) {
			lb.Schedule.Step(s.GetScoreEstimate(), false)
			continue
		}

		score := s.GetScore()
		if score > threshold {
			lb.Schedule.Step(score, true)
			candidate.ApplyModifications(s)
			beam.Offer(candidate)
			best.Offer(candidate)
			accepted++
		} else {
			lb.Schedule.Step(score, false)
		}
	}
}
