// Package feature defines the FeatureFunction contract (§4.1): the
// polymorphic interface every scoring component implements, re-expressed in
// Go as a plain interface with object-level dispatch, and the Instantiation
// wrapper that gives each configured feature a stable score-vector slice.
//
// The core never inspects a State or StateModification's concrete type; it
// only ever passes the opaque value back to the Function that produced it.
package feature

import "github.com/chardmeier/docent/pkg/docent/phrase"

// Document is the minimal view of a document a Function needs: the number
// of sentences and, for any sentence, its current segmentation. It is
// satisfied by state.DocumentState; kept as an interface here so this
// package does not import state (which imports this package).
type Document interface {
	NumSentences() int
	Segmentation(sentno int) phrase.Segmentation
}

// State is an opaque per-document handle a Function hands back to the core.
// The core never inspects it, only stores it and passes it back on the next
// call for the same document. Implementations that need to be cloned when
// a document is snapshotted into NbestStorage must implement Clone;
// implementations with no mutable state may return themselves.
type State interface {
	Clone() State
}

// StateModification is an opaque per-step handle describing how a State
// must change if its originating SearchStep is committed. Implementations
// with nothing to stage may use NoModification.
type StateModification interface{}

// NoModification is the zero-value StateModification for features that
// compute their score delta without staging anything (the common case for
// features with no document-scoped cache, per §4.1).
type NoModification struct{}

// Step is the minimal view of a proposed edit a Function needs to estimate
// or compute a score update. Satisfied by step.SearchStep.
type Step interface {
	Modifications() int // number of sentence-local edits in this step
	// Modification returns the i-th edit: which sentence it touches and the
	// segmentation it proposes to install in place of that sentence's
	// current [From, To) range.
	Modification(i int) (sentno, from, to int, proposal phrase.Segmentation)
}

// Function is the contract every feature function implements. Scores is
// always a slice of exactly NumberOfScores() entries.
type Function interface {
	// InitDocument computes this feature's initial contribution to the
	// document's score vector and returns the State it will thread through
	// every later call for this document.
	InitDocument(doc Document) (State, []float64)

	// EstimateScoreUpdate produces a cheap estimate of the new score slice
	// were step committed, plus a scratch StateModification. The estimate
	// must be an upper bound: the eventual UpdateScore result must be <=
	// this value (I3), so the search can reject cheaply before paying for
	// an exact computation.
	EstimateScoreUpdate(doc Document, step Step, prev State, prevScores []float64) (StateModification, []float64)

	// UpdateScore computes the exact new score slice, called only once the
	// estimate has passed the acceptance test.
	UpdateScore(doc Document, step Step, prev State, mod StateModification, prevScores []float64) (StateModification, []float64)

	// ApplyStateModifications destructively installs mod into old and
	// returns the resulting State (possibly old itself, mutated in place —
	// see DESIGN.md's pinned ownership contract). Called only when the
	// search commits.
	ApplyStateModifications(old State, mod StateModification) State

	// ComputeSentenceScores returns a debug breakdown for one sentence, or
	// a zero slice if the feature has no meaningful per-sentence view.
	ComputeSentenceScores(doc Document, sentno int) []float64

	// NumberOfScores is the dimensionality k of this feature's score slice.
	NumberOfScores() int
}

// Instantiation wraps a configured Function with the identity and
// score-vector offset assigned to it by the decoder configuration, so the
// core can dispatch calls without every caller tracking offsets by hand.
type Instantiation struct {
	ID         string
	ScoreIndex int
	Impl       Function
}

func (fi *Instantiation) NumberOfScores() int { return fi.Impl.NumberOfScores() }

// Slice extracts this feature's entries from a full document score vector.
func (fi *Instantiation) Slice(full []float64) []float64 {
	return full[fi.ScoreIndex : fi.ScoreIndex+fi.Impl.NumberOfScores()]
}
