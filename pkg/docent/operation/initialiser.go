package operation

import (
	"github.com/chardmeier/docent/internal/docenterr"
	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/phrasetable"
)

// StateInitialiser builds the starting segmentation for one sentence before
// search begins. The three variants supplement the distilled spec with the
// initial-state choices the original exposes on its command line: a fresh
// monotonic decode, a reload of a previous run's snapshot, or a seed taken
// from an existing translation (a baseline system's output, or a test set's
// reference translations used to warm-start reranking experiments).
type StateInitialiser interface {
	Initialise(sentno int, collection *phrasetable.Collection) (phrase.Segmentation, error)
}

// MonotonicInitialiser samples one segmentation per sentence directly from
// its Collection. Collection.search always builds coverage strictly
// left-to-right, so the result never reorders phrases relative to the
// source: a monotonic hypothesis, the decoder's ordinary starting point.
type MonotonicInitialiser struct{}

func (MonotonicInitialiser) Initialise(sentno int, collection *phrasetable.Collection) (phrase.Segmentation, error) {
	seg, ok := collection.ProposeSegmentation()
	if !ok {
		return nil, &docenterr.FileFormatError{
			Record: "sentence",
			Reason: "no legal segmentation exists for this sentence's phrase table entries",
		}
	}
	return seg, nil
}

// SavedStateInitialiser reloads a segmentation per sentence from a
// previously checkpointed run (the driver decodes the snapshot file into
// Segmentations before construction). Every phrase pair in the reloaded
// segmentation must still resolve against the live Collection, since the
// phrase table backing it may have changed between runs; a mismatch is a
// FileFormatError, not silently ignored.
type SavedStateInitialiser struct {
	Segmentations []phrase.Segmentation
}

func (s SavedStateInitialiser) Initialise(sentno int, collection *phrasetable.Collection) (phrase.Segmentation, error) {
	if sentno >= len(s.Segmentations) {
		return nil, &docenterr.FileFormatError{
			Record: "sentence",
			Reason: "saved state has no segmentation for this sentence",
		}
	}
	seg := s.Segmentations[sentno]
	if !collection.PhrasesExist(seg) {
		return nil, &docenterr.FileFormatError{
			Record: "sentence",
			Reason: "saved segmentation references phrase pairs no longer present in the phrase table",
		}
	}
	return seg, nil
}

// TestsetInitialiser seeds each sentence from an externally supplied
// segmentation (typically derived from a baseline translation's word
// alignment) when the phrase table can reproduce it, and falls back to a
// fresh monotonic decode otherwise. Unlike SavedStateInitialiser, a
// mismatch here is expected and unremarkable: baseline systems routinely
// make phrase choices this decoder's table does not contain.
type TestsetInitialiser struct {
	Segmentations []phrase.Segmentation
}

func (t TestsetInitialiser) Initialise(sentno int, collection *phrasetable.Collection) (phrase.Segmentation, error) {
	if sentno < len(t.Segmentations) {
		seg := t.Segmentations[sentno]
		if collection.PhrasesExist(seg) {
			return seg, nil
		}
	}
	return MonotonicInitialiser{}.Initialise(sentno, collection)
}
