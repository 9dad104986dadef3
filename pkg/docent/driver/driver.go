// Package driver wires a loaded configuration, a phrase-table backend and a
// document's tokenised sentences into one search run, and collects the
// resulting translation. It is the collaborator between the CLI entrypoints
// under cmd/ and the self-contained search core (§7: per-document driving
// loop, TransientSearchFailure handling, translation emission).
package driver

import (
	"crypto/rand"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"

	"github.com/chardmeier/docent/internal/docenterr"
	"github.com/chardmeier/docent/pkg/docent/config"
	"github.com/chardmeier/docent/pkg/docent/operation"
	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/phrasetable"
	"github.com/chardmeier/docent/pkg/docent/random"
	"github.com/chardmeier/docent/pkg/docent/state"
)

// Document is one document to translate: a label for logging/output
// correlation and its sentences' source-side tokens.
type Document struct {
	Label  string
	Source []phrase.Words
}

// SegmentationSource resolves a previously known segmentation for a
// document, for the "saved-state" and "testset" initial-state strategies
// (§4.5). Implementations typically decode a gob snapshot from a prior run
// or tokenise a baseline system's NIST XML output.
type SegmentationSource interface {
	Segmentations(label string) ([]phrase.Segmentation, error)
}

// Result is one document's search outcome.
type Result struct {
	Label        string
	Translation  []phrase.Words
	Segmentation []phrase.Segmentation
	Score        float64
	Steps        int
	// Aborted is true if the search had to stop early because the
	// StateGenerator could not propose a step after
	// operation.DefaultMaxConsecutiveRefusals consecutive refusals — a
	// TransientSearchFailure (§7), not fatal to the run.
	Aborted bool
}

// Driver runs one decoder configuration against any number of documents.
// Features, Weights, Operators and Algorithm are immutable across
// documents; everything document-scoped (the random source, the
// StateGenerator, the cooling schedule, the phrase-table Collections) is
// built fresh per document so documents can be driven concurrently (§5).
type Driver struct {
	Decoder       *config.Decoder
	Backend       phrasetable.Table
	Segmentations SegmentationSource
	Logger        *slog.Logger

	table *phrase.Table
}

// New constructs a Driver. backend is assumed already open and immutable
// for the run; table interns phrase pairs across every document's
// Collection so identical translations share storage.
func New(dec *config.Decoder, backend phrasetable.Table, segs SegmentationSource, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		Decoder:       dec,
		Backend:       backend,
		Segmentations: segs,
		Logger:        logger,
		table:         phrase.NewTable(),
	}
}

// Run translates every document in order, logging a TransientSearchFailure
// and still returning that document's best-seen state rather than aborting
// the whole run (§7).
func (drv *Driver) Run(docs []Document) []Result {
	runID := newULID()
	results := make([]Result, len(docs))
	for i, doc := range docs {
		results[i] = drv.Translate(runID.String(), i, doc)
	}
	return results
}

// Translate runs the search for exactly one document and logs its outcome,
// the unit of work cmd/mpi-docent's worker pool dispatches across
// goroutines: distinct documents may call Translate concurrently on the
// same Driver (§5 — only the shared, mutex-protected phrase.Table and the
// read-only Backend/Decoder are touched across calls).
func (drv *Driver) Translate(runLabel string, docIndex int, doc Document) Result {
	logger := drv.Logger.With("run", runLabel, "document", doc.Label)
	result, err := drv.runOne(docIndex, doc, logger)
	if err != nil {
		var tsf *docenterr.TransientSearchFailure
		if asTransientSearchFailure(err, &tsf) {
			logger.Warn("search aborted after repeated refusals; emitting best state seen so far",
				"consecutiveRefusals", tsf.ConsecutiveRefusals)
		} else {
			logger.Error("document translation failed", "error", err)
		}
	}
	return result
}

func asTransientSearchFailure(err error, target **docenterr.TransientSearchFailure) bool {
	tsf, ok := err.(*docenterr.TransientSearchFailure)
	if ok {
		*target = tsf
	}
	return ok
}

func (drv *Driver) runOne(docIndex int, doc Document, logger *slog.Logger) (Result, error) {
	rnd := random.New(drv.Decoder.Seed + uint64(docIndex)*0x9E3779B97F4A7C15)

	collections := make([]*phrasetable.Collection, len(doc.Source))
	for i, src := range doc.Source {
		collections[i] = phrasetable.Build(src, drv.Backend, drv.table, rnd)
	}

	initial, err := drv.buildInitialSegmentations(doc, collections)
	if err != nil {
		return Result{Label: doc.Label}, err
	}

	ds := state.New(collections, initial, drv.Decoder.Features, drv.Decoder.Weights)
	logger.Info("starting search", "sentences", len(doc.Source), "initialScore", ds.GetScore())

	ops, weights, err := drv.Decoder.NewOperators(rnd)
	if err != nil {
		return Result{Label: doc.Label}, err
	}
	gen, err := operation.NewStateGenerator(rnd, ops, weights)
	if err != nil {
		return Result{Label: doc.Label}, err
	}

	alg, err := drv.Decoder.NewAlgorithm(rnd)
	if err != nil {
		return Result{Label: doc.Label}, err
	}

	best, aborted := alg.Run(ds, gen, rnd)
	top, ok := best.Best()
	if !ok {
		top = ds
	}

	result := Result{
		Label:        doc.Label,
		Translation:  translationOf(top),
		Segmentation: segmentationsOf(top),
		Score:        top.GetScore(),
		Aborted:      aborted,
	}

	if aborted {
		err := &docenterr.TransientSearchFailure{
			DocumentIndex:       docIndex,
			ConsecutiveRefusals: operation.DefaultMaxConsecutiveRefusals,
		}
		return result, err
	}

	logger.Info("search finished", "finalScore", humanize.Commaf(top.GetScore()))
	return result, nil
}

func (drv *Driver) buildInitialSegmentations(doc Document, collections []*phrasetable.Collection) ([]phrase.Segmentation, error) {
	init, err := drv.buildInitialiser(doc.Label)
	if err != nil {
		return nil, err
	}

	segs := make([]phrase.Segmentation, len(collections))
	for i, col := range collections {
		seg, err := init.Initialise(i, col)
		if err != nil {
			return nil, err
		}
		segs[i] = seg
	}
	return segs, nil
}

func (drv *Driver) buildInitialiser(label string) (operation.StateInitialiser, error) {
	spec := drv.Decoder.InitialState
	switch spec.Type {
	case "monotonic":
		return operation.MonotonicInitialiser{}, nil
	case "saved-state", "testset":
		if drv.Segmentations == nil {
			return nil, &docenterr.ConfigurationError{
				Path: "state-generator/initial-state", Param: "type",
				Reason: spec.Type + " initial state requires a SegmentationSource, none configured",
			}
		}
		segs, err := drv.Segmentations.Segmentations(label)
		if err != nil {
			return nil, err
		}
		if spec.Type == "saved-state" {
			return operation.SavedStateInitialiser{Segmentations: segs}, nil
		}
		return operation.TestsetInitialiser{Segmentations: segs}, nil
	default:
		return nil, &docenterr.ConfigurationError{
			Path: "state-generator/initial-state", Param: "type",
			Reason: "unknown initial-state type " + spec.Type,
		}
	}
}

// translationOf reads off ds's current segmentation in output order,
// concatenating each sentence's target phrases.
func translationOf(ds *state.DocumentState) []phrase.Words {
	out := make([]phrase.Words, ds.NumSentences())
	for i := 0; i < ds.NumSentences(); i++ {
		var words phrase.Words
		for _, ap := range ds.Segmentation(i) {
			words = append(words, ap.Pair.Data().Target...)
		}
		out[i] = words
	}
	return out
}

// segmentationsOf collects ds's per-sentence Segmentation, for callers that
// need the phrase boundaries rather than just the flattened translation
// (SaveSnapshot).
func segmentationsOf(ds *state.DocumentState) []phrase.Segmentation {
	out := make([]phrase.Segmentation, ds.NumSentences())
	for i := 0; i < ds.NumSentences(); i++ {
		out[i] = ds.Segmentation(i)
	}
	return out
}

func newULID() ulid.ULID {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
}
