// Command lcurve-docent traces a learning curve: it re-runs each document's
// search to a sequence of log-spaced total step counts (256, 512, 1024, ...
// doubling up to 2^27) and writes one translated tstset per checkpoint, so
// callers can plot translation quality against search effort.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/chardmeier/docent/pkg/docent/config"
	"github.com/chardmeier/docent/pkg/docent/driver"
	"github.com/chardmeier/docent/pkg/docent/nistxml"
	"github.com/chardmeier/docent/pkg/docent/operation"
	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/phrasetable"
	"github.com/chardmeier/docent/pkg/docent/random"
	"github.com/chardmeier/docent/pkg/docent/search"
	"github.com/chardmeier/docent/pkg/docent/state"
)

const (
	firstStepCount = 256
	lastStepCount  = 1 << 27
)

// documentRun holds everything that must persist across checkpoints for one
// document: its own random source, phrase-table collections, the
// DocumentState the search mutates in place, and the search algorithm with
// its schedule.
type documentRun struct {
	doc         *nistxml.Document
	rnd         *random.Source
	collections []*phrasetable.Collection
	ds          *state.DocumentState
	gen         *operation.StateGenerator
	alg         search.Algorithm
}

func main() {
	var (
		debugModule    = flag.String("d", "", "enable debug logging for the named module")
		phraseTable    = flag.String("phrasetable", "", "sqlite phrase-table database (required)")
		firstStateFile = flag.String("pf", "", "gob snapshot of the initial (pre-search) state")
		lastStateFile  = flag.String("pl", "", "gob snapshot of the final (post-search) state")
	)
	flag.Parse()

	if flag.NArg() != 3 || *phraseTable == "" {
		log.Fatal("usage: lcurve-docent -phrasetable db [-pf state.gob] [-pl state.gob] config.xml outstem input.xml")
	}
	configPath := flag.Arg(0)
	outstem := flag.Arg(1)
	inputPath := flag.Arg(2)

	level := slog.LevelInfo
	if *debugModule != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	loader := config.Loader{Path: configPath}
	dec, err := loader.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}

	backend, err := phrasetable.OpenSQLiteTable(*phraseTable)
	if err != nil {
		log.Fatalf("open phrase table: %v", err)
	}
	defer backend.Close()

	corpus, err := nistxml.Parse(inputPath, nistxml.Srcset)
	if err != nil {
		log.Fatalf("parse input: %v", err)
	}

	table := phrase.NewTable()
	runs := make([]*documentRun, len(corpus.Documents))
	for i, doc := range corpus.Documents {
		rnd := random.New(dec.Seed + uint64(i)*0x9E3779B97F4A7C15)

		collections := make([]*phrasetable.Collection, doc.NumSentences())
		initial := make([]phrase.Segmentation, doc.NumSentences())
		for s := 0; s < doc.NumSentences(); s++ {
			collections[s] = phrasetable.Build(doc.Sentence(s), backend, table, rnd)
			seg, err := operation.MonotonicInitialiser{}.Initialise(s, collections[s])
			if err != nil {
				log.Fatalf("document %s: initialise sentence %d: %v", doc.DocID, s, err)
			}
			initial[s] = seg
		}

		ds := state.New(collections, initial, dec.Features, dec.Weights)
		ops, weights, err := dec.NewOperators(rnd)
		if err != nil {
			log.Fatalf("document %s: build operators: %v", doc.DocID, err)
		}
		gen, err := operation.NewStateGenerator(rnd, ops, weights)
		if err != nil {
			log.Fatalf("document %s: build state generator: %v", doc.DocID, err)
		}
		alg, err := dec.NewAlgorithm(rnd)
		if err != nil {
			log.Fatalf("document %s: build algorithm: %v", doc.DocID, err)
		}

		logger.Info("initial state", "document", doc.DocID, "score", ds.GetScore())
		runs[i] = &documentRun{doc: doc, rnd: rnd, collections: collections, ds: ds, gen: gen, alg: alg}
	}

	if *firstStateFile != "" {
		dumpState(runs, *firstStateFile)
	}

	writeCheckpoint(corpus, fmt.Sprintf("%s.%09d.xml", outstem, 0))

	stepsDone := 0
	for steps := firstStepCount; steps <= lastStepCount; steps *= 2 {
		for _, r := range runs {
			alg := withMaxSteps(r.alg, steps-stepsDone)

			best, aborted := alg.Run(r.ds, r.gen, r.rnd)
			top, ok := best.Best()
			if !ok {
				top = r.ds
			}
			if aborted {
				logger.Warn("search aborted after repeated refusals", "document", r.doc.DocID, "steps", steps)
			}
			logger.Info("checkpoint", "document", r.doc.DocID, "steps", steps, "score", top.GetScore())
			applyTranslation(r.doc, top)
		}
		stepsDone = steps
		writeCheckpoint(corpus, fmt.Sprintf("%s.%09d.xml", outstem, steps))
	}

	if *lastStateFile != "" {
		dumpState(runs, *lastStateFile)
	}
}

// withMaxSteps returns a copy of alg with its Limits.MaxSteps overridden to
// this checkpoint's delta, matching the original's "steps - steps_done"
// per-call budget: the schedule embedded in alg keeps its own cooling and
// acceptance-counter state across calls, only the step ceiling changes.
func withMaxSteps(alg search.Algorithm, maxSteps int) search.Algorithm {
	switch a := alg.(type) {
	case search.SimulatedAnnealing:
		a.Limits.MaxSteps = maxSteps
		return a
	case search.HillClimbing:
		a.Limits.MaxSteps = maxSteps
		return a
	case search.LocalBeamSearch:
		a.Limits.MaxSteps = maxSteps
		return a
	default:
		return alg
	}
}

func applyTranslation(doc *nistxml.Document, ds *state.DocumentState) {
	for s := 0; s < ds.NumSentences(); s++ {
		var words phrase.Words
		for _, ap := range ds.Segmentation(s) {
			words = append(words, ap.Pair.Data().Target...)
		}
		doc.SetTranslation(s, words)
		doc.AnnotateSentence(s, fmt.Sprintf("score=%g - %s", ds.GetScore(), formatWordAlignment(ds.Segmentation(s))))
	}
	doc.AnnotateDocument(fmt.Sprintf("score=%g", ds.GetScore()))
}

// formatWordAlignment renders one sentence's phrase segmentation as
// target-index-sorted source-target word alignment pairs, the same
// diagnostic the original embeds in its per-sentence annotation comments.
func formatWordAlignment(seg phrase.Segmentation) string {
	var out string
	tgtOffset := 0
	for _, ap := range seg {
		srcOffset := ap.Coverage.FirstSet()
		data := ap.Pair.Data()
		if data.Alignment != nil {
			for t := 0; t < len(data.Target); t++ {
				for _, s := range data.Alignment.SourcesFor(t) {
					out += fmt.Sprintf("%d-%d ", srcOffset+s, tgtOffset+t)
				}
			}
		}
		tgtOffset += len(data.Target)
	}
	if len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out
}

func writeCheckpoint(corpus *nistxml.Corpus, path string) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := corpus.WriteTestset(f, "lcurve-docent"); err != nil {
		log.Fatalf("write %s: %v", path, err)
	}
}

func dumpState(runs []*documentRun, path string) {
	results := make([]driver.Result, len(runs))
	for i, r := range runs {
		segs := make([]phrase.Segmentation, r.ds.NumSentences())
		for s := 0; s < r.ds.NumSentences(); s++ {
			segs[s] = r.ds.Segmentation(s)
		}
		results[i] = driver.Result{Label: r.doc.DocID, Segmentation: segs}
	}
	if _, err := driver.SaveSnapshot(results, path, path+".manifest.yaml"); err != nil {
		log.Fatalf("save state snapshot %s: %v", path, err)
	}
}
