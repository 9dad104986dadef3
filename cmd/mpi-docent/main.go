// Command mpi-docent distributes a testset's documents across a pool of
// worker goroutines, the Go-native analogue of the original's MPI
// TRANSLATE/STOP_TRANSLATING/COLLECT/STOP_COLLECTING message exchange
// between a master rank and a fixed set of translator ranks. Work
// distribution is a collaborator, not a core decoding concern: every worker
// runs the identical per-document search the single-process docent command
// runs, just dispatched concurrently.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/chardmeier/docent/pkg/docent/config"
	"github.com/chardmeier/docent/pkg/docent/driver"
	"github.com/chardmeier/docent/pkg/docent/nistxml"
	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/phrasetable"
)

func main() {
	var (
		phraseTable = flag.String("phrasetable", "", "sqlite phrase-table database (required)")
		workers     = flag.Int("workers", runtime.NumCPU(), "number of concurrent translator goroutines (stands in for MPI ranks)")
	)
	flag.Parse()

	if flag.NArg() != 2 || *phraseTable == "" {
		log.Fatal("usage: mpi-docent -phrasetable db [-workers n] config.xml input.xml")
	}
	configPath, inputPath := flag.Arg(0), flag.Arg(1)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

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

	drv := driver.New(dec, backend, nil, logger)

	docs := make([]driver.Document, len(corpus.Documents))
	for i, d := range corpus.Documents {
		src := make([]phrase.Words, d.NumSentences())
		for s := 0; s < d.NumSentences(); s++ {
			src[s] = d.Sentence(s)
		}
		docs[i] = driver.Document{Label: d.DocID, Source: src}
	}

	results := runPool(drv, docs, *workers, logger)

	for i, res := range results {
		doc := corpus.Documents[i]
		for s, words := range res.Translation {
			doc.SetTranslation(s, words)
		}
	}

	if err := corpus.WriteTestset(os.Stdout, "mpi-docent"); err != nil {
		log.Fatalf("write output: %v", err)
	}
}

// job is one TRANSLATE message: a document index to run.
type job struct {
	index int
	doc   driver.Document
}

// runPool dispatches docs across n worker goroutines, each repeatedly
// pulling the next job from a shared channel until it's closed (the
// TRANSLATE loop) and reporting its result, analogous to the original's
// per-translator request/reply cycle but without the master needing to
// track which rank is idle — the channel does that for free.
func runPool(drv *driver.Driver, docs []driver.Document, n int, logger *slog.Logger) []driver.Result {
	if n <= 0 {
		n = 1
	}
	runLabel := "mpi-docent"

	jobs := make(chan job)
	results := make([]driver.Result, len(docs))

	var wg sync.WaitGroup
	for w := 0; w < n; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := range jobs {
				logger.Debug("translator received document", "worker", worker, "document", j.doc.Label)
				results[j.index] = drv.Translate(runLabel, j.index, j.doc)
				logger.Debug("translator finished document", "worker", worker, "document", j.doc.Label)
			}
		}(w)
	}

	for i, doc := range docs {
		jobs <- job{index: i, doc: doc}
	}
	close(jobs)
	wg.Wait()

	return results
}
