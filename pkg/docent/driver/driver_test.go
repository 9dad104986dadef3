package driver

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/chardmeier/docent/internal/docenterr"
	"github.com/chardmeier/docent/pkg/docent/config"
	"github.com/chardmeier/docent/pkg/docent/feature"
	"github.com/chardmeier/docent/pkg/docent/feature/builtin"
	"github.com/chardmeier/docent/pkg/docent/phrase"
	"github.com/chardmeier/docent/pkg/docent/phrasetable"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 100}))
}

// mergingBackend offers every contiguous span of "a b c d" as a phrase pair
// so PhrasePenalty has room to improve by merging, matching the fixture
// shape used throughout pkg/docent/search and pkg/docent/operation tests.
func mergingBackend() *phrasetable.MemTable {
	backend := phrasetable.NewMemTable()
	words := []string{"a", "b", "c", "d"}
	for from := 0; from < len(words); from++ {
		for to := from + 1; to <= len(words); to++ {
			span := phrase.Words(words[from:to])
			var target phrase.Words
			for _, w := range span {
				target = append(target, w+"*")
			}
			backend.Add(span, phrasetable.Entry{Target: target})
		}
	}
	return backend
}

func basicDecoder() *config.Decoder {
	return &config.Decoder{
		Seed:         7,
		InitialState: config.InitialStateSpec{Type: "monotonic"},
		Operators: []config.OperatorSpec{
			{Type: "change-phrase-translation", Weight: 1},
			{Type: "resegment", Weight: 1},
		},
		Algorithm: config.AlgorithmSpec{
			Type:     "simulated-annealing",
			Params:   config.Parameters{"max-steps": "200"},
			Schedule: config.ScheduleSpec{Type: "geometric"},
		},
		Features: []*feature.Instantiation{{ID: "phrase-penalty", ScoreIndex: 0, Impl: builtin.PhrasePenalty{}}},
		Weights:  []float64{1.0},
	}
}

func TestDriverRunTranslatesDocument(t *testing.T) {
	drv := New(basicDecoder(), mergingBackend(), nil, discardLogger())

	doc := Document{Label: "doc1", Source: []phrase.Words{{"a", "b", "c", "d"}}}
	results := drv.Run([]Document{doc})

	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	res := results[0]
	if res.Aborted {
		t.Fatalf("did not expect search to abort")
	}
	if res.Label != "doc1" {
		t.Fatalf("Label = %q, want doc1", res.Label)
	}
	if len(res.Translation) != 1 {
		t.Fatalf("len(Translation) = %d, want 1", len(res.Translation))
	}
	if len(res.Translation[0]) != 4 {
		t.Fatalf("translation = %v, want 4 words", res.Translation[0])
	}
	if len(res.Segmentation) != 1 {
		t.Fatalf("len(Segmentation) = %d, want 1", len(res.Segmentation))
	}
}

// emptyBackend is populated by the caller with exactly one translation per
// word and nothing else, so ChangePhraseTranslation (the only configured
// operator in TestDriverRunSurvivesTransientSearchFailure) never finds an
// alternative to propose and refuses every step.
func emptyBackend() *phrasetable.MemTable {
	return phrasetable.NewMemTable()
}

func TestDriverRunSurvivesTransientSearchFailure(t *testing.T) {
	dec := basicDecoder()
	dec.Operators = []config.OperatorSpec{{Type: "change-phrase-translation", Weight: 1}}

	backend := emptyBackend()
	for _, w := range []string{"a", "b"} {
		backend.Add(phrase.Words{w}, phrasetable.Entry{Target: phrase.Words{w + "*"}})
	}

	drv := New(dec, backend, nil, discardLogger())
	doc := Document{Label: "doc1", Source: []phrase.Words{{"a", "b"}}}
	results := drv.Run([]Document{doc})

	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	// Whether or not this particular fixture actually starves (it has
	// exactly one alternative-free phrase per word, so
	// ChangePhraseTranslation always refuses), the driver must still
	// return a usable result rather than omitting the document.
	if results[0].Translation == nil {
		t.Fatalf("expected a translation even when the search aborts")
	}
}

type mapSegmentationSource map[string][]phrase.Segmentation

func (m mapSegmentationSource) Segmentations(label string) ([]phrase.Segmentation, error) {
	segs, ok := m[label]
	if !ok {
		return nil, errors.New("no segmentations for " + label)
	}
	return segs, nil
}

func TestDriverRunWithSavedStateInitialState(t *testing.T) {
	dec := basicDecoder()
	dec.InitialState = config.InitialStateSpec{Type: "saved-state"}

	// SavedStateInitialiser insists the reloaded AnchoredPairs be pointer-equal
	// to what the live phrase.Table interns, so the segmentation must be built
	// from the Driver's own Table rather than a throwaway one.
	drv := New(dec, mergingBackend(), nil, discardLogger())
	table := drv.Table()

	pair := table.Intern(phrase.Data{Source: phrase.Words{"a", "b"}, Target: phrase.Words{"a*", "b*"}})
	seg := phrase.Segmentation{{Coverage: phrase.NewCoverage(0, 2), Pair: pair}}
	for i, w := range []string{"c", "d"} {
		p := table.Intern(phrase.Data{Source: phrase.Words{w}, Target: phrase.Words{w + "*"}})
		seg = append(seg, phrase.AnchoredPair{Coverage: phrase.NewCoverage(2+i, 3+i), Pair: p})
	}

	drv.Segmentations = mapSegmentationSource{"doc1": []phrase.Segmentation{seg}}

	doc := Document{Label: "doc1", Source: []phrase.Words{{"a", "b", "c", "d"}}}
	results := drv.Run([]Document{doc})
	if len(results) != 1 || results[0].Translation == nil {
		t.Fatalf("expected a translated result, got %+v", results)
	}
}

func TestDriverRunSavedStateWithoutSourceFails(t *testing.T) {
	dec := basicDecoder()
	dec.InitialState = config.InitialStateSpec{Type: "saved-state"}

	drv := New(dec, mergingBackend(), nil, discardLogger())
	doc := Document{Label: "doc1", Source: []phrase.Words{{"a", "b"}}}

	_, err := drv.runOne(0, doc, discardLogger())
	if err == nil {
		t.Fatalf("expected an error when saved-state is configured with no SegmentationSource")
	}
	var cfgErr *docenterr.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected a ConfigurationError, got %T: %v", err, err)
	}
}
