package driver

import (
	"encoding/gob"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chardmeier/docent/pkg/docent/phrase"
)

// snapshotPhrase is the gob-serialisable form of one AnchoredPair: the
// source span it covers (half-open, sentence-relative) plus the phrase
// pair's content, re-interned on load rather than carrying a live Pair
// handle (those are only valid within the Table that produced them).
type snapshotPhrase struct {
	From, To int
	Source   []string
	Target   []string
}

type snapshotDocument struct {
	Label     string
	Sentences [][]snapshotPhrase
}

// Manifest is the YAML sidecar written next to a snapshot's gob payload: a
// human-readable summary for operators inspecting a run's checkpoints
// without decoding the payload itself.
type Manifest struct {
	ID        string    `yaml:"id"`
	CreatedAt time.Time `yaml:"created_at"`
	Documents int       `yaml:"documents"`
}

// Table returns the phrase-interning table this Driver's Collections were
// built from, for callers that need to resolve a snapshot against the same
// interned Pair storage (LoadSnapshot).
func (drv *Driver) Table() *phrase.Table { return drv.table }

// SaveSnapshot gob-encodes results' segmentations to payloadPath and writes
// a YAML manifest to manifestPath, returning the snapshot's run id.
func SaveSnapshot(results []Result, payloadPath, manifestPath string) (string, error) {
	docs := make([]snapshotDocument, len(results))
	for i, r := range results {
		sentences := make([][]snapshotPhrase, len(r.Segmentation))
		for s, seg := range r.Segmentation {
			phrases := make([]snapshotPhrase, len(seg))
			for p, ap := range seg {
				from := ap.Coverage.FirstSet()
				phrases[p] = snapshotPhrase{
					From:   from,
					To:     from + ap.Coverage.Count(),
					Source: []string(ap.Pair.Data().Source),
					Target: []string(ap.Pair.Data().Target),
				}
			}
			sentences[s] = phrases
		}
		docs[i] = snapshotDocument{Label: r.Label, Sentences: sentences}
	}

	f, err := os.Create(payloadPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(docs); err != nil {
		return "", err
	}

	id := newULID().String()
	mf, err := os.Create(manifestPath)
	if err != nil {
		return "", err
	}
	defer mf.Close()
	enc := yaml.NewEncoder(mf)
	defer enc.Close()
	if err := enc.Encode(Manifest{ID: id, CreatedAt: time.Now().UTC(), Documents: len(docs)}); err != nil {
		return "", err
	}
	return id, nil
}

// snapshotSource implements SegmentationSource by re-interning every saved
// phrase against a live Table, so the reloaded Segmentation's Pair handles
// compare equal to whatever the current run's Collections hold for the
// same content.
type snapshotSource struct {
	byLabel map[string][]phrase.Segmentation
}

// LoadSnapshot decodes a gob payload written by SaveSnapshot into a
// SegmentationSource, interning every saved phrase pair into table (pass
// the Driver's own Table so saved-state phrases compare equal to the ones
// its Collections propose).
func LoadSnapshot(payloadPath string, table *phrase.Table) (SegmentationSource, error) {
	f, err := os.Open(payloadPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []snapshotDocument
	if err := gob.NewDecoder(f).Decode(&docs); err != nil {
		return nil, err
	}

	src := &snapshotSource{byLabel: make(map[string][]phrase.Segmentation, len(docs))}
	for _, d := range docs {
		segs := make([]phrase.Segmentation, len(d.Sentences))
		for i, sentence := range d.Sentences {
			seg := make(phrase.Segmentation, len(sentence))
			for j, p := range sentence {
				pair := table.Intern(phrase.Data{Source: phrase.Words(p.Source), Target: phrase.Words(p.Target)})
				seg[j] = phrase.AnchoredPair{Coverage: phrase.NewCoverage(p.From, p.To), Pair: pair}
			}
			segs[i] = seg
		}
		src.byLabel[d.Label] = segs
	}
	return src, nil
}

func (s *snapshotSource) Segmentations(label string) ([]phrase.Segmentation, error) {
	segs, ok := s.byLabel[label]
	if !ok {
		return nil, fmt.Errorf("snapshot has no segmentations for document %q", label)
	}
	return segs, nil
}
