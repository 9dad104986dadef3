package nistxml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chardmeier/docent/pkg/docent/phrase"
)

const sampleMteval = `<?xml version="1.0" encoding="UTF-8"?>
<mteval>
  <srcset setid="test" srclang="en" trglang="de">
    <doc docid="doc1">
      <seg id="1">the cat sat</seg>
      <seg id="2">on the mat</seg>
    </doc>
  </srcset>
</mteval>
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.xml")
	if err := os.WriteFile(path, []byte(sampleMteval), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func TestParseReadsSegmentsAndAttributes(t *testing.T) {
	path := writeSample(t)
	corpus, err := Parse(path, Srcset)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if corpus.SetID != "test" || corpus.SrcLang != "en" || corpus.TrgLang != "de" {
		t.Fatalf("unexpected corpus attributes: %+v", corpus)
	}
	if len(corpus.Documents) != 1 {
		t.Fatalf("len(Documents) = %d, want 1", len(corpus.Documents))
	}
	doc := corpus.Documents[0]
	if doc.DocID != "doc1" {
		t.Fatalf("DocID = %q, want doc1", doc.DocID)
	}
	if doc.NumSentences() != 2 {
		t.Fatalf("NumSentences = %d, want 2", doc.NumSentences())
	}
	want := phrase.Words{"the", "cat", "sat"}
	got := doc.Sentence(0)
	if len(got) != len(want) {
		t.Fatalf("Sentence(0) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Sentence(0)[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseMissingSetReturnsError(t *testing.T) {
	path := writeSample(t)
	if _, err := Parse(path, Refset); err == nil {
		t.Fatalf("expected an error requesting a refset from a srcset-only file")
	}
}

func TestWriteTestsetRoundTripsTranslationAndAnnotations(t *testing.T) {
	path := writeSample(t)
	corpus, err := Parse(path, Srcset)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	doc := corpus.Documents[0]
	doc.SetTranslation(0, phrase.Words{"die", "Katze", "sass"})
	doc.SetTranslation(1, phrase.Words{"auf", "der", "Matte"})
	doc.AnnotateDocument("score=4.5")
	doc.AnnotateSentence(1, "score=2.0")

	var out strings.Builder
	if err := corpus.WriteTestset(&out, "mysys"); err != nil {
		t.Fatalf("WriteTestset: %v", err)
	}

	xmlOut := out.String()
	for _, want := range []string{
		`sysid="mysys"`,
		`srclang="en"`,
		`trglang="de"`,
		"die Katze sass",
		"auf der Matte",
		"<!-- DOC score=4.5 -->",
		"<!-- SEG score=2.0 -->",
	} {
		if !strings.Contains(xmlOut, want) {
			t.Fatalf("output missing %q; got:\n%s", want, xmlOut)
		}
	}
}

func TestWriteTestsetOmitsCommentsWhenNoAnnotation(t *testing.T) {
	path := writeSample(t)
	corpus, err := Parse(path, Srcset)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var out strings.Builder
	if err := corpus.WriteTestset(&out, "mysys"); err != nil {
		t.Fatalf("WriteTestset: %v", err)
	}
	if strings.Contains(out.String(), "<!--") {
		t.Fatalf("did not expect any comments when nothing was annotated:\n%s", out.String())
	}
}
