package builtin

import (
	"testing"

	"github.com/chardmeier/docent/pkg/docent/feature"
	"github.com/chardmeier/docent/pkg/docent/phrase"
)

// fakeDoc and fakeStep are minimal stand-ins satisfying feature.Document and
// feature.Step, so builtin features can be tested without pulling in the
// state/step packages (which themselves depend on feature).
type fakeDoc struct {
	segs []phrase.Segmentation
}

func (d *fakeDoc) NumSentences() int                      { return len(d.segs) }
func (d *fakeDoc) Segmentation(i int) phrase.Segmentation { return d.segs[i] }

type fakeMod struct {
	sentno, from, to int
	proposal         phrase.Segmentation
}
type fakeStep struct{ mods []fakeMod }

func (s *fakeStep) Modifications() int { return len(s.mods) }
func (s *fakeStep) Modification(i int) (int, int, int, phrase.Segmentation) {
	m := s.mods[i]
	return m.sentno, m.from, m.to, m.proposal
}

func abcDoc(tbl *phrase.Table) *fakeDoc {
	a := tbl.Intern(phrase.Data{Source: phrase.Words{"a"}, Target: phrase.Words{"A"}})
	b := tbl.Intern(phrase.Data{Source: phrase.Words{"b"}, Target: phrase.Words{"B"}})
	c := tbl.Intern(phrase.Data{Source: phrase.Words{"c"}, Target: phrase.Words{"C"}})
	seg := phrase.Segmentation{
		{Coverage: phrase.NewCoverage(0, 1), Pair: a},
		{Coverage: phrase.NewCoverage(1, 2), Pair: b},
		{Coverage: phrase.NewCoverage(2, 3), Pair: c},
	}
	return &fakeDoc{segs: []phrase.Segmentation{seg}}
}

func TestPhrasePenaltyScenario1(t *testing.T) {
	tbl := phrase.NewTable()
	doc := abcDoc(tbl)
	pp := PhrasePenalty{}

	st, scores := pp.InitDocument(doc)
	if scores[0] != -3 {
		t.Fatalf("initial score = %v, want -3 (three phrases)", scores[0])
	}

	abc := tbl.Intern(phrase.Data{Source: phrase.Words{"a", "b", "c"}, Target: phrase.Words{"ABC"}})
	proposal := phrase.Segmentation{{Coverage: phrase.NewCoverage(0, 3), Pair: abc}}
	step := &fakeStep{mods: []fakeMod{{sentno: 0, from: 0, to: 3, proposal: proposal}}}

	_, estScores := pp.EstimateScoreUpdate(doc, step, st, scores)
	if estScores[0] != -1 {
		t.Fatalf("estimated score after merge = %v, want -1", estScores[0])
	}
	mod, newScores := pp.UpdateScore(doc, step, st, nil, scores)
	if newScores[0] != -1 {
		t.Fatalf("exact score after merge = %v, want -1", newScores[0])
	}
	newSt := pp.ApplyStateModifications(st, mod)
	// applying must be idempotent with the committed doc's own segmentation
	doc.segs[0] = proposal
	if sc := pp.ComputeSentenceScores(doc, 0); sc[0] != -1 {
		t.Fatalf("sentence score after commit = %v, want -1", sc[0])
	}
	_ = newSt
}

func TestWordCountDelta(t *testing.T) {
	tbl := phrase.NewTable()
	doc := abcDoc(tbl)
	wc := WordCount{}
	st, scores := wc.InitDocument(doc)
	if scores[0] != 3 {
		t.Fatalf("initial word count = %v, want 3", scores[0])
	}
	two := tbl.Intern(phrase.Data{Source: phrase.Words{"a", "b"}, Target: phrase.Words{"AB", "X", "Y"}})
	proposal := phrase.Segmentation{{Coverage: phrase.NewCoverage(0, 2), Pair: two}}
	step := &fakeStep{mods: []fakeMod{{sentno: 0, from: 0, to: 2, proposal: proposal}}}
	_, newScores := wc.UpdateScore(doc, step, st, nil, scores)
	if newScores[0] != 4 {
		t.Fatalf("word count after replacing 2 words with a 3-word phrase = %v, want 4 (1 unchanged C + 3 new)", newScores[0])
	}
}

func TestDiscourseConsistencyDetectsMismatch(t *testing.T) {
	tbl := phrase.NewTable()
	a1 := tbl.Intern(phrase.Data{Source: phrase.Words{"bank"}, Target: phrase.Words{"riverbank"}})
	a2 := tbl.Intern(phrase.Data{Source: phrase.Words{"bank"}, Target: phrase.Words{"financial-bank"}})
	seg := phrase.Segmentation{
		{Coverage: phrase.NewCoverage(0, 1), Pair: a1},
		{Coverage: phrase.NewCoverage(1, 2), Pair: a2},
	}
	doc := &fakeDoc{segs: []phrase.Segmentation{seg}}
	dc := DiscourseConsistency{}
	_, scores := dc.InitDocument(doc)
	if scores[0] != -1 {
		t.Fatalf("expected one inconsistency, got score %v", scores[0])
	}
}
