// Package mmax reads MMAX2-format markable annotation directories: a
// .mmax project file pointing at a common_paths.xml (basedata and markable
// level locations), a basedata file listing the document's words, and one
// markable-layer file per annotation (sentence boundaries, part-of-speech,
// coreference chains, ...). Parsing and lookup (ByID, ForCoverage,
// MarkablesForCoverage) are fully implemented, but no feature function
// consumes a loaded Document yet: cmd/docent loads MMAX markup when given a
// directory and discards the result, and DiscourseConsistency currently
// tracks antecedents from source-phrase text alone, not a coreference
// markable level.
package mmax

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/chardmeier/docent/internal/docenterr"
	"github.com/chardmeier/docent/pkg/docent/phrase"
)

// Markable is one annotated span: a contiguous range of words within a
// single sentence, carrying whatever XML attributes its markable layer
// declared (apart from the span/level bookkeeping attributes).
type Markable struct {
	ID         string
	Sentence   int
	Coverage   phrase.Coverage
	Words      phrase.Words
	Attributes map[string]string
}

// Attribute returns attr's value, or "" if the markable doesn't carry it.
func (m Markable) Attribute(attr string) string { return m.Attributes[attr] }

func (m Markable) less(o Markable) bool {
	if m.Sentence != o.Sentence {
		return m.Sentence < o.Sentence
	}
	return m.Coverage.Less(o.Coverage)
}

// MarkableLevel is one fully loaded annotation layer, sorted by
// (sentence, coverage) so lookups by coverage can binary-search.
type MarkableLevel struct {
	Name      string
	markables []Markable
	byID      map[string]*Markable
}

// ByID returns the markable with the given id attribute, if any.
func (l *MarkableLevel) ByID(id string) (Markable, bool) {
	m, ok := l.byID[id]
	if !ok {
		return Markable{}, false
	}
	return *m, true
}

// ForCoverage returns the single markable matching (sentence, coverage)
// exactly, erroring if none or more than one do.
func (l *MarkableLevel) ForCoverage(sentence int, coverage phrase.Coverage) (Markable, error) {
	i := sort.Search(len(l.markables), func(i int) bool {
		return !l.markables[i].less(Markable{Sentence: sentence, Coverage: coverage})
	})
	if i >= len(l.markables) || l.markables[i].Sentence != sentence || !l.markables[i].Coverage.Equal(coverage) {
		return Markable{}, &docenterr.FileFormatError{
			File:   l.Name,
			Reason: "no markable for the given sentence and coverage",
		}
	}
	if i+1 < len(l.markables) && l.markables[i+1].Sentence == sentence && l.markables[i+1].Coverage.Equal(coverage) {
		return Markable{}, &docenterr.FileFormatError{
			File:   l.Name,
			Reason: "more than one markable for the given sentence and coverage",
		}
	}
	return l.markables[i], nil
}

// MarkablesForCoverage returns every markable in sentence whose span
// intersects coverage, in document order.
func (l *MarkableLevel) MarkablesForCoverage(sentence int, coverage phrase.Coverage) []Markable {
	var out []Markable
	for _, m := range l.markables {
		if m.Sentence == sentence && m.Coverage.Intersects(coverage) {
			out = append(out, m)
		}
	}
	return out
}

// Document is one MMAX project: its words, sentence boundaries, and any
// number of lazily loaded markable levels.
type Document struct {
	words          phrase.Words
	sentenceStarts []int // len == NumSentences()+1, word offset of each sentence boundary

	levelFiles map[string]string
	levels     map[string]*MarkableLevel
}

// NumSentences returns the number of sentences the sentence-boundary
// markable level defined.
func (d *Document) NumSentences() int { return len(d.sentenceStarts) - 1 }

// Sentence returns sentence s's words.
func (d *Document) Sentence(s int) phrase.Words {
	return d.words[d.sentenceStarts[s]:d.sentenceStarts[s+1]]
}

// MarkableLevel returns the named annotation layer, parsing it on first
// request and caching the result.
func (d *Document) MarkableLevel(name string) (*MarkableLevel, error) {
	if lvl, ok := d.levels[name]; ok {
		return lvl, nil
	}
	file, ok := d.levelFiles[name]
	if !ok {
		return nil, &docenterr.FileFormatError{File: name, Reason: "markable level not declared in common_paths.xml"}
	}
	lvl, err := loadMarkableLevel(d, name, file)
	if err != nil {
		return nil, err
	}
	d.levels[name] = lvl
	return lvl, nil
}

type xmlCommonPaths struct {
	BasedataPath string         `xml:"basedata_path"`
	MarkablePath string         `xml:"markable_path"`
	Annotations  xmlAnnotations `xml:"annotations"`
}

type xmlAnnotations struct {
	Levels []xmlLevel `xml:"level"`
}

type xmlLevel struct {
	Name string `xml:"name,attr"`
	Path string `xml:",chardata"`
}

type xmlMmaxProject struct {
	Words string `xml:"words"`
}

type xmlWords struct {
	Words []xmlWord `xml:"word"`
}

type xmlWord struct {
	ID   string `xml:"id,attr"`
	Text string `xml:",chardata"`
}

type xmlMarkables struct {
	Markables []xmlMarkable `xml:"markable"`
}

type xmlMarkable struct {
	ID         string `xml:"id,attr"`
	MMAXLevel  string `xml:"mmax_level,attr"`
	OrderID    string `xml:"orderid,attr"`
	Span       string `xml:"span,attr"`
	Attributes map[string]string
}

// UnmarshalXML captures every attribute on <markable>, not just the ones
// this package already knows the name of, so Attribute("whatever") works
// for any annotation scheme a markable level happens to use.
func (m *xmlMarkable) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	m.Attributes = make(map[string]string, len(start.Attr))
	for _, a := range start.Attr {
		m.Attributes[a.Name.Local] = a.Value
		switch a.Name.Local {
		case "id":
			m.ID = a.Value
		case "mmax_level":
			m.MMAXLevel = a.Value
		case "orderid":
			m.OrderID = a.Value
		case "span":
			m.Span = a.Value
		}
	}
	return d.Skip()
}

var (
	spanSingle = regexp.MustCompile(`^word_([0-9]+)$`)
	spanRange  = regexp.MustCompile(`^word_([0-9]+)\.\.word_([0-9]+)$`)
)

// parseSpan parses MMAX2's "word_N" / "word_N..word_M" span syntax into a
// 0-based, half-open [start, end) word range.
func parseSpan(file, span string) (start, end int, err error) {
	if m := spanRange.FindStringSubmatch(span); m != nil {
		s, _ := strconv.Atoi(m[1])
		e, _ := strconv.Atoi(m[2])
		if s == 0 || e == 0 || s > e {
			return 0, 0, &docenterr.FileFormatError{File: file, Reason: "invalid span " + span}
		}
		return s - 1, e, nil
	}
	if m := spanSingle.FindStringSubmatch(span); m != nil {
		s, _ := strconv.Atoi(m[1])
		if s == 0 {
			return 0, 0, &docenterr.FileFormatError{File: file, Reason: "invalid span " + span}
		}
		return s - 1, s, nil
	}
	return 0, 0, &docenterr.FileFormatError{File: file, Reason: "cannot parse span " + span}
}

func readXML(file string, v interface{}) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return &docenterr.FileFormatError{File: file, Reason: "malformed XML: " + err.Error()}
	}
	return nil
}

func resolvePath(base, raw string) string {
	p := strings.ReplaceAll(raw, `\`, "/")
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Load reads the .mmax project at path, its common_paths.xml, its basedata
// word list, and its "sentence" markable level (MMAX2's convention for
// sentence segmentation), returning a Document ready to answer
// NumSentences/Sentence and to lazily load further markable levels.
func Load(path string) (*Document, error) {
	baseDir := filepath.Dir(path)
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var common xmlCommonPaths
	if err := readXML(filepath.Join(baseDir, "common_paths.xml"), &common); err != nil {
		return nil, err
	}

	basedataDir := resolvePath(baseDir, common.BasedataPath)
	markableDir := resolvePath(baseDir, common.MarkablePath)

	levelFiles := make(map[string]string, len(common.Annotations.Levels))
	for _, lvl := range common.Annotations.Levels {
		p := strings.Replace(lvl.Path, "$", stem, 1)
		levelFiles[lvl.Name] = resolvePath(markableDir, p)
	}

	var project xmlMmaxProject
	if err := readXML(path, &project); err != nil {
		return nil, err
	}
	if project.Words == "" {
		return nil, &docenterr.FileFormatError{File: path, Reason: "no <words> element in .mmax project file"}
	}
	basedataFile := resolvePath(basedataDir, project.Words)

	var words xmlWords
	if err := readXML(basedataFile, &words); err != nil {
		return nil, err
	}
	wordList := make(phrase.Words, len(words.Words))
	for i, w := range words.Words {
		expected := "word_" + strconv.Itoa(i+1)
		if w.ID != expected {
			return nil, &docenterr.FileFormatError{File: basedataFile, Reason: "expected " + expected + ", found " + w.ID}
		}
		wordList[i] = w.Text
	}

	doc := &Document{
		words:      wordList,
		levelFiles: levelFiles,
		levels:     make(map[string]*MarkableLevel),
	}

	sentenceFile, ok := levelFiles["sentence"]
	if !ok {
		return nil, &docenterr.FileFormatError{File: path, Reason: "sentence markable level undefined in common_paths.xml"}
	}
	if err := loadSentenceBoundaries(doc, sentenceFile); err != nil {
		return nil, err
	}
	return doc, nil
}

func loadSentenceBoundaries(doc *Document, file string) error {
	var ms xmlMarkables
	if err := readXML(file, &ms); err != nil {
		return err
	}

	starts := []int{0}
	nextStart := 0
	for i, xm := range ms.Markables {
		if xm.MMAXLevel != "sentence" {
			return &docenterr.FileFormatError{File: file, Reason: "expected level sentence, found " + xm.MMAXLevel}
		}
		if xm.OrderID != strconv.Itoa(i) {
			return &docenterr.FileFormatError{File: file, Reason: "expected sentence " + strconv.Itoa(i) + ", found " + xm.OrderID}
		}
		start, end, err := parseSpan(file, xm.Span)
		if err != nil {
			return err
		}
		if start != nextStart {
			return &docenterr.FileFormatError{File: file, Reason: "sentence " + strconv.Itoa(i) + " does not start where the previous one ended"}
		}
		nextStart = end
		starts = append(starts, end)
	}
	doc.sentenceStarts = starts
	return nil
}

func loadMarkableLevel(doc *Document, name, file string) (*MarkableLevel, error) {
	var ms xmlMarkables
	if err := readXML(file, &ms); err != nil {
		return nil, err
	}

	lvl := &MarkableLevel{Name: name, byID: make(map[string]*Markable, len(ms.Markables))}
	for _, xm := range ms.Markables {
		if xm.MMAXLevel != name {
			return nil, &docenterr.FileFormatError{File: file, Reason: "expected level " + name + ", found " + xm.MMAXLevel}
		}
		start, end, err := parseSpan(file, xm.Span)
		if err != nil {
			return nil, err
		}
		if end > len(doc.words) {
			return nil, &docenterr.FileFormatError{File: file, Reason: xm.ID + ": word index beyond end of document"}
		}

		sentno, ok := sentenceContaining(doc.sentenceStarts, start, end)
		if !ok {
			continue // cross-sentence markable: ignored, as the original does
		}
		offset := doc.sentenceStarts[sentno]

		attrs := make(map[string]string, len(xm.Attributes))
		for k, v := range xm.Attributes {
			if k == "mmax_level" || k == "span" {
				continue
			}
			attrs[k] = v
		}

		lvl.markables = append(lvl.markables, Markable{
			ID:         xm.ID,
			Sentence:   sentno,
			Coverage:   phrase.NewCoverage(start-offset, end-offset),
			Words:      append(phrase.Words(nil), doc.words[start:end]...),
			Attributes: attrs,
		})
	}

	sort.Slice(lvl.markables, func(i, j int) bool { return lvl.markables[i].less(lvl.markables[j]) })
	for i := range lvl.markables {
		if id := lvl.markables[i].ID; id != "" {
			lvl.byID[id] = &lvl.markables[i]
		}
	}
	return lvl, nil
}

// sentenceContaining returns the index of the sentence that fully contains
// the half-open word range [start, end), or false if it crosses a sentence
// boundary.
func sentenceContaining(starts []int, start, end int) (int, bool) {
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > start }) - 1
	if i < 0 || i+1 >= len(starts) || end > starts[i+1] {
		return 0, false
	}
	return i, true
}
