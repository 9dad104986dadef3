// Package nistxml reads and writes the NIST-MT "mteval" XML corpus format:
// <mteval><srcset|tstset|refset setid= srclang= trglang=><doc docid=>
// <seg id=>text</seg>...</doc>...</srcset></mteval>. It is a collaborator of
// the document-level search, not part of it: the decoder only needs a
// document's tokenised sentences in and a translated sentence per position
// out.
package nistxml

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/chardmeier/docent/internal/docenterr"
	"github.com/chardmeier/docent/pkg/docent/phrase"
)

// SetKind selects which of the three parallel sections of an mteval file to
// read: the source documents to translate, an existing system's output, or
// a reference translation.
type SetKind int

const (
	Srcset SetKind = iota
	Tstset
	Refset
)

func (k SetKind) tag() string {
	switch k {
	case Tstset:
		return "tstset"
	case Refset:
		return "refset"
	default:
		return "srcset"
	}
}

type rawSeg struct {
	ID   string `xml:"id,attr"`
	Text string `xml:",chardata"`
}

type rawDoc struct {
	DocID string   `xml:"docid,attr"`
	Segs  []rawSeg `xml:"seg"`
}

type rawSet struct {
	SetID   string    `xml:"setid,attr"`
	SrcLang string    `xml:"srclang,attr"`
	TrgLang string    `xml:"trglang,attr"`
	Docs    []rawDoc `xml:"doc"`
}

type rawMteval struct {
	XMLName xml.Name `xml:"mteval"`
	Srcset  *rawSet  `xml:"srcset"`
	Tstset  *rawSet  `xml:"tstset"`
	Refset  *rawSet  `xml:"refset"`
}

// Segment is one <seg> element: its sentence, and the annotation comment
// (if any) to emit inside it, ahead of its text, on output.
type Segment struct {
	ID         string
	Sentence   phrase.Words
	annotation string
}

// Document is one <doc> element: a document's ordered sentences, with room
// to attach a translation and annotation comments before writing it back
// out as a tstset.
type Document struct {
	DocID      string
	Segments   []Segment
	annotation string
}

// NumSentences returns the number of <seg> elements in the document.
func (d *Document) NumSentences() int { return len(d.Segments) }

// Sentence returns the tokenised source (or reference) text of sentence i.
func (d *Document) Sentence(i int) phrase.Words { return d.Segments[i].Sentence }

// SetTranslation overwrites sentence i's text with words, joined with
// single spaces on output.
func (d *Document) SetTranslation(i int, words phrase.Words) {
	d.Segments[i].Sentence = words
}

// AnnotateDocument attaches a comment that WriteTestset emits as the first
// child of this document's <doc> element, replacing any previous document
// annotation (mirrors the original's "one DOC comment per document" rule).
func (d *Document) AnnotateDocument(annotation string) {
	d.annotation = annotation
}

// AnnotateSentence attaches a comment WriteTestset emits inside sentence
// i's <seg> element, ahead of its text, replacing any previous annotation
// for that sentence.
func (d *Document) AnnotateSentence(i int, annotation string) {
	d.Segments[i].annotation = annotation
}

// Corpus is one parsed section (srcset, tstset or refset) of an mteval
// file.
type Corpus struct {
	SetID     string
	SrcLang   string
	TrgLang   string
	Documents []*Document
}

// Parse reads path and extracts the section named by kind.
func Parse(path string, kind SetKind) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader, err := charset.NewReader(f, "")
	if err != nil {
		return nil, &docenterr.FileFormatError{File: path, Reason: "could not determine character encoding: " + err.Error()}
	}

	dec := xml.NewDecoder(reader)
	dec.CharsetReader = charset.NewReaderLabel

	var raw rawMteval
	if err := dec.Decode(&raw); err != nil {
		return nil, &docenterr.FileFormatError{File: path, Reason: "malformed mteval XML: " + err.Error()}
	}

	var set *rawSet
	switch kind {
	case Srcset:
		set = raw.Srcset
	case Tstset:
		set = raw.Tstset
	case Refset:
		set = raw.Refset
	}
	if set == nil {
		return nil, &docenterr.FileFormatError{File: path, Reason: "file has no <" + kind.tag() + "> element"}
	}

	corpus := &Corpus{SetID: set.SetID, SrcLang: set.SrcLang, TrgLang: set.TrgLang}
	for _, rd := range set.Docs {
		doc := &Document{DocID: rd.DocID, Segments: make([]Segment, len(rd.Segs))}
		for i, rs := range rd.Segs {
			doc.Segments[i] = Segment{ID: rs.ID, Sentence: phrase.Words(strings.Fields(rs.Text))}
		}
		corpus.Documents = append(corpus.Documents, doc)
	}
	return corpus, nil
}

type outSeg struct {
	ID         string `xml:"id,attr"`
	Annotation string `xml:",comment,omitempty"`
	Text       string `xml:",chardata"`
}

type outDoc struct {
	DocID      string   `xml:"docid,attr"`
	Annotation string   `xml:",comment,omitempty"`
	Segs       []outSeg `xml:"seg"`
}

type outSet struct {
	SetID   string   `xml:"setid,attr"`
	SrcLang string   `xml:"srclang,attr"`
	TrgLang string   `xml:"trglang,attr"`
	SysID   string   `xml:"sysid,attr"`
	Docs    []outDoc `xml:"doc"`
}

type outMteval struct {
	XMLName xml.Name `xml:"mteval"`
	Tstset  outSet   `xml:"tstset"`
}

// WriteTestset writes c out as a <tstset>, attributing it to sysID and
// reusing c's source/target language pair. Comments attached via
// AnnotateDocument/AnnotateSentence are written as " DOC ... "/" SEG ... "
// comments inside the element they annotate: the DOC comment as the first
// child of <doc>, each SEG comment inside its <seg> ahead of the text.
func (c *Corpus) WriteTestset(w io.Writer, sysID string) error {
	out := outMteval{Tstset: outSet{
		SetID:   c.SetID,
		SrcLang: c.SrcLang,
		TrgLang: c.TrgLang,
		SysID:   sysID,
		Docs:    make([]outDoc, len(c.Documents)),
	}}
	for i, d := range c.Documents {
		od := outDoc{DocID: d.DocID, Segs: make([]outSeg, len(d.Segments))}
		if d.annotation != "" {
			od.Annotation = " DOC " + d.annotation + " "
		}
		for j, seg := range d.Segments {
			oseg := outSeg{ID: seg.ID, Text: seg.Sentence.String()}
			if seg.annotation != "" {
				oseg.Annotation = " SEG " + seg.annotation + " "
			}
			od.Segs[j] = oseg
		}
		out.Tstset.Docs[i] = od
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}
