// Package config loads the decoder's XML configuration tree (§6: five
// top-level sections — <random>, <state-generator>, <search>, <models>,
// <weights>) and wires it into the concrete types the rest of the decoder
// needs. It keeps the teacher's two-phase config shape (typed file readers,
// then a Loader that builds a Components-style struct field by field with
// one wrapped error per section) but speaks XML instead of YAML.
package config

import (
	"encoding/xml"
	"strconv"

	"github.com/chardmeier/docent/internal/docenterr"
)

// Parameters holds a component's <p name="...">value</p> children as a flat
// string map, with typed accessors modeled on the original's
// Parameters::get<T>(name, default).
type Parameters map[string]string

func newParameters(raw []xmlParam) Parameters {
	p := make(Parameters, len(raw))
	for _, r := range raw {
		p[r.Name] = r.Value
	}
	return p
}

// GetString returns the named parameter, or def[0] if absent and a default
// was supplied, or a ConfigurationError if absent with no default.
func (p Parameters) GetString(path, name string, def ...string) (string, error) {
	if v, ok := p[name]; ok {
		return v, nil
	}
	if len(def) > 0 {
		return def[0], nil
	}
	return "", &docenterr.ConfigurationError{Path: path, Param: name, Reason: "required parameter missing"}
}

// GetFloat parses the named parameter as a float64.
func (p Parameters) GetFloat(path, name string, def ...float64) (float64, error) {
	v, ok := p[name]
	if !ok {
		if len(def) > 0 {
			return def[0], nil
		}
		return 0, &docenterr.ConfigurationError{Path: path, Param: name, Reason: "required parameter missing"}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &docenterr.ConfigurationError{Path: path, Param: name, Reason: "not a valid number: " + v}
	}
	return f, nil
}

// GetInt parses the named parameter as an int.
func (p Parameters) GetInt(path, name string, def ...int) (int, error) {
	v, ok := p[name]
	if !ok {
		if len(def) > 0 {
			return def[0], nil
		}
		return 0, &docenterr.ConfigurationError{Path: path, Param: name, Reason: "required parameter missing"}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &docenterr.ConfigurationError{Path: path, Param: name, Reason: "not a valid integer: " + v}
	}
	return n, nil
}

// GetBool parses the named parameter as a bool ("true"/"false"/"1"/"0").
func (p Parameters) GetBool(path, name string, def ...bool) (bool, error) {
	v, ok := p[name]
	if !ok {
		if len(def) > 0 {
			return def[0], nil
		}
		return false, &docenterr.ConfigurationError{Path: path, Param: name, Reason: "required parameter missing"}
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &docenterr.ConfigurationError{Path: path, Param: name, Reason: "not a valid boolean: " + v}
	}
	return b, nil
}

// --- raw XML shape (§6) ---

type xmlParam struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlDocument struct {
	XMLName        xml.Name          `xml:"docent"`
	Random         xmlRandom         `xml:"random"`
	StateGenerator xmlStateGenerator `xml:"state-generator"`
	Search         xmlSearch         `xml:"search"`
	Models         xmlModels         `xml:"models"`
	Weights        xmlWeights        `xml:"weights"`
}

type xmlRandom struct {
	Seed uint64 `xml:"seed,attr"`
}

type xmlInitialState struct {
	Type   string     `xml:"type,attr"`
	Params []xmlParam `xml:"p"`
}

type xmlOperation struct {
	Type   string     `xml:"type,attr"`
	Weight float64    `xml:"weight,attr"`
	Params []xmlParam `xml:"p"`
}

type xmlStateGenerator struct {
	InitialState xmlInitialState `xml:"initial-state"`
	Operations   []xmlOperation  `xml:"operation"`
}

type xmlSchedule struct {
	Type   string     `xml:"type,attr"`
	Params []xmlParam `xml:"p"`
}

type xmlSearch struct {
	Algorithm string      `xml:"algorithm,attr"`
	Params    []xmlParam  `xml:"p"`
	Schedule  xmlSchedule `xml:"schedule"`
}

type xmlModel struct {
	Type   string     `xml:"type,attr"`
	ID     string     `xml:"id,attr"`
	Params []xmlParam `xml:"p"`
}

type xmlModels struct {
	Models []xmlModel `xml:"model"`
}

type xmlWeight struct {
	Model string  `xml:"model,attr"`
	Score float64 `xml:"score,attr"`
}

type xmlWeights struct {
	Weights []xmlWeight `xml:"weight"`
}
