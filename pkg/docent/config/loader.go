package config

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/chardmeier/docent/internal/docenterr"
	"github.com/chardmeier/docent/pkg/docent/feature"
	"github.com/chardmeier/docent/pkg/docent/feature/builtin"
	"github.com/chardmeier/docent/pkg/docent/operation"
	"github.com/chardmeier/docent/pkg/docent/random"
	"github.com/chardmeier/docent/pkg/docent/schedule"
	"github.com/chardmeier/docent/pkg/docent/search"
)

// OperatorSpec is one <operation type= weight=> declaration, kept around so
// every document's search can build its own StateGenerator (which owns a
// per-document random.Source) from the same immutable specification.
type OperatorSpec struct {
	Type   string
	Weight float64
	Params Parameters
}

// InitialStateSpec is the <initial-state type=> declaration. Building the
// actual operation.StateInitialiser is deferred to the driver, since
// saved-state/testset need the path resolved against a concrete document
// index and its phrase table's interning Table, neither of which exist at
// config-load time.
type InitialStateSpec struct {
	Type   string
	Params Parameters
}

// ScheduleSpec is the <schedule type=> declaration nested under <search>.
type ScheduleSpec struct {
	Type   string
	Params Parameters
}

// AlgorithmSpec is the <search algorithm=> declaration.
type AlgorithmSpec struct {
	Type     string
	Params   Parameters
	Schedule ScheduleSpec
}

// Loader loads one decoder configuration file (§6) and wires it into a
// Decoder, directly modeled on the teacher's Loader.Load() building a
// Components struct field by field with one wrapped error per section.
type Loader struct {
	Path string
}

// Decoder is everything a driver needs to run search over any number of
// documents. Features and Weights are genuinely immutable and shared across
// documents (§5); Operators, InitialState and Algorithm are specifications
// the driver turns into fresh per-document instances via the New* methods,
// since StateGenerator and the cooling schedules carry document-scoped
// mutable state (a PRNG, an acceptance counter) that must never be shared
// between documents in flight.
type Decoder struct {
	Seed         uint64
	InitialState InitialStateSpec
	Operators    []OperatorSpec
	Algorithm    AlgorithmSpec
	Features     []*feature.Instantiation
	Weights      []float64
}

// Load reads and parses the configuration file at l.Path, builds the
// immutable Features/Weights, and validates that every operator, schedule,
// algorithm and initial-state type name is recognized by performing one
// dry-run construction of each (discarding the result) before returning —
// matching spec.md §7's "terminate before entering the search loop" for
// configuration errors.
func (l *Loader) Load() (*Decoder, error) {
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("read configuration %s: %w", l.Path, err)
	}

	var doc xmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &docenterr.FileFormatError{File: l.Path, Reason: "malformed XML: " + err.Error()}
	}

	features, weights, err := buildFeatures(doc.Models, doc.Weights)
	if err != nil {
		return nil, fmt.Errorf("load configuration %s: %w", l.Path, err)
	}

	operators := make([]OperatorSpec, len(doc.StateGenerator.Operations))
	for i, o := range doc.StateGenerator.Operations {
		operators[i] = OperatorSpec{Type: o.Type, Weight: o.Weight, Params: newParameters(o.Params)}
	}

	dec := &Decoder{
		Seed: doc.Random.Seed,
		InitialState: InitialStateSpec{
			Type:   doc.StateGenerator.InitialState.Type,
			Params: newParameters(doc.StateGenerator.InitialState.Params),
		},
		Operators: operators,
		Algorithm: AlgorithmSpec{
			Type:   doc.Search.Algorithm,
			Params: newParameters(doc.Search.Params),
			Schedule: ScheduleSpec{
				Type:   doc.Search.Schedule.Type,
				Params: newParameters(doc.Search.Schedule.Params),
			},
		},
		Features: features,
		Weights:  weights,
	}

	if _, _, err := dec.NewOperators(random.New(dec.Seed)); err != nil {
		return nil, fmt.Errorf("load configuration %s: %w", l.Path, err)
	}
	if _, err := dec.NewAlgorithm(random.New(dec.Seed)); err != nil {
		return nil, fmt.Errorf("load configuration %s: %w", l.Path, err)
	}
	if dec.InitialState.Type != "monotonic" && dec.InitialState.Type != "saved-state" && dec.InitialState.Type != "testset" {
		return nil, &docenterr.ConfigurationError{
			Path:   "state-generator/initial-state",
			Param:  "type",
			Reason: "unknown initial-state type " + dec.InitialState.Type,
		}
	}

	return dec, nil
}

func buildFeatures(models xmlModels, weightsXML xmlWeights) ([]*feature.Instantiation, []float64, error) {
	features := make([]*feature.Instantiation, 0, len(models.Models))
	total := 0
	for _, m := range models.Models {
		params := newParameters(m.Params)
		impl, err := buildFeatureFunction(m.Type, params)
		if err != nil {
			return nil, nil, err
		}
		fi := &feature.Instantiation{ID: m.ID, ScoreIndex: total, Impl: impl}
		features = append(features, fi)
		total += fi.NumberOfScores()
	}

	weights := make([]float64, total)
	assigned := make(map[string]bool, len(features))
	for _, w := range weightsXML.Weights {
		var target *feature.Instantiation
		for _, fi := range features {
			if fi.ID == w.Model {
				target = fi
				break
			}
		}
		if target == nil {
			return nil, nil, &docenterr.ConfigurationError{
				Path: "weights/weight", Param: "model",
				Reason: "weight specified for undeclared model " + w.Model,
			}
		}
		if assigned[w.Model] {
			return nil, nil, &docenterr.ConfigurationError{
				Path: "weights/weight", Param: "model",
				Reason: "model " + w.Model + " has more than one weight",
			}
		}
		assigned[w.Model] = true
		for i := target.ScoreIndex; i < target.ScoreIndex+target.NumberOfScores(); i++ {
			weights[i] = w.Score
		}
	}
	for _, fi := range features {
		if !assigned[fi.ID] {
			return nil, nil, &docenterr.ConfigurationError{
				Path: "weights", Param: fi.ID,
				Reason: "model " + fi.ID + " has no weight",
			}
		}
	}

	return features, weights, nil
}

func buildFeatureFunction(typ string, params Parameters) (feature.Function, error) {
	path := "models/model[type=" + typ + "]"
	switch typ {
	case "phrase-penalty":
		return builtin.PhrasePenalty{}, nil
	case "word-count":
		return builtin.WordCount{}, nil
	case "discourse-consistency":
		cap, err := params.GetInt(path, "cache-size", builtin.DefaultDiscourseCacheSize)
		if err != nil {
			return nil, err
		}
		return builtin.DiscourseConsistency{Capacity: cap}, nil
	default:
		return nil, &docenterr.ConfigurationError{Path: "models/model", Param: "type", Reason: "unknown model type " + typ}
	}
}

// NewOperators builds the six-operator family's configured subset plus
// their parallel weight slice, fresh, from this Decoder's immutable
// OperatorSpecs. rnd is unused by the operators themselves (they take a
// random.Source as a call argument, not as stored state) but is accepted
// here for symmetry with NewAlgorithm and to keep the signature stable if a
// future operator needs construction-time randomness.
func (d *Decoder) NewOperators(rnd *random.Source) ([]operation.Operation, []float64, error) {
	_ = rnd
	ops := make([]operation.Operation, len(d.Operators))
	weights := make([]float64, len(d.Operators))
	for i, spec := range d.Operators {
		op, err := buildOperator(spec)
		if err != nil {
			return nil, nil, err
		}
		ops[i] = op
		weights[i] = spec.Weight
	}
	return ops, weights, nil
}

func buildOperator(spec OperatorSpec) (operation.Operation, error) {
	path := "state-generator/operation[type=" + spec.Type + "]"
	p := spec.Params
	switch spec.Type {
	case "change-phrase-translation":
		return operation.ChangePhraseTranslation{}, nil
	case "permute-phrases":
		decay, err := p.GetFloat(path, "decay", 0.5)
		return operation.PermutePhrases{Decay: decay}, err
	case "linearise-phrases":
		decay, err := p.GetFloat(path, "decay", 0.5)
		return operation.LinearisePhrases{Decay: decay}, err
	case "swap-phrases":
		decay, err := p.GetFloat(path, "decay", 0.5)
		return operation.SwapPhrases{Decay: decay}, err
	case "move-phrases":
		sizeDecay, err := p.GetFloat(path, "size-decay", 0.5)
		if err != nil {
			return nil, err
		}
		leftDecay, err := p.GetFloat(path, "left-decay", 0.5)
		if err != nil {
			return nil, err
		}
		rightDecay, err := p.GetFloat(path, "right-decay", 0.5)
		if err != nil {
			return nil, err
		}
		pref, err := p.GetFloat(path, "right-move-preference", 0.5)
		if err != nil {
			return nil, err
		}
		return operation.MovePhrases{SizeDecay: sizeDecay, LeftDecay: leftDecay, RightDecay: rightDecay, RightMovePreference: pref}, nil
	case "resegment":
		decay, err := p.GetFloat(path, "decay", 0.5)
		return operation.Resegment{Decay: decay}, err
	default:
		return nil, &docenterr.ConfigurationError{Path: "state-generator/operation", Param: "type", Reason: "unknown operation type " + spec.Type}
	}
}

// NewSchedule builds a fresh schedule.Schedule from spec. Every schedule
// carries document-scoped mutable counters, so a new one is required per
// document search, never shared.
func NewSchedule(spec ScheduleSpec) (schedule.Schedule, error) {
	path := "search/schedule[type=" + spec.Type + "]"
	p := spec.Params
	switch spec.Type {
	case "geometric":
		t0, err := p.GetFloat(path, "t0", 10)
		if err != nil {
			return nil, err
		}
		decay, err := p.GetFloat(path, "decay", 0.9999)
		if err != nil {
			return nil, err
		}
		doneThreshold, err := p.GetFloat(path, "done-threshold", -30)
		if err != nil {
			return nil, err
		}
		stepOnAcceptance, err := p.GetBool(path, "step-on-acceptance", false)
		if err != nil {
			return nil, err
		}
		return schedule.NewGeometric(t0, decay, doneThreshold, stepOnAcceptance), nil
	case "hill-climbing":
		maxRejected, err := p.GetInt(path, "max-rejected", 100)
		return schedule.NewHillClimbing(maxRejected), err
	case "aarts-laarhoven":
		delta, err := p.GetFloat(path, "delta", 0.1)
		if err != nil {
			return nil, err
		}
		epsilon, err := p.GetFloat(path, "epsilon", 1e-3)
		if err != nil {
			return nil, err
		}
		chi0, err := p.GetFloat(path, "initial-acceptance-ratio", 0.95)
		if err != nil {
			return nil, err
		}
		chainLength, err := p.GetInt(path, "chain-length", 200)
		if err != nil {
			return nil, err
		}
		initSteps, err := p.GetInt(path, "init-steps", 30)
		if err != nil {
			return nil, err
		}
		window, err := p.GetInt(path, "moving-avg-window", 15)
		if err != nil {
			return nil, err
		}
		return schedule.NewAartsLaarhoven(delta, epsilon, chi0, chainLength, initSteps, window), nil
	default:
		return nil, &docenterr.ConfigurationError{Path: "search/schedule", Param: "type", Reason: "unknown schedule type " + spec.Type}
	}
}

// NewAlgorithm builds a fresh search.Algorithm (and its fresh Schedule) from
// this Decoder's AlgorithmSpec.
func (d *Decoder) NewAlgorithm(rnd *random.Source) (search.Algorithm, error) {
	_ = rnd
	sched, err := NewSchedule(d.Algorithm.Schedule)
	if err != nil {
		return nil, err
	}

	path := "search"
	p := d.Algorithm.Params
	maxSteps, err := p.GetInt(path, "max-steps", 0)
	if err != nil {
		return nil, err
	}
	maxAccepted, err := p.GetInt(path, "max-accepted", 0)
	if err != nil {
		return nil, err
	}
	nbestSize, err := p.GetInt(path, "nbest-size", 1)
	if err != nil {
		return nil, err
	}
	limits := search.Limits{MaxSteps: maxSteps, MaxAccepted: maxAccepted, NbestSize: nbestSize}
	if targetScore, err := p.GetFloat(path, "target-score"); err == nil {
		limits.HasTargetScore = true
		limits.TargetScore = targetScore
	}

	switch d.Algorithm.Type {
	case "simulated-annealing":
		return search.SimulatedAnnealing{Schedule: sched, Limits: limits}, nil
	case "hill-climbing":
		hc, ok := sched.(*schedule.HillClimbing)
		if !ok {
			return nil, &docenterr.ConfigurationError{Path: path, Param: "algorithm", Reason: "hill-climbing algorithm requires a hill-climbing schedule"}
		}
		return search.HillClimbing{Schedule: hc, Limits: limits}, nil
	case "local-beam-search":
		beamSize, err := p.GetInt(path, "beam-size", search.DefaultBeamSize)
		if err != nil {
			return nil, err
		}
		return search.LocalBeamSearch{Schedule: sched, Limits: limits, BeamSize: beamSize}, nil
	default:
		return nil, &docenterr.ConfigurationError{Path: path, Param: "algorithm", Reason: "unknown search algorithm " + d.Algorithm.Type}
	}
}
