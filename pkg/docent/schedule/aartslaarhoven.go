package schedule

import "math"

// AartsLaarhoven is the adaptive schedule from Aarts & van Laarhoven: an
// initial calibration phase picks a starting temperature that targets a
// given empirical acceptance ratio, then fixed-length Markov chains update
// the temperature from the observed mean and variance of accepted costs,
// terminating once the moving average of those means stops improving by
// more than epsilon (§4.7).
//
// The schedule reasons in "cost" terms (cost = -score, so a downhill move
// is a score improvement) to match the classical Aarts-Korst estimator,
// then exposes Temperature()/IsDone()/Step() in the same score-oriented
// terms every other schedule uses.
type AartsLaarhoven struct {
	Delta                  float64
	Epsilon                float64
	InitialAcceptanceRatio float64
	ChainLength            int
	InitSteps              int
	MovingAvgWindow        int

	calibrating bool
	initCount   int
	m1, m2      int     // accepted transitions, total transitions
	sumUpCost   float64 // sum of cost increases among worsening transitions

	t float64

	chainStep  int
	chainSum   float64
	chainSumSq float64
	chainN     int

	ring     []float64 // circular buffer of per-chain means
	ringHead int
	ringFull bool

	prevT float64
	done  bool
}

// DefaultAartsLaarhoven returns a schedule configured with the original's
// default constants.
func DefaultAartsLaarhoven() *AartsLaarhoven {
	return NewAartsLaarhoven(0.1, 1e-3, 0.95, 200, 30, 15)
}

// NewAartsLaarhoven constructs an adaptive schedule with explicit
// parameters.
func NewAartsLaarhoven(delta, epsilon, initialAcceptanceRatio float64, chainLength, initSteps, movingAvgWindow int) *AartsLaarhoven {
	return &AartsLaarhoven{
		Delta:                  delta,
		Epsilon:                epsilon,
		InitialAcceptanceRatio: initialAcceptanceRatio,
		ChainLength:            chainLength,
		InitSteps:              initSteps,
		MovingAvgWindow:        movingAvgWindow,
		calibrating:            true,
		ring:                   make([]float64, movingAvgWindow),
	}
}

func (a *AartsLaarhoven) Temperature() float64 {
	if a.t == 0 {
		return 1 // calibration hasn't produced an estimate yet; behave as "hot"
	}
	return a.t
}

func (a *AartsLaarhoven) IsDone() bool { return a.done }

func (a *AartsLaarhoven) Step(score float64, accepted bool) {
	cost := -score
	if a.calibrating {
		a.observeCalibration(cost, accepted)
		return
	}
	a.observeChain(cost, accepted)
}

func (a *AartsLaarhoven) observeCalibration(cost float64, accepted bool) {
	a.m2++
	if accepted {
		a.m1++
	} else if cost > 0 {
		a.sumUpCost += cost
	}
	a.initCount++
	if a.initCount < a.InitSteps {
		return
	}
	a.t = a.adaptInitialTemperature()
	a.calibrating = false
}

func (a *AartsLaarhoven) adaptInitialTemperature() float64 {
	if a.m2 == 0 {
		return 1
	}
	chi := a.InitialAcceptanceRatio
	denom := float64(a.m2)*chi - float64(a.m1)*(1-chi)
	ratio := float64(a.m2) / denom
	if denom <= 0 || ratio <= 1 {
		return 1
	}
	return (a.sumUpCost / float64(a.m2)) / math.Log(ratio)
}

func (a *AartsLaarhoven) observeChain(cost float64, accepted bool) {
	if accepted {
		a.chainSum += cost
		a.chainSumSq += cost * cost
		a.chainN++
	}
	a.chainStep++
	if a.chainStep < a.ChainLength {
		return
	}
	a.endChain()
}

func (a *AartsLaarhoven) endChain() {
	var mu, sigma float64
	if a.chainN > 0 {
		mu = a.chainSum / float64(a.chainN)
		variance := a.chainSumSq/float64(a.chainN) - mu*mu
		if variance > 0 {
			sigma = math.Sqrt(variance)
		}
	}

	a.prevT = a.t
	if sigma > 0 {
		a.t = a.t / (1 + a.t*math.Log(1+a.Delta)/(3*sigma))
	}

	a.ring[a.ringHead] = mu
	a.ringHead = (a.ringHead + 1) % len(a.ring)
	if a.ringHead == 0 {
		a.ringFull = true
	}

	if a.ringFull {
		front := a.ring[a.ringHead] // oldest entry, just about to be overwritten next
		back := a.ring[(a.ringHead-1+len(a.ring))%len(a.ring)]
		denom := a.prevT - a.t
		if mu != 0 && denom != 0 {
			q := (a.t / mu) * (front - back) / float64(len(a.ring)-1) / denom
			if math.Abs(q) < a.Epsilon {
				a.done = true
			}
		}
	}

	a.chainStep, a.chainSum, a.chainSumSq, a.chainN = 0, 0, 0, 0
}
