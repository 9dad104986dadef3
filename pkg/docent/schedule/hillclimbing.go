package schedule

// HillClimbing holds the temperature effectively at zero (a fixed 1e-10, as
// in the original) so that only strictly improving steps are ever accepted
// under the Metropolis rule, and declares itself done once MaxRejected
// consecutive rejections have accumulated since the last acceptance.
type HillClimbing struct {
	MaxRejected int
	rejected    int
}

// NewHillClimbing constructs a HillClimbing schedule with the given
// consecutive-rejection limit.
func NewHillClimbing(maxRejected int) *HillClimbing {
	return &HillClimbing{MaxRejected: maxRejected}
}

// fixedTemperature is effectively zero: small enough that any non-improving
// proposal is rejected by the Metropolis rule in practice, matching the
// original's constant.
const fixedTemperature = 1e-10

func (h *HillClimbing) Temperature() float64 { return fixedTemperature }

func (h *HillClimbing) IsDone() bool { return h.rejected > h.MaxRejected }

func (h *HillClimbing) Step(score float64, accepted bool) {
	if accepted {
		h.rejected = 0
	} else {
		h.rejected++
	}
}
