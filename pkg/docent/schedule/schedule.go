// Package schedule implements the CoolingSchedule family (§4.7): the three
// temperature trajectories that drive Metropolis acceptance in simulated
// annealing, and the rejection-counting termination rule hill climbing
// reuses.
package schedule

// Schedule is the contract every cooling schedule satisfies. The original's
// polymorphic CoolingSchedule hierarchy is re-expressed as a plain interface
// per the "tagged enumeration fixed by configuration" design note (§9):
// exactly three concrete types exist, selected by the decoder configuration.
type Schedule interface {
	Temperature() float64
	IsDone() bool
	Step(score float64, accepted bool)
}
