package phrase

// Alignment is a bit matrix linking source word positions to target word
// positions within one phrase pair. Row i, column j set means source word i
// is aligned to target word j.
type Alignment struct {
	nsrc, ntgt int
	bits       []bool // row-major, nsrc*ntgt
}

// NewAlignment builds an empty alignment of the given shape.
func NewAlignment(nsrc, ntgt int) *Alignment {
	return &Alignment{nsrc: nsrc, ntgt: ntgt, bits: make([]bool, nsrc*ntgt)}
}

// Link marks source position i as aligned to target position j.
func (a *Alignment) Link(i, j int) {
	a.bits[i*a.ntgt+j] = true
}

// Linked reports whether source position i is aligned to target position j.
func (a *Alignment) Linked(i, j int) bool {
	return a.bits[i*a.ntgt+j]
}

// SourceDim and TargetDim report the matrix shape.
func (a *Alignment) SourceDim() int { return a.nsrc }
func (a *Alignment) TargetDim() int { return a.ntgt }

// TargetsFor returns the target positions aligned to source position i, in
// ascending order.
func (a *Alignment) TargetsFor(i int) []int {
	var out []int
	for j := 0; j < a.ntgt; j++ {
		if a.bits[i*a.ntgt+j] {
			out = append(out, j)
		}
	}
	return out
}

// SourcesFor returns the source positions aligned to target position j, in
// ascending order.
func (a *Alignment) SourcesFor(j int) []int {
	var out []int
	for i := 0; i < a.nsrc; i++ {
		if a.bits[i*a.ntgt+j] {
			out = append(out, i)
		}
	}
	return out
}

// Equal reports whether two alignments have identical shape and links.
func (a *Alignment) Equal(o *Alignment) bool {
	if a.nsrc != o.nsrc || a.ntgt != o.ntgt {
		return false
	}
	for i := range a.bits {
		if a.bits[i] != o.bits[i] {
			return false
		}
	}
	return true
}
