package gunns

import "math"

// ConductanceFloor is the smallest conductance a link writes for a path
// that must stay in the system, keeping the admittance matrix invertible.
const ConductanceFloor = 100 * 2.220446049250313e-16

// Admittance is a link's contribution to the solver's global admittance
// matrix and source vector, indexed by the link's port numbers.
type Admittance struct {
	Size   int
	Matrix []float64
	Source []float64
}

func NewAdmittance(ports int) *Admittance {
	return &Admittance{
		Size:   ports,
		Matrix: make([]float64, ports*ports),
		Source: make([]float64, ports),
	}
}

func (a *Admittance) At(i, j int) float64 { return a.Matrix[i*a.Size+j] }

func (a *Admittance) Set(i, j int, v float64) { a.Matrix[i*a.Size+j] = v }

func (a *Admittance) Clone() *Admittance {
	c := NewAdmittance(a.Size)
	copy(c.Matrix, a.Matrix)
	copy(c.Source, a.Source)
	return c
}

func (a *Admittance) zero() {
	for i := range a.Matrix {
		a.Matrix[i] = 0
	}
	for i := range a.Source {
		a.Source[i] = 0
	}
}

// AdmittanceBuilder stages a candidate contribution and commits only the
// entries that moved by more than the conductance tolerance, so the solver
// does not re-factor on floating-point noise.
type AdmittanceBuilder struct {
	committed   *Admittance
	candidate   *Admittance
	inputs      []float64
	tolerance   float64
	changed     bool
	initialized bool
}

func NewAdmittanceBuilder(ports int, tolerance float64) *AdmittanceBuilder {
	return &AdmittanceBuilder{
		committed: NewAdmittance(ports),
		candidate: NewAdmittance(ports),
		inputs:    make([]float64, ports),
		tolerance: math.Abs(tolerance),
	}
}

// Admittance returns the committed contribution.
func (b *AdmittanceBuilder) Admittance() *Admittance { return b.committed }

// IsConductanceChanged reports whether the last Commit wrote any matrix entry.
func (b *AdmittanceBuilder) IsConductanceChanged() bool { return b.changed }

// InputConductances returns the per-port conductances set by UpdateInputConductance.
func (b *AdmittanceBuilder) InputConductances() []float64 { return b.inputs }

// Reset clears the candidate before stamping.
func (b *AdmittanceBuilder) Reset() { b.candidate.zero() }

// StampShunt adds a conductance from port to ground. Negative values clamp to zero.
func (b *AdmittanceBuilder) StampShunt(port int, g float64) {
	g = math.Max(g, 0)
	n := b.candidate.Size
	b.candidate.Matrix[port*n+port] += g
}

// StampSeries adds a conductance between two ports. Negative values clamp to zero.
func (b *AdmittanceBuilder) StampSeries(i, j int, g float64) {
	g = math.Max(g, 0)
	n := b.candidate.Size
	b.candidate.Matrix[i*n+i] += g
	b.candidate.Matrix[j*n+j] += g
	b.candidate.Matrix[i*n+j] -= g
	b.candidate.Matrix[j*n+i] -= g
}

// StampSource adds a source-vector term at port.
func (b *AdmittanceBuilder) StampSource(port int, w float64) {
	b.candidate.Source[port] += w
}

// UpdateInputConductance sets the active channel's conductance and gives
// every other channel the small unselected leakage conductance, then
// stamps each as a shunt. With no active channel every port leaks.
func (b *AdmittanceBuilder) UpdateInputConductance(active int, activeG, unselectedG float64) {
	for i := range b.inputs {
		if i == active {
			b.inputs[i] = math.Max(activeG, unselectedG)
		} else {
			b.inputs[i] = unselectedG
		}
		b.StampShunt(i, b.inputs[i])
	}
}

// Commit copies candidate entries that differ from the committed ones by
// more than the tolerance. The first commit writes everything. Source terms
// are always copied.
func (b *AdmittanceBuilder) Commit() bool {
	b.changed = false
	for k, v := range b.candidate.Matrix {
		if !b.initialized || math.Abs(v-b.committed.Matrix[k]) > b.tolerance {
			if b.committed.Matrix[k] != v {
				b.changed = true
			}
			b.committed.Matrix[k] = v
		}
	}
	copy(b.committed.Source, b.candidate.Source)
	b.initialized = true
	return b.changed
}
