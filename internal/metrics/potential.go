package metrics

import (
	"math"

	"github.com/san-kum/powerlink/internal/network"
)

// PeakPotential is the largest node potential seen.
type PeakPotential struct {
	name string
	peak float64
}

func NewPeakPotential() *PeakPotential {
	return &PeakPotential{name: "peak_potential"}
}

func (p *PeakPotential) Name() string { return p.name }

func (p *PeakPotential) Observe(s network.Snapshot) {
	for _, v := range s.Potentials {
		p.peak = math.Max(p.peak, v)
	}
}

func (p *PeakPotential) Value() float64 { return p.peak }

func (p *PeakPotential) Reset() { p.peak = 0 }

// PotentialSag is the largest relative drop of one node's potential below
// its first observed value.
type PotentialSag struct {
	name    string
	node    int
	initial float64
	maxSag  float64
	samples int
}

func NewPotentialSag(node int) *PotentialSag {
	return &PotentialSag{
		name: "potential_sag",
		node: node,
	}
}

func (p *PotentialSag) Name() string { return p.name }

func (p *PotentialSag) Observe(s network.Snapshot) {
	if p.node < 0 || p.node >= len(s.Potentials) {
		return
	}
	v := s.Potentials[p.node]

	if p.samples == 0 {
		p.initial = v
	}
	p.samples++

	if p.initial != 0 {
		sag := (p.initial - v) / math.Abs(p.initial)
		p.maxSag = math.Max(p.maxSag, sag)
	}
}

func (p *PotentialSag) Value() float64 {
	return p.maxSag
}

func (p *PotentialSag) Reset() {
	p.initial = 0
	p.maxSag = 0
	p.samples = 0
}
