package loads

import (
	"math"

	"github.com/san-kum/powerlink/internal/gunns"
)

// Aggregator folds a set of user loads into one parallel conductance and
// one total power. Loads are added only before Freeze.
type Aggregator struct {
	owner  string
	loads  []UserLoad
	frozen bool
}

func NewAggregator(owner string) *Aggregator {
	return &Aggregator{owner: owner, loads: make([]UserLoad, 0)}
}

func (a *Aggregator) Add(l UserLoad) error {
	if l == nil {
		return gunns.InitError(a.owner, "add user load", "nil load")
	}
	if a.frozen {
		return gunns.InitError(a.owner, "add user load", "cannot add %q after initialization", l.Name())
	}
	a.loads = append(a.loads, l)
	return nil
}

// Freeze ends the builder phase.
func (a *Aggregator) Freeze() { a.frozen = true }

func (a *Aggregator) Len() int          { return len(a.loads) }
func (a *Aggregator) Loads() []UserLoad { return a.loads }

// Update recomputes every load at the supplied voltage.
func (a *Aggregator) Update(voltage float64) {
	for _, l := range a.loads {
		l.Update(voltage)
	}
}

func (a *Aggregator) StepDutyCycles(dt float64) {
	for _, l := range a.loads {
		l.StepDutyCycle(dt)
	}
}

// Conductance returns the sum of 1/R over loads with intact fuses,
// floored so an empty or all-off set never reads zero.
func (a *Aggregator) Conductance() float64 {
	g := 0.0
	for _, l := range a.loads {
		if l.IsFuseBlown() {
			continue
		}
		g += 1.0 / math.Max(l.Resistance(), MinimumResistance)
	}
	return math.Max(g, gunns.ConductanceFloor)
}

// Power returns the total power drawn by loads with intact fuses.
func (a *Aggregator) Power() float64 {
	p := 0.0
	for _, l := range a.loads {
		if l.IsFuseBlown() {
			continue
		}
		p += l.Power()
	}
	return p
}

// CheckFuses updates every fuse with its load's current and returns the
// names of loads whose fuse blew on this call.
func (a *Aggregator) CheckFuses() []string {
	var blown []string
	for _, l := range a.loads {
		if l.UpdateFuse(l.Current()) {
			blown = append(blown, l.Name())
		}
	}
	return blown
}

func (a *Aggregator) ResetFuses() {
	for _, l := range a.loads {
		l.ResetFuse()
	}
}

// Frozen reports whether the builder phase has ended.
func (a *Aggregator) Frozen() bool { return a.frozen }
