package metrics

import "github.com/san-kum/powerlink/internal/network"

// ConvergenceRate is the fraction of major steps that reached a
// confirmed solution.
type ConvergenceRate struct {
	name     string
	failures int
	samples  int
}

func NewConvergenceRate() *ConvergenceRate {
	return &ConvergenceRate{
		name: "convergence_rate",
	}
}

func (c *ConvergenceRate) Name() string {
	return c.name
}

func (c *ConvergenceRate) Observe(s network.Snapshot) {
	c.samples++
	if !s.Converged {
		c.failures++
	}
}

func (c *ConvergenceRate) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.failures)/float64(c.samples)
}

func (c *ConvergenceRate) Reset() {
	c.failures = 0
	c.samples = 0
}

// Standard returns the metrics every run records.
func Standard() []network.Metric {
	return []network.Metric{
		NewMinorStepEffort(),
		NewTripCount(),
		NewPeakPotential(),
		NewConvergenceRate(),
	}
}
