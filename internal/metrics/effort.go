package metrics

import "github.com/san-kum/powerlink/internal/network"

// MinorStepEffort is the mean number of minor steps per major step.
type MinorStepEffort struct {
	name    string
	sum     int
	samples int
}

func NewMinorStepEffort() *MinorStepEffort {
	return &MinorStepEffort{
		name: "minor_step_effort",
	}
}

func (m *MinorStepEffort) Name() string {
	return m.name
}

func (m *MinorStepEffort) Observe(s network.Snapshot) {
	m.sum += s.MinorSteps
	m.samples++
}

func (m *MinorStepEffort) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return float64(m.sum) / float64(m.samples)
}

func (m *MinorStepEffort) Reset() {
	m.sum = 0
	m.samples = 0
}

// TripCount counts switch trip events.
type TripCount struct {
	name  string
	trips int
}

func NewTripCount() *TripCount {
	return &TripCount{name: "trip_count"}
}

func (c *TripCount) Name() string               { return c.name }
func (c *TripCount) Observe(s network.Snapshot) { c.trips += len(s.Tripped) }
func (c *TripCount) Value() float64             { return float64(c.trips) }
func (c *TripCount) Reset()                     { c.trips = 0 }
