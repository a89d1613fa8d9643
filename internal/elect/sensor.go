package elect

// Sensor reports a truth value with bias and drift malfunctions applied.
type Sensor struct {
	biasActive  bool
	bias        float64
	driftActive bool
	driftRate   float64
	drift       float64
	sensed      float64
}

func (s *Sensor) SetBias(active bool, value float64) {
	s.biasActive, s.bias = active, value
}

// SetDrift starts or stops a drift ramp. Stopping clears the accumulated drift.
func (s *Sensor) SetDrift(active bool, rate float64) {
	s.driftActive, s.driftRate = active, rate
	if !active {
		s.drift = 0
	}
}

func (s *Sensor) Step(dt float64) {
	if s.driftActive {
		s.drift += s.driftRate * dt
	}
}

func (s *Sensor) Sense(truth float64) float64 {
	s.sensed = truth
	if s.biasActive {
		s.sensed += s.bias
	}
	s.sensed += s.drift
	return s.sensed
}

func (s *Sensor) Sensed() float64 { return s.sensed }
