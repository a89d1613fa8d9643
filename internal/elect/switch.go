package elect

import (
	"github.com/san-kum/powerlink/internal/gunns"
	"github.com/san-kum/powerlink/internal/trip"
)

// SwitchConfig configures a protective switch.
type SwitchConfig struct {
	Resistance float64     `yaml:"resistance"`
	Trips      trip.Limits `yaml:"trips"`
}

func (c SwitchConfig) validate(name string) error {
	switch {
	case c.Resistance <= 0:
		return gunns.InitError(name, "initialize", "switch resistance %v must be positive", c.Resistance)
	case c.Trips.PosOvercurrent < 0 || c.Trips.NegOvercurrent < 0:
		return gunns.InitError(name, "initialize", "overcurrent limits must be magnitudes")
	case c.Trips.UnderVoltage < 0 || c.Trips.OverVoltage < 0:
		return gunns.InitError(name, "initialize", "voltage trip limits are negative")
	case c.Trips.OverVoltage > 0 && c.Trips.UnderVoltage >= c.Trips.OverVoltage:
		return gunns.InitError(name, "initialize", "under-voltage trip %v not below over-voltage trip %v",
			c.Trips.UnderVoltage, c.Trips.OverVoltage)
	case c.Trips.Priority < 1:
		return gunns.InitError(name, "initialize", "trip priority %d must be at least 1", c.Trips.Priority)
	}
	return nil
}

// Switch is the position, command and trip state of one protective
// switch, with the sensors its trips read.
type Switch struct {
	cfg           SwitchConfig
	trips         *trip.State
	command       bool
	resetPending  bool
	failOpen      bool
	failClosed    bool
	closed        bool
	CurrentSensor Sensor
	VoltageSensor Sensor
}

func newSwitch(cfg SwitchConfig, closed bool) *Switch {
	s := &Switch{cfg: cfg, trips: trip.NewState(cfg.Trips), command: closed}
	s.updatePosition()
	return s
}

func (s *Switch) IsClosed() bool            { return s.closed }
func (s *Switch) IsTripped() bool           { return s.trips.IsTripped() }
func (s *Switch) HasJustTripped() bool      { return s.trips.HasJustTripped() }
func (s *Switch) TripPhase() trip.Phase     { return s.trips.Phase() }
func (s *Switch) TripCauses() []string      { return s.trips.Causes() }
func (s *Switch) Priority() int             { return s.trips.Priority() }
func (s *Switch) Resistance() float64       { return s.cfg.Resistance }
func (s *Switch) PositionCommand() bool     { return s.command }
func (s *Switch) SetPositionCommand(c bool) { s.command = c }

// ResetTrips requests a trip reset, applied at the next major step.
func (s *Switch) ResetTrips() { s.resetPending = true }

// Step applies pending commands. Trips are reset only here, never within
// a convergence cycle.
func (s *Switch) Step(dt float64) {
	if s.resetPending {
		s.trips.Reset()
		s.resetPending = false
	}
	s.CurrentSensor.Step(dt)
	s.VoltageSensor.Step(dt)
	s.updatePosition()
}

func (s *Switch) updatePosition() {
	s.closed = s.failClosed || (!s.failOpen && s.command && !s.trips.IsTripped())
}

// Conductance is the series conductance of the switch path.
func (s *Switch) Conductance() float64 {
	if !s.closed {
		return 0
	}
	return 1.0 / s.cfg.Resistance
}

// UpdateTrips feeds sensed current and voltage to the trips. An open
// switch has nothing to trip and confirms.
func (s *Switch) UpdateTrips(current, voltage float64, convergedStep int) gunns.SolutionResult {
	sensedI := s.CurrentSensor.Sense(current)
	sensedV := s.VoltageSensor.Sense(voltage)
	if !s.closed {
		return gunns.Confirm
	}
	r := s.trips.Evaluate(sensedI, sensedV, convergedStep)
	if s.trips.HasJustTripped() {
		s.updatePosition()
	}
	return r
}

func (s *Switch) applyFault(name string, f gunns.Fault) error {
	switch f.Kind {
	case gunns.SwitchFailOpen:
		s.failOpen = f.Active
	case gunns.SwitchFailClosed:
		s.failClosed = f.Active
	case gunns.CurrentSensorBias:
		s.CurrentSensor.SetBias(f.Active, f.Value)
	case gunns.CurrentSensorDrift:
		s.CurrentSensor.SetDrift(f.Active, f.Value)
	case gunns.VoltageSensorBias:
		s.VoltageSensor.SetBias(f.Active, f.Value)
	case gunns.VoltageSensorDrift:
		s.VoltageSensor.SetDrift(f.Active, f.Value)
	default:
		return &gunns.LinkError{Link: name, Op: "fault " + f.Kind.String(), Wrapped: gunns.ErrUnsupportedFault}
	}
	return nil
}
