package trip

import "github.com/san-kum/powerlink/internal/gunns"

type Phase int

const (
	NotTripped Phase = iota
	WaitingToTrip
	Tripped
)

func (p Phase) String() string {
	switch p {
	case NotTripped:
		return "NOT_TRIPPED"
	case WaitingToTrip:
		return "WAITING_TO_TRIP"
	case Tripped:
		return "TRIPPED"
	default:
		return "UNKNOWN"
	}
}

// Limits configures a switch's trips. Overcurrent limits are magnitudes;
// zero disables a trip.
type Limits struct {
	PosOvercurrent float64 `yaml:"pos_overcurrent"`
	NegOvercurrent float64 `yaml:"neg_overcurrent"`
	UnderVoltage   float64 `yaml:"under_voltage"`
	OverVoltage    float64 `yaml:"over_voltage"`
	Priority       int     `yaml:"priority"`
}

// State is the trip sub-state of one switch. It is owned by that switch.
type State struct {
	PosOvercurrent Logic
	NegOvercurrent Logic
	UnderVoltage   Logic
	OverVoltage    Logic
	priority       int
	waiting        bool
	justTripped    bool
}

func NewState(l Limits) *State {
	return &State{
		PosOvercurrent: NewGreaterThan(l.PosOvercurrent, l.Priority),
		NegOvercurrent: NewLessThan(-l.NegOvercurrent, l.Priority),
		UnderVoltage:   NewLessThan(l.UnderVoltage, l.Priority),
		OverVoltage:    NewGreaterThan(l.OverVoltage, l.Priority),
		priority:       l.Priority,
	}
}

func (s *State) Priority() int { return s.priority }

// Evaluate runs every trip against the sensed current and voltage and
// folds their votes.
func (s *State) Evaluate(current, voltage float64, convergedStep int) gunns.SolutionResult {
	s.waiting, s.justTripped = false, false
	result := gunns.Confirm
	checks := []struct {
		logic  *Logic
		sensed float64
	}{
		{&s.PosOvercurrent, current},
		{&s.NegOvercurrent, current},
		{&s.UnderVoltage, voltage},
		{&s.OverVoltage, voltage},
	}
	for _, c := range checks {
		r, tripped := c.logic.CheckForTrip(c.sensed, convergedStep)
		if tripped {
			s.justTripped = true
		}
		result = gunns.Combine(result, r)
	}
	s.waiting = result == gunns.Delay
	return result
}

// HasJustTripped reports whether the last Evaluate tripped the switch.
func (s *State) HasJustTripped() bool { return s.justTripped }

func (s *State) IsTripped() bool {
	return s.PosOvercurrent.IsTripped() || s.NegOvercurrent.IsTripped() ||
		s.UnderVoltage.IsTripped() || s.OverVoltage.IsTripped()
}

func (s *State) Phase() Phase {
	switch {
	case s.IsTripped():
		return Tripped
	case s.waiting:
		return WaitingToTrip
	default:
		return NotTripped
	}
}

// Reset clears every trip. It is the only way out of Tripped.
func (s *State) Reset() {
	s.PosOvercurrent.Reset()
	s.NegOvercurrent.Reset()
	s.UnderVoltage.Reset()
	s.OverVoltage.Reset()
	s.waiting, s.justTripped = false, false
}

// Causes lists the trips currently latched.
func (s *State) Causes() []string {
	var out []string
	if s.PosOvercurrent.IsTripped() {
		out = append(out, "pos_overcurrent")
	}
	if s.NegOvercurrent.IsTripped() {
		out = append(out, "neg_overcurrent")
	}
	if s.UnderVoltage.IsTripped() {
		out = append(out, "under_voltage")
	}
	if s.OverVoltage.IsTripped() {
		out = append(out, "over_voltage")
	}
	return out
}
