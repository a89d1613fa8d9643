package trip

import "github.com/san-kum/powerlink/internal/gunns"

// Logic trips when a sensed value goes beyond Limit. A zero limit disables it.
type Logic struct {
	limit       float64
	priority    int
	greaterThan bool
	tripped     bool
}

// NewGreaterThan trips when the sensed value exceeds limit.
func NewGreaterThan(limit float64, priority int) Logic {
	return Logic{limit: limit, priority: priority, greaterThan: true}
}

// NewLessThan trips when the sensed value falls below limit.
func NewLessThan(limit float64, priority int) Logic {
	return Logic{limit: limit, priority: priority}
}

func (l *Logic) Enabled() bool   { return l.limit != 0 }
func (l *Logic) IsTripped() bool { return l.tripped }
func (l *Logic) Limit() float64  { return l.limit }
func (l *Logic) Priority() int   { return l.priority }
func (l *Logic) Reset()          { l.tripped = false }

func (l *Logic) violated(sensed float64) bool {
	if l.greaterThan {
		return sensed > l.limit
	}
	return sensed < l.limit
}

// CheckForTrip votes on the sensed value for this converged step. It
// trips, and reports true, only when convergedStep equals the priority.
func (l *Logic) CheckForTrip(sensed float64, convergedStep int) (gunns.SolutionResult, bool) {
	if !l.Enabled() || l.tripped || convergedStep <= 0 || !l.violated(sensed) {
		return gunns.Confirm, false
	}
	switch {
	case convergedStep < l.priority:
		return gunns.Delay, false
	case convergedStep == l.priority:
		l.tripped = true
		return gunns.Reject, true
	default:
		return gunns.Confirm, false
	}
}
