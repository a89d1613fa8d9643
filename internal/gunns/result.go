package gunns

// SolutionResult is a link's vote on the current network solution.
type SolutionResult int

const (
	// Confirm accepts the solution.
	Confirm SolutionResult = iota
	// Reject forces the solver to redo the minor step with the link's new state.
	Reject
	// Delay asks the solver to keep iterating before the link decides.
	Delay
)

func (r SolutionResult) String() string {
	switch r {
	case Confirm:
		return "CONFIRM"
	case Reject:
		return "REJECT"
	case Delay:
		return "DELAY"
	default:
		return "UNKNOWN"
	}
}

// Combine folds two votes: any Reject wins, then any Delay.
func Combine(a, b SolutionResult) SolutionResult {
	if a == Reject || b == Reject {
		return Reject
	}
	if a == Delay || b == Delay {
		return Delay
	}
	return Confirm
}
