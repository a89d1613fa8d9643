// Package gunns defines the contract between network links and the
// nonlinear network solver that drives them.
//
// The package defines the primitives every link shares:
//
//   - [Link]: capability interface invoked by the solver each major and minor step
//   - [SolutionResult]: the convergence vote (CONFIRM, REJECT, DELAY)
//   - [NodeList]: the node potential vector owned by the solver
//   - [Admittance]: a link's contribution to the global admittance matrix
//   - [AdmittanceBuilder]: tolerance-gated writer for that contribution
//   - [Fault]: the fault-injection command routed to links
//
// # Solver Handshake
//
// Per major step the solver calls Step on every link, then repeats
// MinorStep, solve, ConfirmSolutionAcceptable until every link confirms:
//
//	for _, l := range links {
//	    l.Step(dt)
//	}
//	// solve ...
//	switch l.ConfirmSolutionAcceptable(convergedStep, minorStep) {
//	case gunns.Reject:
//	    // re-solve with the link's new topology
//	}
//
// # Thread Safety
//
// Links are NOT thread-safe. The solver invokes links strictly
// sequentially within a minor step.
package gunns
