package network

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/san-kum/powerlink/internal/gunns"
)

// tripper is implemented by links that carry a protective switch.
type tripper interface {
	IsTripped() bool
}

// Network drives a set of links through major steps. Each major step
// iterates minor steps, solving the assembled admittance system and
// polling every link until the solution converges and all links confirm.
type Network struct {
	nodes     *gunns.NodeList
	links     []gunns.Link
	byName    map[string]gunns.Link
	metrics   []Metric
	observers []Observer
	log       *slog.Logger

	step int
	time float64
}

func New(nodes *gunns.NodeList, logger *slog.Logger) *Network {
	return &Network{
		nodes:     nodes,
		links:     make([]gunns.Link, 0),
		byName:    make(map[string]gunns.Link),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       gunns.LoggerOrDiscard(logger),
	}
}

func (n *Network) AddMetric(m Metric)     { n.metrics = append(n.metrics, m) }
func (n *Network) AddObserver(o Observer) { n.observers = append(n.observers, o) }

func (n *Network) Nodes() *gunns.NodeList { return n.nodes }
func (n *Network) Links() []gunns.Link    { return n.links }
func (n *Network) Time() float64          { return n.time }

// Link returns the link registered under name, or nil.
func (n *Network) Link(name string) gunns.Link { return n.byName[name] }

// AddLink registers a built link. Names must be unique and every port
// must address a node of this network.
func (n *Network) AddLink(l gunns.Link) error {
	name := l.Name()
	if _, dup := n.byName[name]; dup {
		return gunns.InitError(name, "add link", "duplicate link name")
	}
	for i, p := range l.Ports() {
		if p < 0 || p >= n.nodes.Len() {
			return gunns.InitError(name, "add link", "port %d maps to invalid node %d", i, p)
		}
	}
	n.links = append(n.links, l)
	n.byName[name] = l
	return nil
}

// ApplyFault routes a fault to the named link.
func (n *Network) ApplyFault(link string, f gunns.Fault) error {
	l, ok := n.byName[link]
	if !ok {
		return &gunns.LinkError{Link: link, Op: "fault " + f.Kind.String(), Wrapped: gunns.ErrOutOfBounds}
	}
	return l.ApplyFault(f)
}

func (n *Network) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Nodes:      n.nodeNames(),
		Times:      make([]float64, 0, steps+1),
		Potentials: make([][]float64, 0, steps+1),
		MinorSteps: make([]int, 0, steps),
		Trips:      make([]TripEvent, 0),
		Metrics:    make(map[string]float64),
		Errors:     make([]error, 0),
	}

	for _, m := range n.metrics {
		m.Reset()
	}

	result.Times = append(result.Times, n.time)
	result.Potentials = append(result.Potentials, n.nodes.Potentials())

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		snap, err := n.MajorStep(cfg)
		if err != nil {
			result.Errors = append(result.Errors, err)
			if !errors.Is(err, ErrNotConverged) {
				break
			}
		}

		for _, m := range n.metrics {
			m.Observe(snap)
		}
		for _, obs := range n.observers {
			obs.OnStep(snap)
		}

		result.StepsTaken++
		result.Times = append(result.Times, snap.Time)
		result.Potentials = append(result.Potentials, snap.Potentials)
		result.MinorSteps = append(result.MinorSteps, snap.MinorSteps)
		for _, name := range snap.Tripped {
			result.Trips = append(result.Trips, TripEvent{Time: snap.Time, Link: name})
		}
	}

	for _, m := range n.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

// MajorStep advances the network by cfg.Dt. A step that exhausts its
// minor steps still computes flows and returns its snapshot alongside an
// ErrNotConverged StepError.
func (n *Network) MajorStep(cfg Config) (Snapshot, error) {
	dt := cfg.Dt
	before := n.trippedLinks()

	for _, l := range n.links {
		l.Step(dt)
	}

	convergedStep := 0
	converged := false
	minor := 0
	for minor < cfg.MaxMinorSteps && !converged {
		minor++
		if minor > 1 {
			for _, l := range n.links {
				l.MinorStep(dt, minor)
			}
		}

		potentials, err := solve(n.nodes, n.links)
		if err != nil {
			n.step++
			return n.snapshot(minor, false, nil), StepError{
				Time: n.time, Step: n.step, Message: err.Error(), Err: err,
			}
		}

		delta := n.writePotentials(potentials)
		if minor > 1 && delta < cfg.ConvergenceTolerance {
			convergedStep++
		} else {
			convergedStep = 0
		}

		vote := gunns.Confirm
		for _, l := range n.links {
			vote = gunns.Combine(vote, l.ConfirmSolutionAcceptable(convergedStep, minor))
		}
		if vote == gunns.Reject {
			convergedStep = 0
		}
		converged = convergedStep > 0 && vote == gunns.Confirm
	}

	for _, l := range n.links {
		l.ComputeFlows(dt)
	}

	n.step++
	n.time += dt

	var tripped []string
	for _, name := range n.trippedLinks() {
		if !slices.Contains(before, name) {
			tripped = append(tripped, name)
			n.log.Info("link tripped", "link", name, "time", n.time)
		}
	}

	snap := n.snapshot(minor, converged, tripped)
	if !converged {
		n.log.Warn("major step did not converge", "step", n.step, "minor_steps", minor)
		return snap, StepError{
			Time:    n.time,
			Step:    n.step,
			Message: fmt.Sprintf("no confirmed solution after %d minor steps", minor),
			Err:     ErrNotConverged,
		}
	}
	n.log.Debug("major step converged", "step", n.step, "minor_steps", minor)
	return snap, nil
}

// writePotentials stores the solution and returns the largest change.
func (n *Network) writePotentials(potentials []float64) float64 {
	delta := 0.0
	for i, v := range potentials {
		delta = math.Max(delta, math.Abs(v-n.nodes.Potential(i)))
		n.nodes.SetPotential(i, v)
	}
	return delta
}

func (n *Network) snapshot(minor int, converged bool, tripped []string) Snapshot {
	return Snapshot{
		Step:       n.step,
		Time:       n.time,
		Potentials: n.nodes.Potentials(),
		MinorSteps: minor,
		Converged:  converged,
		Tripped:    tripped,
	}
}

func (n *Network) trippedLinks() []string {
	var out []string
	for _, l := range n.links {
		if t, ok := l.(tripper); ok && t.IsTripped() {
			out = append(out, l.Name())
		}
	}
	return out
}

func (n *Network) nodeNames() []string {
	names := make([]string, n.nodes.Len()-1)
	for i := range names {
		names[i] = n.nodes.Name(i)
	}
	return names
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.MaxMinorSteps < 2 {
		return fmt.Errorf("max minor steps must be at least 2, got %d", cfg.MaxMinorSteps)
	}
	if cfg.ConvergenceTolerance <= 0 {
		return fmt.Errorf("convergence tolerance must be positive, got %g", cfg.ConvergenceTolerance)
	}
	return nil
}
