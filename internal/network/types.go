package network

import (
	"errors"
	"fmt"
)

// ErrNotConverged marks a major step whose minor-step loop ran out of
// iterations before every link confirmed the solution.
var ErrNotConverged = errors.New("network did not converge")

type Config struct {
	Dt                   float64 `yaml:"dt"`
	Duration             float64 `yaml:"duration"`
	MaxMinorSteps        int     `yaml:"max_minor_steps"`
	ConvergenceTolerance float64 `yaml:"convergence_tolerance"`
}

// Snapshot is the network state after one major step.
type Snapshot struct {
	Step       int
	Time       float64
	Potentials []float64
	MinorSteps int
	Converged  bool
	Tripped    []string
}

type Metric interface {
	Name() string
	Observe(s Snapshot)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Snapshot)
}

type TripEvent struct {
	Time float64 `json:"time"`
	Link string  `json:"link"`
}

type Result struct {
	Nodes      []string
	Times      []float64
	Potentials [][]float64
	MinorSteps []int
	Trips      []TripEvent
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

type StepError struct {
	Time    float64
	Step    int
	Message string
	Err     error
}

func (e StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e StepError) Unwrap() error { return e.Err }
