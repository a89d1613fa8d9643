package gunns

import "log/slog"

// InvalidSource marks the absence of a selected power source.
const InvalidSource = -1

// Link is the capability every network component exposes to the solver.
type Link interface {
	Name() string
	Ports() []int
	Step(dt float64)
	MinorStep(dt float64, minorStep int)
	ComputeFlows(dt float64)
	ConfirmSolutionAcceptable(convergedStep, absoluteStep int) SolutionResult
	Admittance() *Admittance
	IsNonLinear() bool
	ApplyFault(f Fault) error
}

type FaultKind int

const (
	PowerInputFail FaultKind = iota
	AllPowerInputsFail
	BiasPowerConsumed
	SwitchFailOpen
	SwitchFailClosed
	CurrentSensorBias
	CurrentSensorDrift
	VoltageSensorBias
	VoltageSensorDrift
	LoadsOverride
	SourceFail
)

var faultNames = map[FaultKind]string{
	PowerInputFail:     "power_input_fail",
	AllPowerInputsFail: "all_power_inputs_fail",
	BiasPowerConsumed:  "bias_power_consumed",
	SwitchFailOpen:     "switch_fail_open",
	SwitchFailClosed:   "switch_fail_closed",
	CurrentSensorBias:  "current_sensor_bias",
	CurrentSensorDrift: "current_sensor_drift",
	VoltageSensorBias:  "voltage_sensor_bias",
	VoltageSensorDrift: "voltage_sensor_drift",
	LoadsOverride:      "loads_override",
	SourceFail:         "source_fail",
}

func (k FaultKind) String() string {
	if s, ok := faultNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseFaultKind maps a fault name back to its kind.
func ParseFaultKind(name string) (FaultKind, bool) {
	for k, s := range faultNames {
		if s == name {
			return k, true
		}
	}
	return 0, false
}

// Fault is a fault-injection command. Target selects a channel where the
// kind is per-channel (power inputs); Value carries biases, drift rates
// and override voltages.
type Fault struct {
	Kind   FaultKind
	Target int
	Value  float64
	Active bool
}

var discard = slog.New(slog.DiscardHandler)

// LoggerOrDiscard returns l, or a logger that drops everything when l is nil.
func LoggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return discard
	}
	return l
}
