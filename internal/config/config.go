package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/powerlink/internal/elect"
	"github.com/san-kum/powerlink/internal/network"
	"github.com/san-kum/powerlink/internal/trip"
)

const (
	DefaultDt                   = 0.1
	DefaultDuration             = 10.0
	DefaultMaxMinorSteps        = 20
	DefaultConvergenceTolerance = 1e-6
	DefaultSourceConductance    = 100.0
	DefaultUnselectedLeakage    = 1e-8

	LoadResistive     = "resistive"
	LoadConstantPower = "constant_power"
)

// Config describes a network: its nodes, the links between them, the
// loads those links feed and a fault schedule.
type Config struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Solver      SolverConfig   `yaml:"solver"`
	Nodes       []string       `yaml:"nodes"`
	Sources     []SourceConfig `yaml:"sources,omitempty"`
	Supplies    []SupplyConfig `yaml:"supplies,omitempty"`
	Switches    []SwitchConfig `yaml:"switches,omitempty"`
	Buses       []BusConfig    `yaml:"buses,omitempty"`
	Faults      []FaultConfig  `yaml:"faults,omitempty"`
}

type SolverConfig struct {
	Dt                   float64 `yaml:"dt"`
	Duration             float64 `yaml:"duration"`
	MaxMinorSteps        int     `yaml:"max_minor_steps"`
	ConvergenceTolerance float64 `yaml:"convergence_tolerance"`
}

func (s SolverConfig) Network() network.Config {
	return network.Config{
		Dt:                   s.Dt,
		Duration:             s.Duration,
		MaxMinorSteps:        s.MaxMinorSteps,
		ConvergenceTolerance: s.ConvergenceTolerance,
	}
}

// SourceConfig is an ideal potential behind a conductance, from ground to Node.
type SourceConfig struct {
	Name        string  `yaml:"name"`
	Node        string  `yaml:"node"`
	Potential   float64 `yaml:"potential"`
	Conductance float64 `yaml:"conductance,omitempty"`
}

type LoadConfig struct {
	Name              string  `yaml:"name"`
	Kind              string  `yaml:"kind"`
	Resistance        float64 `yaml:"resistance,omitempty"`
	Power             float64 `yaml:"power,omitempty"`
	UnderVoltageLimit float64 `yaml:"under_voltage_limit,omitempty"`
	FuseCurrentLimit  float64 `yaml:"fuse_current_limit,omitempty"`
	DutyFraction      float64 `yaml:"duty_fraction,omitempty"`
	DutyPeriod        float64 `yaml:"duty_period,omitempty"`
}

// SupplyConfig is an internal power supply drawing from one of Inputs.
// The selector's source count is taken from Inputs.
type SupplyConfig struct {
	Name                       string               `yaml:"name"`
	Inputs                     []string             `yaml:"inputs"`
	Selector                   elect.SelectorConfig `yaml:"selector"`
	UnselectedInputConductance float64              `yaml:"unselected_input_conductance,omitempty"`
	ConductanceTolerance       float64              `yaml:"conductance_tolerance,omitempty"`
	PowerConsumedOn            float64              `yaml:"power_consumed_on"`
	ThermalFraction            float64              `yaml:"thermal_fraction,omitempty"`
	Loads                      []LoadConfig         `yaml:"loads,omitempty"`
}

// SwitchConfig is a user-load switch from Input to Output.
type SwitchConfig struct {
	Name                 string       `yaml:"name"`
	Input                string       `yaml:"input"`
	Output               string       `yaml:"output"`
	Resistance           float64      `yaml:"resistance"`
	Trips                trip.Limits  `yaml:"trips"`
	InitiallyClosed      bool         `yaml:"initially_closed"`
	ConductanceTolerance float64      `yaml:"conductance_tolerance,omitempty"`
	Loads                []LoadConfig `yaml:"loads"`
}

type BusConfig struct {
	Name                 string       `yaml:"name"`
	Node                 string       `yaml:"node"`
	ConductanceTolerance float64      `yaml:"conductance_tolerance,omitempty"`
	Loads                []LoadConfig `yaml:"loads"`
}

// FaultConfig schedules a fault command on a link. Faults apply as
// active unless Clear is set.
type FaultConfig struct {
	At     float64 `yaml:"at"`
	Link   string  `yaml:"link"`
	Kind   string  `yaml:"kind"`
	Target int     `yaml:"target,omitempty"`
	Value  float64 `yaml:"value,omitempty"`
	Clear  bool    `yaml:"clear,omitempty"`
}

func DefaultSolver() SolverConfig {
	return SolverConfig{
		Dt:                   DefaultDt,
		Duration:             DefaultDuration,
		MaxMinorSteps:        DefaultMaxMinorSteps,
		ConvergenceTolerance: DefaultConvergenceTolerance,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Name:   "bus/nominal",
		Solver: DefaultSolver(),
		Nodes:  []string{"main"},
		Sources: []SourceConfig{
			{Name: "feed", Node: "main", Potential: 120, Conductance: DefaultSourceConductance},
		},
		Buses: []BusConfig{
			{Name: "main_bus", Node: "main", Loads: []LoadConfig{
				{Name: "lamp", Kind: LoadResistive, Resistance: 60},
			}},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{Solver: DefaultSolver()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LinkNames returns every link name in build order.
func (c *Config) LinkNames() []string {
	var names []string
	for _, s := range c.Sources {
		names = append(names, s.Name)
	}
	for _, s := range c.Supplies {
		names = append(names, s.Name)
	}
	for _, s := range c.Switches {
		names = append(names, s.Name)
	}
	for _, b := range c.Buses {
		names = append(names, b.Name)
	}
	return names
}
