package config

import (
	"sort"

	"github.com/san-kum/powerlink/internal/elect"
	"github.com/san-kum/powerlink/internal/trip"
)

func solver(duration float64) SolverConfig {
	s := DefaultSolver()
	s.Duration = duration
	return s
}

func feed(name, node string, v float64) SourceConfig {
	return SourceConfig{Name: name, Node: node, Potential: v, Conductance: DefaultSourceConductance}
}

func resistive(name string, r float64) LoadConfig {
	return LoadConfig{Name: name, Kind: LoadResistive, Resistance: r}
}

func constantPower(name string, p float64) LoadConfig {
	return LoadConfig{Name: name, Kind: LoadConstantPower, Power: p, UnderVoltageLimit: 90}
}

func rpc(name, in, out string, limit float64, priority int, loads ...LoadConfig) SwitchConfig {
	return SwitchConfig{
		Name: name, Input: in, Output: out, Resistance: 0.01, InitiallyClosed: true,
		Trips: trip.Limits{PosOvercurrent: limit, NegOvercurrent: limit, UnderVoltage: 80, OverVoltage: 140, Priority: priority},
		Loads: loads,
	}
}

func ips(name string, inputs []string, sel elect.SelectorConfig, loads ...LoadConfig) SupplyConfig {
	return SupplyConfig{
		Name: name, Inputs: inputs, Selector: sel,
		UnselectedInputConductance: DefaultUnselectedLeakage, PowerConsumedOn: 50, ThermalFraction: 0.2,
		Loads: loads,
	}
}

var dualInput = elect.SelectorConfig{
	UnderVoltageLimit: 100, PotentialOnTolerance: 0.5, MaxSwitchesPerSolution: 3,
}

var withBackup = elect.SelectorConfig{
	UnderVoltageLimit: 100, PotentialOnTolerance: 0.5, MaxSwitchesPerSolution: 3,
	BackupEnabled: true, BackupSourceIndex: 2,
	BackupVoltageMin: 105, BackupVoltageMax: 130, BackupVoltageThreshold: 4,
}

var Presets = map[string]map[string]*Config{
	"bus": {
		"nominal": DefaultConfig(),
		"fuse": {
			Name: "bus/fuse", Solver: solver(5),
			Description: "a heater draws past its fuse rating once its duty cycle turns on",
			Nodes:       []string{"main"},
			Sources:     []SourceConfig{feed("feed", "main", 120)},
			Buses: []BusConfig{{Name: "main_bus", Node: "main", Loads: []LoadConfig{
				resistive("lamp", 60),
				{Name: "heater", Kind: LoadResistive, Resistance: 8, FuseCurrentLimit: 12, DutyFraction: 0.5, DutyPeriod: 2},
			}}},
		},
	},
	"rpc": {
		"nominal": {
			Name: "rpc/nominal", Solver: solver(10),
			Nodes:   []string{"main", "out_1", "out_2"},
			Sources: []SourceConfig{feed("feed", "main", 120)},
			Switches: []SwitchConfig{
				rpc("rpc_1", "main", "out_1", 10, 1, resistive("pump", 24)),
				rpc("rpc_2", "main", "out_2", 10, 2, constantPower("avionics", 300)),
			},
		},
		"overload": {
			Name: "rpc/overload", Solver: solver(5),
			Description: "both current sensors read high from t=1; priority 1 trips before priority 2",
			Nodes:       []string{"main", "out_1", "out_2"},
			Sources:     []SourceConfig{feed("feed", "main", 120)},
			Switches: []SwitchConfig{
				rpc("rpc_1", "main", "out_1", 10, 1, resistive("pump", 24)),
				rpc("rpc_2", "main", "out_2", 10, 2, resistive("fan", 24)),
			},
			Faults: []FaultConfig{
				{At: 1, Link: "rpc_1", Kind: "current_sensor_bias", Value: 20},
				{At: 1, Link: "rpc_2", Kind: "current_sensor_bias", Value: 20},
				{At: 3, Link: "rpc_1", Kind: "current_sensor_bias", Clear: true},
				{At: 3, Link: "rpc_2", Kind: "current_sensor_bias", Clear: true},
			},
		},
		"override": {
			Name: "rpc/override", Solver: solver(5),
			Description: "the load side is forced to 122 V between t=1 and t=3",
			Nodes:       []string{"main", "out_1"},
			Sources:     []SourceConfig{feed("feed", "main", 120)},
			Switches:    []SwitchConfig{rpc("rpc_1", "main", "out_1", 10, 1, resistive("pump", 24))},
			Faults: []FaultConfig{
				{At: 1, Link: "rpc_1", Kind: "loads_override", Value: 122},
				{At: 3, Link: "rpc_1", Kind: "loads_override", Clear: true},
			},
		},
	},
	"ips": {
		"failover": {
			Name: "ips/failover", Solver: solver(6),
			Description: "input A fails at t=2 and the supply moves to input B",
			Nodes:       []string{"feed_a", "feed_b"},
			Sources:     []SourceConfig{feed("source_a", "feed_a", 120), feed("source_b", "feed_b", 118)},
			Supplies:    []SupplyConfig{ips("ips", []string{"feed_a", "feed_b"}, dualInput, constantPower("heater", 40))},
			Faults:      []FaultConfig{{At: 2, Link: "ips", Kind: "power_input_fail", Target: 0}},
		},
		"backup": {
			Name: "ips/backup", Solver: solver(6),
			Description: "input A is lost at t=2 and the backup carries the supply until A returns at t=4",
			Nodes:       []string{"feed_a", "feed_b", "feed_c"},
			Sources: []SourceConfig{
				feed("source_a", "feed_a", 120), feed("source_b", "feed_b", 116), feed("source_c", "feed_c", 118),
			},
			Supplies: []SupplyConfig{ips("ips", []string{"feed_a", "feed_b", "feed_c"}, withBackup)},
			Faults: []FaultConfig{
				{At: 2, Link: "source_a", Kind: "source_fail"},
				{At: 4, Link: "source_a", Kind: "source_fail", Clear: true},
			},
		},
		"blackout": {
			Name: "ips/blackout", Solver: solver(5),
			Description: "every input fails between t=1 and t=3",
			Nodes:       []string{"feed_a", "feed_b"},
			Sources:     []SourceConfig{feed("source_a", "feed_a", 120), feed("source_b", "feed_b", 120)},
			Supplies:    []SupplyConfig{ips("ips", []string{"feed_a", "feed_b"}, dualInput)},
			Faults: []FaultConfig{
				{At: 1, Link: "ips", Kind: "all_power_inputs_fail"},
				{At: 3, Link: "ips", Kind: "all_power_inputs_fail", Clear: true},
			},
		},
	},
}

func GetPreset(family, preset string) *Config {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	cfg, ok := familyPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(family string) []string {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(familyPresets))
	for name := range familyPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListFamilies() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
