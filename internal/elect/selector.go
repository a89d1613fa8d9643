package elect

import (
	"log/slog"
	"math"

	"github.com/san-kum/powerlink/internal/gunns"
)

// SelectorConfig configures power source selection.
type SelectorConfig struct {
	NumSources             int     `yaml:"num_sources"`
	UnderVoltageLimit      float64 `yaml:"under_voltage_limit"`
	PotentialOnTolerance   float64 `yaml:"potential_on_tolerance"`
	BackupEnabled          bool    `yaml:"backup_enabled"`
	BackupSourceIndex      int     `yaml:"backup_source_index"`
	BackupVoltageMin       float64 `yaml:"backup_voltage_min"`
	BackupVoltageMax       float64 `yaml:"backup_voltage_max"`
	BackupVoltageThreshold float64 `yaml:"backup_voltage_threshold"`
	MaxSwitchesPerSolution int     `yaml:"max_switches_per_solution"`
}

// HasBackup reports whether a backup source is designated.
func (c SelectorConfig) HasBackup() bool {
	return c.BackupEnabled
}

func (c SelectorConfig) validate(name string) error {
	switch {
	case c.NumSources <= 0:
		return gunns.InitError(name, "initialize", "number of sources %d must be positive", c.NumSources)
	case c.UnderVoltageLimit < 0:
		return gunns.InitError(name, "initialize", "under-voltage limit %v is negative", c.UnderVoltageLimit)
	case c.PotentialOnTolerance < 0:
		return gunns.InitError(name, "initialize", "potential-on tolerance %v is negative", c.PotentialOnTolerance)
	case c.MaxSwitchesPerSolution < 0:
		return gunns.InitError(name, "initialize", "max switches per solution %d is negative", c.MaxSwitchesPerSolution)
	case c.HasBackup() && (c.BackupSourceIndex < 0 || c.BackupSourceIndex >= c.NumSources):
		return gunns.InitError(name, "initialize", "backup source %d outside %d sources", c.BackupSourceIndex, c.NumSources)
	case c.HasBackup() && c.BackupVoltageMin > c.BackupVoltageMax:
		return gunns.InitError(name, "initialize", "backup voltage range [%v, %v] is empty", c.BackupVoltageMin, c.BackupVoltageMax)
	case c.HasBackup() && c.BackupVoltageThreshold < 0:
		return gunns.InitError(name, "initialize", "backup voltage threshold %v is negative", c.BackupVoltageThreshold)
	}
	return nil
}

// Channel is one power input.
type Channel struct {
	Voltage     float64
	Conductance float64
	Failed      bool
	Selected    bool
}

// Selector chooses the active power input. It remembers the active source
// across major steps for hysteresis and caps reselections per convergence
// cycle.
type Selector struct {
	cfg      SelectorConfig
	name     string
	channels []Channel
	active   int
	switches int
	capped   bool
	log      *slog.Logger
}

func NewSelector(name string, cfg SelectorConfig, logger *slog.Logger) (*Selector, error) {
	if err := cfg.validate(name); err != nil {
		return nil, err
	}
	return &Selector{
		cfg:      cfg,
		name:     name,
		channels: make([]Channel, cfg.NumSources),
		active:   gunns.InvalidSource,
		log:      gunns.LoggerOrDiscard(logger),
	}, nil
}

func (s *Selector) Channels() []Channel { return s.channels }
func (s *Selector) ActiveSource() int   { return s.active }

// Switches returns the reselections made in the current convergence cycle.
func (s *Selector) Switches() int { return s.switches }

// Capped reports whether the reselection cap held a selection this cycle.
func (s *Selector) Capped() bool { return s.capped }

func (s *Selector) SetVoltages(v []float64) {
	for i := range s.channels {
		if i < len(v) {
			s.channels[i].Voltage = v[i]
		}
	}
}

func (s *Selector) SetFailed(index int, failed bool) error {
	if index < 0 || index >= len(s.channels) {
		return &gunns.LinkError{Link: s.name, Op: "fault", Wrapped: gunns.ErrOutOfBounds}
	}
	s.channels[index].Failed = failed
	return nil
}

func (s *Selector) SetAllFailed(failed bool) {
	for i := range s.channels {
		s.channels[i].Failed = failed
	}
}

// BeginCycle starts a new convergence cycle.
func (s *Selector) BeginCycle() {
	s.switches = 0
	s.capped = false
}

// potentialValue is the voltage a channel competes with: the active
// channel at face value, every other channel less the tolerance.
func (s *Selector) potentialValue(index int, v, tolerance float64) float64 {
	if index == s.active {
		return v
	}
	return v - tolerance
}

// SelectWithoutBackup returns the valid channel with the greatest
// potential value, lowest index on ties, or InvalidSource. Mismatched
// voltages and failed slices select nothing.
func (s *Selector) SelectWithoutBackup(voltages []float64, failed []bool, underVoltageLimit, tolerance float64) int {
	return s.greatest(voltages, failed, underVoltageLimit, tolerance, func(int) bool { return true })
}

// SelectWithBackup keeps the current primary source while the backup is
// viable and within threshold of it; otherwise it picks the greatest
// potential among the valid primaries and the viable backup.
func (s *Selector) SelectWithBackup(voltages []float64, failed []bool, backupIndex int,
	backupVoltageMin, backupVoltageMax, backUpVoltageThreshold, tolerance float64) int {
	if len(failed) != len(voltages) {
		return gunns.InvalidSource
	}
	uv := s.cfg.UnderVoltageLimit
	valid := func(i int) bool {
		return i >= 0 && i < len(voltages) && !failed[i] && voltages[i] > uv
	}
	backupViable := valid(backupIndex) &&
		voltages[backupIndex] >= backupVoltageMin && voltages[backupIndex] <= backupVoltageMax

	if s.active != backupIndex && valid(s.active) && backupViable &&
		math.Abs(voltages[s.active]-voltages[backupIndex]) <= backUpVoltageThreshold {
		return s.active
	}
	return s.greatest(voltages, failed, uv, tolerance, func(i int) bool {
		return i != backupIndex || backupViable
	})
}

func (s *Selector) greatest(voltages []float64, failed []bool, uv, tolerance float64, candidate func(int) bool) int {
	best := gunns.InvalidSource
	if len(failed) != len(voltages) {
		return best
	}
	bestV := math.Inf(-1)
	for i, v := range voltages {
		if failed[i] || !(v > uv) || !candidate(i) {
			continue
		}
		if pv := s.potentialValue(i, v, tolerance); pv > bestV {
			best, bestV = i, pv
		}
	}
	return best
}

func (s *Selector) candidate() int {
	voltages := make([]float64, len(s.channels))
	failed := make([]bool, len(s.channels))
	for i, c := range s.channels {
		voltages[i], failed[i] = c.Voltage, c.Failed
	}
	if s.cfg.HasBackup() {
		return s.SelectWithBackup(voltages, failed, s.cfg.BackupSourceIndex,
			s.cfg.BackupVoltageMin, s.cfg.BackupVoltageMax, s.cfg.BackupVoltageThreshold,
			s.cfg.PotentialOnTolerance)
	}
	return s.SelectWithoutBackup(voltages, failed, s.cfg.UnderVoltageLimit, s.cfg.PotentialOnTolerance)
}

// Update reselects from the current channel voltages. Counted moves
// between two valid channels spend the cycle's reselection budget; once it
// is spent the previous selection persists. Losing the active channel, or
// every channel, is never held by the budget. It reports whether the
// selection changed.
func (s *Selector) Update(counted bool) bool {
	next := s.candidate()
	if next == s.active {
		return false
	}
	if counted && next != gunns.InvalidSource && s.valid(s.active) {
		if s.switches >= s.cfg.MaxSwitchesPerSolution {
			if !s.capped {
				s.log.Debug("source reselection capped",
					"link", s.name, "active", s.active, "candidate", next, "switches", s.switches)
			}
			s.capped = true
			return false
		}
		s.switches++
	}
	s.setActive(next)
	return true
}

// valid reports whether channel index is selectable at its current
// voltage.
func (s *Selector) valid(index int) bool {
	if index < 0 || index >= len(s.channels) {
		return false
	}
	c := s.channels[index]
	return !c.Failed && c.Voltage > s.cfg.UnderVoltageLimit
}

func (s *Selector) setActive(index int) {
	for i := range s.channels {
		s.channels[i].Selected = i == index
	}
	s.log.Debug("power source selected", "link", s.name, "from", s.active, "to", index)
	s.active = index
}
