package elect

import (
	"log/slog"

	"github.com/san-kum/powerlink/internal/gunns"
	"github.com/san-kum/powerlink/internal/loads"
)

// DefaultLoadsOverrideConductance approximates an ideal voltage source at
// the switch output while the loads override is active.
const DefaultLoadsOverrideConductance = 1.0e8

// UserLoadSwitchConfig configures a switch feeding a set of user loads.
// Port 0 is the supply side, port 1 the load side.
type UserLoadSwitchConfig struct {
	Name                     string
	Switch                   SwitchConfig
	InitiallyClosed          bool
	ConductanceTolerance     float64
	LoadsOverrideConductance float64
	Logger                   *slog.Logger
}

type UserLoadSwitchBuilder struct {
	cfg   UserLoadSwitchConfig
	loads *loads.Aggregator
}

func NewUserLoadSwitchBuilder(cfg UserLoadSwitchConfig) *UserLoadSwitchBuilder {
	return &UserLoadSwitchBuilder{cfg: cfg, loads: loads.NewAggregator(cfg.Name)}
}

func (b *UserLoadSwitchBuilder) AddUserLoad(l loads.UserLoad) error { return b.loads.Add(l) }

func (b *UserLoadSwitchBuilder) Build(nodes *gunns.NodeList, ports []int) (*UserLoadSwitch, error) {
	name := b.cfg.Name
	if b.loads.Frozen() {
		return nil, gunns.InitError(name, "initialize", "already built")
	}
	if err := b.cfg.Switch.validate(name); err != nil {
		return nil, err
	}
	if b.cfg.ConductanceTolerance < 0 {
		return nil, gunns.InitError(name, "initialize", "conductance tolerance %v is negative", b.cfg.ConductanceTolerance)
	}
	if b.cfg.LoadsOverrideConductance < 0 {
		return nil, gunns.InitError(name, "initialize", "loads override conductance %v is negative", b.cfg.LoadsOverrideConductance)
	}
	if b.loads.Len() == 0 {
		return nil, gunns.InitError(name, "initialize", "number of user loads must be positive")
	}
	if err := nodes.ValidatePorts(name, ports, 2); err != nil {
		return nil, err
	}
	if ports[0] == ports[1] {
		return nil, gunns.InitError(name, "initialize", "input and output ports share node %d", ports[0])
	}
	if nodes.IsGround(ports[1]) {
		return nil, gunns.InitError(name, "initialize", "output port cannot map to ground")
	}
	b.loads.Freeze()

	overrideG := b.cfg.LoadsOverrideConductance
	if overrideG == 0 {
		overrideG = DefaultLoadsOverrideConductance
	}
	s := &UserLoadSwitch{
		cfg:       b.cfg,
		nodes:     nodes,
		ports:     append([]int(nil), ports...),
		sw:        newSwitch(b.cfg.Switch, b.cfg.InitiallyClosed),
		loads:     b.loads,
		builder:   gunns.NewAdmittanceBuilder(2, b.cfg.ConductanceTolerance),
		overrideG: overrideG,
		log:       gunns.LoggerOrDiscard(b.cfg.Logger),
	}
	s.update()
	return s, nil
}

// UserLoadSwitch is a protective switch whose output feeds user loads.
type UserLoadSwitch struct {
	cfg     UserLoadSwitchConfig
	nodes   *gunns.NodeList
	ports   []int
	sw      *Switch
	loads   *loads.Aggregator
	builder *gunns.AdmittanceBuilder
	log     *slog.Logger

	overrideActive  bool
	overrideVoltage float64
	overrideG       float64

	current       float64
	switchPower   float64
	loadPower     float64
	outputVoltage float64
}

var _ gunns.Link = (*UserLoadSwitch)(nil)

func (s *UserLoadSwitch) Name() string                  { return s.cfg.Name }
func (s *UserLoadSwitch) Ports() []int                  { return s.ports }
func (s *UserLoadSwitch) Admittance() *gunns.Admittance { return s.builder.Admittance() }
func (s *UserLoadSwitch) IsNonLinear() bool             { return true }
func (s *UserLoadSwitch) IsConductanceChanged() bool    { return s.builder.IsConductanceChanged() }
func (s *UserLoadSwitch) Switch() *Switch               { return s.sw }
func (s *UserLoadSwitch) UserLoads() *loads.Aggregator  { return s.loads }
func (s *UserLoadSwitch) Current() float64              { return s.current }
func (s *UserLoadSwitch) PowerDissipated() float64      { return s.switchPower }
func (s *UserLoadSwitch) LoadPower() float64            { return s.loadPower }
func (s *UserLoadSwitch) OutputVoltage() float64        { return s.outputVoltage }
func (s *UserLoadSwitch) IsLoadsOverrideActive() bool   { return s.overrideActive }
func (s *UserLoadSwitch) IsTripped() bool               { return s.sw.IsTripped() }

// SetLoadsOverride forces the load-side voltage to voltage while active.
func (s *UserLoadSwitch) SetLoadsOverride(active bool, voltage float64) {
	s.overrideActive, s.overrideVoltage = active, voltage
}

func (s *UserLoadSwitch) Step(dt float64) {
	s.sw.Step(dt)
	s.loads.StepDutyCycles(dt)
	s.update()
}

func (s *UserLoadSwitch) MinorStep(dt float64, minorStep int) {
	s.update()
}

func (s *UserLoadSwitch) loadVoltage() float64 {
	if s.overrideActive {
		return s.overrideVoltage
	}
	return s.nodes.Potential(s.ports[1])
}

func (s *UserLoadSwitch) update() {
	s.loads.Update(s.loadVoltage())
	s.builder.Reset()
	if s.overrideActive {
		s.builder.StampShunt(1, s.overrideG)
		s.builder.StampSource(1, s.overrideVoltage*s.overrideG)
	} else {
		s.builder.StampSeries(0, 1, s.sw.Conductance())
		s.builder.StampShunt(1, s.loads.Conductance())
	}
	s.builder.Commit()
}

func (s *UserLoadSwitch) computeFlux() {
	vIn := s.nodes.Potential(s.ports[0])
	vOut := s.nodes.Potential(s.ports[1])
	s.outputVoltage = vOut
	s.current = 0
	if !s.overrideActive {
		s.current = s.sw.Conductance() * (vIn - vOut)
	}
	s.switchPower = s.current * s.current * s.sw.Resistance()
	if !s.sw.IsClosed() {
		s.switchPower = 0
	}
}

// ConfirmSolutionAcceptable checks downstream fuses on the first converged
// step, then lets the switch trips vote in priority order.
func (s *UserLoadSwitch) ConfirmSolutionAcceptable(convergedStep, absoluteStep int) gunns.SolutionResult {
	if convergedStep <= 0 {
		return gunns.Delay
	}
	if convergedStep == 1 {
		if blown := s.loads.CheckFuses(); len(blown) > 0 {
			s.log.Info("user load fuse blown", "link", s.cfg.Name, "loads", blown)
			s.update()
			return gunns.Reject
		}
	}
	s.computeFlux()
	r := s.sw.UpdateTrips(s.current, s.nodes.Potential(s.ports[0]), convergedStep)
	if s.sw.HasJustTripped() {
		s.log.Info("switch tripped", "link", s.cfg.Name, "causes", s.sw.TripCauses(),
			"current", s.current, "converged_step", convergedStep)
		s.update()
	}
	return r
}

func (s *UserLoadSwitch) ComputeFlows(dt float64) {
	s.computeFlux()
	s.loads.Update(s.loadVoltage())
	s.loadPower = s.loads.Power()
}

func (s *UserLoadSwitch) ApplyFault(f gunns.Fault) error {
	if f.Kind == gunns.LoadsOverride {
		s.SetLoadsOverride(f.Active, f.Value)
		return nil
	}
	return s.sw.applyFault(s.cfg.Name, f)
}
