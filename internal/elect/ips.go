package elect

import (
	"log/slog"
	"math"

	"github.com/san-kum/powerlink/internal/gunns"
	"github.com/san-kum/powerlink/internal/loads"
)

// IpsConfig configures an internal power supply. The supply has one port
// per power input, each a conductance to ground; the selected input draws
// the supply's total power as a constant-power load.
type IpsConfig struct {
	Name                       string
	Selector                   SelectorConfig
	UnselectedInputConductance float64
	ConductanceTolerance       float64
	PowerConsumedOn            float64
	ThermalFraction            float64
	Logger                     *slog.Logger
}

func (c IpsConfig) validate() error {
	if err := c.Selector.validate(c.Name); err != nil {
		return err
	}
	switch {
	case c.UnselectedInputConductance <= 0:
		return gunns.InitError(c.Name, "initialize", "unselected input conductance %v must be positive", c.UnselectedInputConductance)
	case c.ConductanceTolerance < 0:
		return gunns.InitError(c.Name, "initialize", "conductance tolerance %v is negative", c.ConductanceTolerance)
	case c.PowerConsumedOn < 0:
		return gunns.InitError(c.Name, "initialize", "power consumed %v is negative", c.PowerConsumedOn)
	case c.ThermalFraction < 0 || c.ThermalFraction > 1:
		return gunns.InitError(c.Name, "initialize", "thermal fraction %v outside [0,1]", c.ThermalFraction)
	}
	return nil
}

// IpsBuilder is the configuration phase of an Ips.
type IpsBuilder struct {
	cfg   IpsConfig
	loads *loads.Aggregator
}

func NewIpsBuilder(cfg IpsConfig) *IpsBuilder {
	return &IpsBuilder{cfg: cfg, loads: loads.NewAggregator(cfg.Name)}
}

// AddUserLoad attaches an auxiliary load powered by the supply.
func (b *IpsBuilder) AddUserLoad(l loads.UserLoad) error { return b.loads.Add(l) }

// Build validates the configuration and returns the runtime supply. The
// builder accepts no more loads afterwards.
func (b *IpsBuilder) Build(nodes *gunns.NodeList, ports []int) (*Ips, error) {
	if b.loads.Frozen() {
		return nil, gunns.InitError(b.cfg.Name, "initialize", "already built")
	}
	if err := b.cfg.validate(); err != nil {
		return nil, err
	}
	if err := nodes.ValidatePorts(b.cfg.Name, ports, b.cfg.Selector.NumSources); err != nil {
		return nil, err
	}
	if err := distinctNonGround(b.cfg.Name, nodes, ports); err != nil {
		return nil, err
	}
	sel, err := NewSelector(b.cfg.Name, b.cfg.Selector, b.cfg.Logger)
	if err != nil {
		return nil, err
	}
	b.loads.Freeze()

	ips := &Ips{
		cfg:      b.cfg,
		nodes:    nodes,
		ports:    append([]int(nil), ports...),
		selector: sel,
		loads:    b.loads,
		builder:  gunns.NewAdmittanceBuilder(len(ports), b.cfg.ConductanceTolerance),
		currents: make([]float64, len(ports)),
		log:      gunns.LoggerOrDiscard(b.cfg.Logger),
	}
	ips.update(false)
	return ips, nil
}

// Ips is an internal power supply fed by redundant inputs.
type Ips struct {
	cfg      IpsConfig
	nodes    *gunns.NodeList
	ports    []int
	selector *Selector
	loads    *loads.Aggregator
	builder  *gunns.AdmittanceBuilder
	log      *slog.Logger

	biasActive bool
	biasPower  float64

	supplyVoltage  float64
	totalPower     float64
	activeG        float64
	powerValid     bool
	currents       []float64
	heatDissipated float64
	powerDrawn     float64
}

var _ gunns.Link = (*Ips)(nil)

func (i *Ips) Name() string                  { return i.cfg.Name }
func (i *Ips) Ports() []int                  { return i.ports }
func (i *Ips) Admittance() *gunns.Admittance { return i.builder.Admittance() }
func (i *Ips) IsNonLinear() bool             { return true }
func (i *Ips) IsConductanceChanged() bool    { return i.builder.IsConductanceChanged() }
func (i *Ips) Selector() *Selector           { return i.selector }
func (i *Ips) ActiveSource() int             { return i.selector.ActiveSource() }
func (i *Ips) IsPowerSupplyOn() bool         { return i.powerValid }
func (i *Ips) TotalPowerLoad() float64       { return i.totalPower }
func (i *Ips) ActiveConductance() float64    { return i.activeG }
func (i *Ips) SupplyVoltage() float64        { return i.supplyVoltage }
func (i *Ips) HeatDissipated() float64       { return i.heatDissipated }
func (i *Ips) PowerDrawn() float64           { return i.powerDrawn }
func (i *Ips) InputCurrent(port int) float64 { return i.currents[port] }
func (i *Ips) UserLoads() *loads.Aggregator  { return i.loads }

// OutputPower returns the configured power setpoint, not the computed
// total load.
// TODO: decide with the power-subsystem owners whether this should report TotalPowerLoad.
func (i *Ips) OutputPower() float64 { return i.cfg.PowerConsumedOn }

func (i *Ips) InputVoltages() []float64 {
	v := make([]float64, len(i.ports))
	for k, p := range i.ports {
		v[k] = i.nodes.Potential(p)
	}
	return v
}

func (i *Ips) Step(dt float64) {
	i.selector.BeginCycle()
	i.loads.StepDutyCycles(dt)
	i.update(false)
}

// MinorStep repeats the Step update without advancing load duty cycles.
func (i *Ips) MinorStep(dt float64, minorStep int) {
	i.update(true)
}

func (i *Ips) update(counted bool) {
	i.selector.SetVoltages(i.InputVoltages())
	i.selector.Update(counted)
	i.updatePower()
	i.builder.Reset()
	i.builder.UpdateInputConductance(i.selector.ActiveSource(), i.activeG, i.cfg.UnselectedInputConductance)
	i.builder.Commit()
}

func (i *Ips) updatePower() {
	active := i.selector.ActiveSource()
	i.powerValid = active != gunns.InvalidSource
	i.supplyVoltage = 0
	if i.powerValid {
		i.supplyVoltage = i.selector.Channels()[active].Voltage
	}
	i.loads.Update(i.supplyVoltage)

	i.totalPower = 0
	i.activeG = 0
	if !i.powerValid {
		return
	}
	i.totalPower = i.cfg.PowerConsumedOn + i.loads.Power()
	if i.biasActive {
		i.totalPower += i.biasPower
	}
	i.totalPower = math.Max(i.totalPower, 0)
	if i.supplyVoltage > 0 {
		i.activeG = i.totalPower / (i.supplyVoltage * i.supplyVoltage)
	}
	for k := range i.selector.Channels() {
		i.selector.Channels()[k].Conductance = i.cfg.UnselectedInputConductance
	}
	i.selector.Channels()[active].Conductance = math.Max(i.activeG, i.cfg.UnselectedInputConductance)
}

// ConfirmSolutionAcceptable rejects the solution when an auxiliary fuse
// blows on the first converged step, or when the solved input voltages
// move the selection to another source.
func (i *Ips) ConfirmSolutionAcceptable(convergedStep, absoluteStep int) gunns.SolutionResult {
	if convergedStep <= 0 {
		return gunns.Delay
	}
	if convergedStep == 1 {
		if blown := i.loads.CheckFuses(); len(blown) > 0 {
			i.log.Info("user load fuse blown", "link", i.cfg.Name, "loads", blown)
			i.update(false)
			return gunns.Reject
		}
	}
	prev := i.selector.ActiveSource()
	i.update(true)
	if i.selector.ActiveSource() != prev {
		return gunns.Reject
	}
	return gunns.Confirm
}

func (i *Ips) ComputeFlows(dt float64) {
	in := i.builder.InputConductances()
	for k, p := range i.ports {
		i.currents[k] = in[k] * i.nodes.Potential(p)
	}
	i.powerDrawn = 0
	if active := i.selector.ActiveSource(); active != gunns.InvalidSource {
		i.powerDrawn = i.currents[active] * i.nodes.Potential(i.ports[active])
	}
	i.heatDissipated = i.cfg.ThermalFraction * i.totalPower
}

func (i *Ips) ApplyFault(f gunns.Fault) error {
	switch f.Kind {
	case gunns.PowerInputFail:
		return i.selector.SetFailed(f.Target, f.Active)
	case gunns.AllPowerInputsFail:
		i.selector.SetAllFailed(f.Active)
		return nil
	case gunns.BiasPowerConsumed:
		if f.Active && i.cfg.PowerConsumedOn+f.Value < 0 {
			return gunns.NumericalError(i.cfg.Name, "fault", "biased power %v is negative", i.cfg.PowerConsumedOn+f.Value)
		}
		i.biasActive, i.biasPower = f.Active, f.Value
		return nil
	default:
		return &gunns.LinkError{Link: i.cfg.Name, Op: "fault " + f.Kind.String(), Wrapped: gunns.ErrUnsupportedFault}
	}
}

func distinctNonGround(name string, nodes *gunns.NodeList, ports []int) error {
	seen := make(map[int]bool, len(ports))
	for k, p := range ports {
		if nodes.IsGround(p) {
			return gunns.InitError(name, "initialize", "port %d cannot map to ground", k)
		}
		if seen[p] {
			return gunns.InitError(name, "initialize", "port %d duplicates node %d", k, p)
		}
		seen[p] = true
	}
	return nil
}
