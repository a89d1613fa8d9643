package elect

import (
	"log/slog"

	"github.com/san-kum/powerlink/internal/gunns"
	"github.com/san-kum/powerlink/internal/loads"
)

// PowerBusConfig configures a bus whose user loads connect its node to ground.
type PowerBusConfig struct {
	Name                 string
	ConductanceTolerance float64
	Logger               *slog.Logger
}

type PowerBusBuilder struct {
	cfg   PowerBusConfig
	loads *loads.Aggregator
}

func NewPowerBusBuilder(cfg PowerBusConfig) *PowerBusBuilder {
	return &PowerBusBuilder{cfg: cfg, loads: loads.NewAggregator(cfg.Name)}
}

func (b *PowerBusBuilder) AddUserLoad(l loads.UserLoad) error { return b.loads.Add(l) }

func (b *PowerBusBuilder) Build(nodes *gunns.NodeList, ports []int) (*PowerBus, error) {
	name := b.cfg.Name
	if b.loads.Frozen() {
		return nil, gunns.InitError(name, "initialize", "already built")
	}
	if b.cfg.ConductanceTolerance < 0 {
		return nil, gunns.InitError(name, "initialize", "conductance tolerance %v is negative", b.cfg.ConductanceTolerance)
	}
	if b.loads.Len() == 0 {
		return nil, gunns.InitError(name, "initialize", "number of user loads must be positive")
	}
	if err := nodes.ValidatePorts(name, ports, 1); err != nil {
		return nil, err
	}
	if nodes.IsGround(ports[0]) {
		return nil, gunns.InitError(name, "initialize", "bus port cannot map to ground")
	}
	b.loads.Freeze()

	bus := &PowerBus{
		cfg:     b.cfg,
		nodes:   nodes,
		ports:   append([]int(nil), ports...),
		loads:   b.loads,
		builder: gunns.NewAdmittanceBuilder(1, b.cfg.ConductanceTolerance),
		log:     gunns.LoggerOrDiscard(b.cfg.Logger),
	}
	bus.update()
	return bus, nil
}

// PowerBus folds its user loads into one conductance to ground.
type PowerBus struct {
	cfg     PowerBusConfig
	nodes   *gunns.NodeList
	ports   []int
	loads   *loads.Aggregator
	builder *gunns.AdmittanceBuilder
	log     *slog.Logger

	voltage   float64
	loadPower float64
	current   float64
}

var _ gunns.Link = (*PowerBus)(nil)

func (b *PowerBus) Name() string                  { return b.cfg.Name }
func (b *PowerBus) Ports() []int                  { return b.ports }
func (b *PowerBus) Admittance() *gunns.Admittance { return b.builder.Admittance() }
func (b *PowerBus) IsNonLinear() bool             { return true }
func (b *PowerBus) UserLoads() *loads.Aggregator  { return b.loads }
func (b *PowerBus) Voltage() float64              { return b.voltage }
func (b *PowerBus) LoadPower() float64            { return b.loadPower }
func (b *PowerBus) Current() float64              { return b.current }

func (b *PowerBus) Step(dt float64) {
	b.loads.StepDutyCycles(dt)
	b.update()
}

func (b *PowerBus) MinorStep(dt float64, minorStep int) {
	b.update()
}

func (b *PowerBus) update() {
	b.loads.Update(b.nodes.Potential(b.ports[0]))
	b.builder.Reset()
	b.builder.StampShunt(0, b.loads.Conductance())
	b.builder.Commit()
}

func (b *PowerBus) ConfirmSolutionAcceptable(convergedStep, absoluteStep int) gunns.SolutionResult {
	if convergedStep <= 0 {
		return gunns.Delay
	}
	if convergedStep == 1 {
		if blown := b.loads.CheckFuses(); len(blown) > 0 {
			b.log.Info("user load fuse blown", "link", b.cfg.Name, "loads", blown)
			b.update()
			return gunns.Reject
		}
	}
	return gunns.Confirm
}

func (b *PowerBus) ComputeFlows(dt float64) {
	b.voltage = b.nodes.Potential(b.ports[0])
	b.loads.Update(b.voltage)
	b.loadPower = b.loads.Power()
	b.current = b.loads.Conductance() * b.voltage
}

func (b *PowerBus) ApplyFault(f gunns.Fault) error {
	return &gunns.LinkError{Link: b.cfg.Name, Op: "fault " + f.Kind.String(), Wrapped: gunns.ErrUnsupportedFault}
}
