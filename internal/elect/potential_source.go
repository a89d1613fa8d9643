package elect

import "github.com/san-kum/powerlink/internal/gunns"

// PotentialSourceConfig configures a voltage source behind a conductance.
// Port 0 is the reference side, usually ground; port 1 is driven.
type PotentialSourceConfig struct {
	Name        string
	Conductance float64
	Potential   float64
}

// PotentialSource drives port 1 to Potential above port 0 through Conductance.
type PotentialSource struct {
	cfg     PotentialSourceConfig
	nodes   *gunns.NodeList
	ports   []int
	builder *gunns.AdmittanceBuilder
	failed  bool
	flux    float64
}

var _ gunns.Link = (*PotentialSource)(nil)

func NewPotentialSource(cfg PotentialSourceConfig, nodes *gunns.NodeList, ports []int) (*PotentialSource, error) {
	if cfg.Conductance <= 0 {
		return nil, gunns.InitError(cfg.Name, "initialize", "conductance %v must be positive", cfg.Conductance)
	}
	if err := nodes.ValidatePorts(cfg.Name, ports, 2); err != nil {
		return nil, err
	}
	if ports[0] == ports[1] {
		return nil, gunns.InitError(cfg.Name, "initialize", "ports share node %d", ports[0])
	}
	p := &PotentialSource{
		cfg:     cfg,
		nodes:   nodes,
		ports:   append([]int(nil), ports...),
		builder: gunns.NewAdmittanceBuilder(2, 0),
	}
	p.update()
	return p, nil
}

func (p *PotentialSource) Name() string                  { return p.cfg.Name }
func (p *PotentialSource) Ports() []int                  { return p.ports }
func (p *PotentialSource) Admittance() *gunns.Admittance { return p.builder.Admittance() }
func (p *PotentialSource) IsNonLinear() bool             { return false }
func (p *PotentialSource) Flux() float64                 { return p.flux }

// Potential returns the source potential currently applied.
func (p *PotentialSource) Potential() float64 {
	if p.failed {
		return 0
	}
	return p.cfg.Potential
}

func (p *PotentialSource) SetPotential(v float64) {
	p.cfg.Potential = v
	p.update()
}

func (p *PotentialSource) update() {
	g, v := p.cfg.Conductance, p.Potential()
	p.builder.Reset()
	p.builder.StampSeries(0, 1, g)
	p.builder.StampSource(0, -g*v)
	p.builder.StampSource(1, g*v)
	p.builder.Commit()
}

func (p *PotentialSource) Step(dt float64) { p.update() }

func (p *PotentialSource) MinorStep(dt float64, minorStep int) {}

func (p *PotentialSource) ConfirmSolutionAcceptable(convergedStep, absoluteStep int) gunns.SolutionResult {
	return gunns.Confirm
}

func (p *PotentialSource) ComputeFlows(dt float64) {
	dp := p.nodes.Potential(p.ports[1]) - p.nodes.Potential(p.ports[0])
	p.flux = p.cfg.Conductance * (p.Potential() - dp)
}

func (p *PotentialSource) ApplyFault(f gunns.Fault) error {
	if f.Kind != gunns.SourceFail {
		return &gunns.LinkError{Link: p.cfg.Name, Op: "fault " + f.Kind.String(), Wrapped: gunns.ErrUnsupportedFault}
	}
	p.failed = f.Active
	p.update()
	return nil
}
