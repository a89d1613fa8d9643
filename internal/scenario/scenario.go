package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/san-kum/powerlink/internal/config"
	"github.com/san-kum/powerlink/internal/gunns"
	"github.com/san-kum/powerlink/internal/metrics"
	"github.com/san-kum/powerlink/internal/network"
)

// timeEpsilon absorbs accumulated dt rounding when matching fault times.
const timeEpsilon = 1e-9

type scheduledFault struct {
	at    float64
	link  string
	fault gunns.Fault
}

// schedule applies faults as simulated time passes them.
type schedule struct {
	net     *network.Network
	pending []scheduledFault
	errs    []error
	log     *slog.Logger
}

func newSchedule(net *network.Network, faults []config.FaultConfig, logger *slog.Logger) *schedule {
	s := &schedule{net: net, log: gunns.LoggerOrDiscard(logger)}
	for _, f := range faults {
		kind, _ := gunns.ParseFaultKind(f.Kind)
		s.pending = append(s.pending, scheduledFault{
			at:    f.At,
			link:  f.Link,
			fault: gunns.Fault{Kind: kind, Target: f.Target, Value: f.Value, Active: !f.Clear},
		})
	}
	sort.SliceStable(s.pending, func(i, j int) bool { return s.pending[i].at < s.pending[j].at })
	return s
}

// applyDue applies every pending fault scheduled at or before t.
func (s *schedule) applyDue(t float64) {
	for len(s.pending) > 0 && s.pending[0].at <= t+timeEpsilon {
		f := s.pending[0]
		s.pending = s.pending[1:]
		if err := s.net.ApplyFault(f.link, f.fault); err != nil {
			s.log.Warn("fault rejected", "link", f.link, "kind", f.fault.Kind.String(), "err", err)
			s.errs = append(s.errs, fmt.Errorf("fault at t=%.4f: %w", f.at, err))
			continue
		}
		s.log.Info("fault applied", "link", f.link, "kind", f.fault.Kind.String(),
			"active", f.fault.Active, "time", t)
	}
}

func (s *schedule) OnStep(snap network.Snapshot) { s.applyDue(snap.Time) }

// Scenario is a built network with its fault schedule.
type Scenario struct {
	cfg      *config.Config
	net      *network.Network
	schedule *schedule
	started  bool
}

// Build validates cfg and constructs its network. Every run records the
// standard metrics.
func Build(cfg *config.Config, reg *Registry, logger *slog.Logger) (*Scenario, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = NewRegistry()
	}
	net, err := reg.buildNetwork(cfg, logger)
	if err != nil {
		return nil, err
	}
	for _, m := range metrics.Standard() {
		net.AddMetric(m)
	}
	s := &Scenario{
		cfg:      cfg,
		net:      net,
		schedule: newSchedule(net, cfg.Faults, logger),
	}
	net.AddObserver(s.schedule)
	return s, nil
}

func (s *Scenario) Config() *config.Config      { return s.cfg }
func (s *Scenario) Network() *network.Network   { return s.net }
func (s *Scenario) Link(name string) gunns.Link { return s.net.Link(name) }

func (s *Scenario) start() {
	if !s.started {
		s.schedule.applyDue(s.net.Time())
		s.started = true
	}
}

// Run simulates the configured duration. Rejected faults are reported in
// the result's errors.
func (s *Scenario) Run(ctx context.Context) (*network.Result, error) {
	s.start()
	result, err := s.net.Run(ctx, s.cfg.Solver.Network())
	if result != nil {
		result.Errors = append(result.Errors, s.schedule.errs...)
	}
	return result, err
}

// Step advances one major step, applying faults as their time passes.
func (s *Scenario) Step() (network.Snapshot, error) {
	s.start()
	snap, err := s.net.MajorStep(s.cfg.Solver.Network())
	s.schedule.OnStep(snap)
	return snap, err
}

// RunAll builds and runs each configuration concurrently. Results keep
// the order of cfgs.
func RunAll(ctx context.Context, cfgs []*config.Config, reg *Registry, logger *slog.Logger) ([]*network.Result, error) {
	results := make([]*network.Result, len(cfgs))
	errs := make([]error, len(cfgs))

	var wg sync.WaitGroup
	for i, cfg := range cfgs {
		wg.Add(1)
		go func(idx int, cfg *config.Config) {
			defer wg.Done()

			s, err := Build(cfg, reg, logger)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = s.Run(ctx)
		}(i, cfg)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfgs[i].Name, err)
		}
	}

	return results, nil
}
