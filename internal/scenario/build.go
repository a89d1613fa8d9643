package scenario

import (
	"log/slog"

	"github.com/san-kum/powerlink/internal/config"
	"github.com/san-kum/powerlink/internal/elect"
	"github.com/san-kum/powerlink/internal/gunns"
	"github.com/san-kum/powerlink/internal/loads"
	"github.com/san-kum/powerlink/internal/network"
)

// loadAdder is the builder phase shared by every link that feeds user loads.
type loadAdder interface {
	AddUserLoad(l loads.UserLoad) error
}

func (r *Registry) addLoads(b loadAdder, cfgs []config.LoadConfig) error {
	for _, lc := range cfgs {
		l, err := r.NewLoad(lc)
		if err != nil {
			return err
		}
		if err := b.AddUserLoad(l); err != nil {
			return err
		}
	}
	return nil
}

// buildNetwork turns a validated description into a network of built links.
func (r *Registry) buildNetwork(cfg *config.Config, logger *slog.Logger) (*network.Network, error) {
	nodes := gunns.NewNodeList(cfg.Nodes...)
	net := network.New(nodes, logger)
	add := func(l gunns.Link, err error) error {
		if err != nil {
			return err
		}
		return net.AddLink(l)
	}

	for _, s := range cfg.Sources {
		g := s.Conductance
		if g == 0 {
			g = config.DefaultSourceConductance
		}
		src, err := elect.NewPotentialSource(elect.PotentialSourceConfig{
			Name: s.Name, Conductance: g, Potential: s.Potential,
		}, nodes, []int{nodes.Ground(), nodes.Index(s.Node)})
		if err := add(src, err); err != nil {
			return nil, err
		}
	}

	for _, s := range cfg.Supplies {
		sel := s.Selector
		sel.NumSources = len(s.Inputs)
		leak := s.UnselectedInputConductance
		if leak == 0 {
			leak = config.DefaultUnselectedLeakage
		}
		b := elect.NewIpsBuilder(elect.IpsConfig{
			Name:                       s.Name,
			Selector:                   sel,
			UnselectedInputConductance: leak,
			ConductanceTolerance:       s.ConductanceTolerance,
			PowerConsumedOn:            s.PowerConsumedOn,
			ThermalFraction:            s.ThermalFraction,
			Logger:                     logger,
		})
		if err := r.addLoads(b, s.Loads); err != nil {
			return nil, err
		}
		ports := make([]int, len(s.Inputs))
		for i, in := range s.Inputs {
			ports[i] = nodes.Index(in)
		}
		ips, err := b.Build(nodes, ports)
		if err := add(ips, err); err != nil {
			return nil, err
		}
	}

	for _, s := range cfg.Switches {
		b := elect.NewUserLoadSwitchBuilder(elect.UserLoadSwitchConfig{
			Name:                 s.Name,
			Switch:               elect.SwitchConfig{Resistance: s.Resistance, Trips: s.Trips},
			InitiallyClosed:      s.InitiallyClosed,
			ConductanceTolerance: s.ConductanceTolerance,
			Logger:               logger,
		})
		if err := r.addLoads(b, s.Loads); err != nil {
			return nil, err
		}
		sw, err := b.Build(nodes, []int{nodes.Index(s.Input), nodes.Index(s.Output)})
		if err := add(sw, err); err != nil {
			return nil, err
		}
	}

	for _, s := range cfg.Buses {
		b := elect.NewPowerBusBuilder(elect.PowerBusConfig{
			Name:                 s.Name,
			ConductanceTolerance: s.ConductanceTolerance,
			Logger:               logger,
		})
		if err := r.addLoads(b, s.Loads); err != nil {
			return nil, err
		}
		bus, err := b.Build(nodes, []int{nodes.Index(s.Node)})
		if err := add(bus, err); err != nil {
			return nil, err
		}
	}

	return net, nil
}
