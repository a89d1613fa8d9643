package config

import (
	"github.com/san-kum/powerlink/internal/gunns"
)

// Validate checks the structure of the description. Component parameters
// are checked again by the link builders.
func (c *Config) Validate() error {
	name := c.Name
	if name == "" {
		name = "config"
	}
	fail := func(format string, args ...any) error {
		return gunns.InitError(name, "validate", format, args...)
	}

	s := c.Solver
	switch {
	case s.Dt <= 0:
		return fail("dt must be positive, got %f", s.Dt)
	case s.Duration <= 0:
		return fail("duration must be positive, got %f", s.Duration)
	case s.MaxMinorSteps < 2:
		return fail("max minor steps must be at least 2, got %d", s.MaxMinorSteps)
	case s.ConvergenceTolerance <= 0:
		return fail("convergence tolerance must be positive, got %g", s.ConvergenceTolerance)
	}

	nodes := make(map[string]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		if n == "" || n == "ground" {
			return fail("invalid node name %q", n)
		}
		if nodes[n] {
			return fail("duplicate node %q", n)
		}
		nodes[n] = true
	}
	node := func(link, n string, groundOK bool) error {
		if nodes[n] || (groundOK && n == "ground") {
			return nil
		}
		return fail("link %q references unknown node %q", link, n)
	}

	links := make(map[string]bool)
	link := func(n string) error {
		if n == "" {
			return fail("link without a name")
		}
		if links[n] {
			return fail("duplicate link %q", n)
		}
		links[n] = true
		return nil
	}

	for _, src := range c.Sources {
		if err := link(src.Name); err != nil {
			return err
		}
		if err := node(src.Name, src.Node, false); err != nil {
			return err
		}
	}
	for _, sup := range c.Supplies {
		if err := link(sup.Name); err != nil {
			return err
		}
		if len(sup.Inputs) == 0 {
			return fail("supply %q has no inputs", sup.Name)
		}
		for _, in := range sup.Inputs {
			if err := node(sup.Name, in, false); err != nil {
				return err
			}
		}
		if err := validateLoads(sup.Name, sup.Loads, fail); err != nil {
			return err
		}
	}
	for _, sw := range c.Switches {
		if err := link(sw.Name); err != nil {
			return err
		}
		if err := node(sw.Name, sw.Input, true); err != nil {
			return err
		}
		if err := node(sw.Name, sw.Output, false); err != nil {
			return err
		}
		if err := validateLoads(sw.Name, sw.Loads, fail); err != nil {
			return err
		}
	}
	for _, b := range c.Buses {
		if err := link(b.Name); err != nil {
			return err
		}
		if err := node(b.Name, b.Node, false); err != nil {
			return err
		}
		if err := validateLoads(b.Name, b.Loads, fail); err != nil {
			return err
		}
	}

	for i, f := range c.Faults {
		if f.At < 0 {
			return fail("fault %d scheduled at negative time %f", i, f.At)
		}
		if !links[f.Link] {
			return fail("fault %d targets unknown link %q", i, f.Link)
		}
		if _, ok := gunns.ParseFaultKind(f.Kind); !ok {
			return fail("fault %d has unknown kind %q", i, f.Kind)
		}
	}
	return nil
}

func validateLoads(link string, loads []LoadConfig, fail func(string, ...any) error) error {
	seen := make(map[string]bool, len(loads))
	for _, l := range loads {
		if l.Name == "" {
			return fail("link %q has a load without a name", link)
		}
		if seen[l.Name] {
			return fail("link %q has duplicate load %q", link, l.Name)
		}
		seen[l.Name] = true
		switch l.Kind {
		case LoadResistive, LoadConstantPower:
		default:
			return fail("load %q has unknown kind %q", l.Name, l.Kind)
		}
	}
	return nil
}
