package scenario

import (
	"fmt"
	"sort"

	"github.com/san-kum/powerlink/internal/config"
	"github.com/san-kum/powerlink/internal/loads"
)

type LoadFactory func(cfg config.LoadConfig) (loads.UserLoad, error)

// Registry maps load kinds to constructors.
type Registry struct {
	loads map[string]LoadFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		loads: make(map[string]LoadFactory),
	}

	r.loads[config.LoadResistive] = func(c config.LoadConfig) (loads.UserLoad, error) {
		return loads.NewResistiveLoad(loadConfig(c), c.Resistance)
	}
	r.loads[config.LoadConstantPower] = func(c config.LoadConfig) (loads.UserLoad, error) {
		return loads.NewConstantPowerLoad(loadConfig(c), c.Power)
	}

	return r
}

func loadConfig(c config.LoadConfig) loads.Config {
	return loads.Config{
		Name:              c.Name,
		UnderVoltageLimit: c.UnderVoltageLimit,
		Fuse:              loads.Fuse{CurrentLimit: c.FuseCurrentLimit},
		DutyCycle:         loads.DutyCycle{Fraction: c.DutyFraction, Period: c.DutyPeriod},
	}
}

// Register adds or replaces the constructor for a load kind.
func (r *Registry) Register(kind string, fn LoadFactory) {
	r.loads[kind] = fn
}

func (r *Registry) NewLoad(cfg config.LoadConfig) (loads.UserLoad, error) {
	fn, ok := r.loads[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown load kind: %s", cfg.Kind)
	}
	return fn(cfg)
}

func (r *Registry) ListLoadKinds() []string {
	names := make([]string, 0, len(r.loads))
	for name := range r.loads {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
