package loads

import (
	"math"

	"github.com/san-kum/powerlink/internal/gunns"
)

const (
	// MaximumResistance is the resistance of a load that is off.
	MaximumResistance = 1.0e8
	// MinimumResistance bounds the resistance used in conductance sums.
	MinimumResistance = gunns.ConductanceFloor
)

// UserLoad is the leaf load a link aggregates. Links hold non-owning
// references; the network configuration owns the loads.
type UserLoad interface {
	Name() string
	Update(voltage float64)
	Resistance() float64
	Power() float64
	Current() float64
	IsOn() bool
	StepDutyCycle(dt float64)
	UpdateFuse(current float64) bool
	IsFuseBlown() bool
	ResetFuse()
}

// Fuse opens permanently (until reset) when the load current magnitude
// exceeds CurrentLimit. A zero limit means no fuse.
type Fuse struct {
	CurrentLimit float64
	blown        bool
}

func (f *Fuse) update(current float64) bool {
	if f.CurrentLimit <= 0 || f.blown {
		return false
	}
	if math.Abs(current) > f.CurrentLimit {
		f.blown = true
		return true
	}
	return false
}

// DutyCycle switches a load on for Fraction of every Period seconds.
// A non-positive period keeps the load on.
type DutyCycle struct {
	Fraction float64
	Period   float64
	timer    float64
}

func (d *DutyCycle) step(dt float64) {
	if d.Period <= 0 {
		return
	}
	d.timer = math.Mod(d.timer+dt, d.Period)
}

func (d *DutyCycle) on() bool {
	if d.Period <= 0 {
		return true
	}
	return d.timer < d.Fraction*d.Period
}

type Config struct {
	Name              string
	UnderVoltageLimit float64
	Fuse              Fuse
	DutyCycle         DutyCycle
}

type base struct {
	cfg        Config
	voltage    float64
	resistance float64
	power      float64
	on         bool
}

func newBase(cfg Config) base {
	return base{cfg: cfg, resistance: MaximumResistance}
}

func (b *base) Name() string             { return b.cfg.Name }
func (b *base) Resistance() float64      { return b.resistance }
func (b *base) Power() float64           { return b.power }
func (b *base) IsOn() bool               { return b.on }
func (b *base) IsFuseBlown() bool        { return b.cfg.Fuse.blown }
func (b *base) ResetFuse()               { b.cfg.Fuse.blown = false }
func (b *base) StepDutyCycle(dt float64) { b.cfg.DutyCycle.step(dt) }

func (b *base) UpdateFuse(current float64) bool { return b.cfg.Fuse.update(current) }

func (b *base) Current() float64 {
	if !b.on {
		return 0
	}
	return b.voltage / math.Max(b.resistance, MinimumResistance)
}

func (b *base) powered(voltage float64) bool {
	b.voltage = voltage
	b.on = !b.cfg.Fuse.blown && b.cfg.DutyCycle.on() && voltage > b.cfg.UnderVoltageLimit && voltage > 0
	if !b.on {
		b.resistance = MaximumResistance
		b.power = 0
	}
	return b.on
}

func validate(cfg Config) error {
	if cfg.UnderVoltageLimit < 0 {
		return gunns.InitError(cfg.Name, "initialize", "under-voltage limit %v is negative", cfg.UnderVoltageLimit)
	}
	if cfg.Fuse.CurrentLimit < 0 {
		return gunns.InitError(cfg.Name, "initialize", "fuse current limit %v is negative", cfg.Fuse.CurrentLimit)
	}
	if cfg.DutyCycle.Fraction < 0 || cfg.DutyCycle.Fraction > 1 {
		return gunns.InitError(cfg.Name, "initialize", "duty cycle fraction %v outside [0,1]", cfg.DutyCycle.Fraction)
	}
	return nil
}
