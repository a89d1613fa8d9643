package loads

import (
	"math"

	"github.com/san-kum/powerlink/internal/gunns"
)

// ConstantPowerLoad draws a fixed power while powered; its resistance
// is V^2/P at the supplied voltage.
type ConstantPowerLoad struct {
	base
	nominal        float64
	overrideActive bool
	overridePower  float64
}

func NewConstantPowerLoad(cfg Config, power float64) (*ConstantPowerLoad, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	if power < 0 {
		return nil, gunns.InitError(cfg.Name, "initialize", "power %v is negative", power)
	}
	return &ConstantPowerLoad{base: newBase(cfg), nominal: power}, nil
}

// SetOverridePower replaces the nominal power while active. Negative
// power is outside the load's domain.
func (l *ConstantPowerLoad) SetOverridePower(active bool, p float64) error {
	if active && p < 0 {
		return gunns.NumericalError(l.cfg.Name, "override", "power %v is negative", p)
	}
	l.overrideActive, l.overridePower = active, p
	return nil
}

func (l *ConstantPowerLoad) Update(voltage float64) {
	if !l.powered(voltage) {
		return
	}
	p := l.nominal
	if l.overrideActive {
		p = l.overridePower
	}
	if p <= 0 {
		l.resistance = MaximumResistance
		l.power = 0
		return
	}
	l.resistance = math.Min(math.Max(voltage*voltage/p, MinimumResistance), MaximumResistance)
	l.power = voltage * voltage / l.resistance
}
