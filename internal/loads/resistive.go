package loads

import (
	"math"

	"github.com/san-kum/powerlink/internal/gunns"
)

type ResistiveLoad struct {
	base
	nominal          float64
	overrideActive   bool
	overrideResistor float64
}

func NewResistiveLoad(cfg Config, resistance float64) (*ResistiveLoad, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	if resistance <= 0 {
		return nil, gunns.InitError(cfg.Name, "initialize", "resistance %v must be positive", resistance)
	}
	return &ResistiveLoad{base: newBase(cfg), nominal: resistance}, nil
}

// SetOverrideResistance replaces the nominal resistance while active.
func (l *ResistiveLoad) SetOverrideResistance(active bool, r float64) error {
	if active && r <= 0 {
		return gunns.NumericalError(l.cfg.Name, "override", "resistance %v must be positive", r)
	}
	l.overrideActive, l.overrideResistor = active, r
	return nil
}

func (l *ResistiveLoad) Update(voltage float64) {
	if !l.powered(voltage) {
		return
	}
	r := l.nominal
	if l.overrideActive {
		r = l.overrideResistor
	}
	l.resistance = math.Min(math.Max(r, MinimumResistance), MaximumResistance)
	l.power = voltage * voltage / l.resistance
}
