package loads

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/powerlink/internal/gunns"
)

func mustResistive(t *testing.T, cfg Config, r float64) *ResistiveLoad {
	t.Helper()
	l, err := NewResistiveLoad(cfg, r)
	if err != nil {
		t.Fatalf("NewResistiveLoad: %v", err)
	}
	return l
}

func mustConstantPower(t *testing.T, cfg Config, p float64) *ConstantPowerLoad {
	t.Helper()
	l, err := NewConstantPowerLoad(cfg, p)
	if err != nil {
		t.Fatalf("NewConstantPowerLoad: %v", err)
	}
	return l
}

func TestResistiveLoad(t *testing.T) {
	l := mustResistive(t, Config{Name: "heater", UnderVoltageLimit: 100}, 10)

	l.Update(120)
	if !l.IsOn() {
		t.Fatal("expected load on above under-voltage limit")
	}
	if l.Resistance() != 10 {
		t.Errorf("resistance = %v, want 10", l.Resistance())
	}
	if math.Abs(l.Power()-1440) > 1e-9 {
		t.Errorf("power = %v, want 1440", l.Power())
	}
	if math.Abs(l.Current()-12) > 1e-9 {
		t.Errorf("current = %v, want 12", l.Current())
	}

	l.Update(90)
	if l.IsOn() || l.Resistance() != MaximumResistance || l.Power() != 0 {
		t.Errorf("expected load off below limit, got R=%v P=%v", l.Resistance(), l.Power())
	}
}

func TestConstantPowerLoad(t *testing.T) {
	l := mustConstantPower(t, Config{Name: "avionics"}, 100)

	l.Update(100)
	if math.Abs(l.Resistance()-100) > 1e-9 {
		t.Errorf("resistance = %v, want 100", l.Resistance())
	}
	if math.Abs(l.Power()-100) > 1e-9 {
		t.Errorf("power = %v, want 100", l.Power())
	}

	l.Update(0)
	if l.Power() != 0 || l.Resistance() != MaximumResistance {
		t.Error("unpowered load must fall back to maximum resistance")
	}
}

func TestConstantPowerLoad_OverrideGuards(t *testing.T) {
	l := mustConstantPower(t, Config{Name: "pump"}, 50)

	err := l.SetOverridePower(true, -5)
	if !errors.Is(err, gunns.ErrNumerical) {
		t.Fatalf("expected ErrNumerical, got %v", err)
	}

	if err := l.SetOverridePower(true, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.Update(120)
	if l.Power() != 0 || l.Resistance() != MaximumResistance {
		t.Errorf("zero override power should idle the load, got P=%v R=%v", l.Power(), l.Resistance())
	}
}

func TestNewLoad_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"zero resistance", func() error { _, err := NewResistiveLoad(Config{Name: "r"}, 0); return err }},
		{"negative resistance", func() error { _, err := NewResistiveLoad(Config{Name: "r"}, -1); return err }},
		{"negative power", func() error { _, err := NewConstantPowerLoad(Config{Name: "p"}, -1); return err }},
		{"negative fuse", func() error {
			_, err := NewResistiveLoad(Config{Name: "r", Fuse: Fuse{CurrentLimit: -1}}, 1)
			return err
		}},
		{"duty fraction", func() error {
			_, err := NewResistiveLoad(Config{Name: "r", DutyCycle: DutyCycle{Fraction: 2, Period: 1}}, 1)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, gunns.ErrInitialization) {
				t.Errorf("expected ErrInitialization, got %v", err)
			}
		})
	}
}

func TestFuse(t *testing.T) {
	l := mustResistive(t, Config{Name: "r", Fuse: Fuse{CurrentLimit: 5}}, 10)
	l.Update(100)

	if !l.UpdateFuse(l.Current()) {
		t.Fatal("10 A through a 5 A fuse should blow it")
	}
	if l.UpdateFuse(l.Current()) {
		t.Error("a blown fuse must not report blowing again")
	}

	l.Update(100)
	if l.IsOn() || l.Current() != 0 {
		t.Error("blown load must be off")
	}

	l.ResetFuse()
	l.Update(100)
	if !l.IsOn() {
		t.Error("load should come back after fuse reset")
	}
}

func TestDutyCycle(t *testing.T) {
	l := mustResistive(t, Config{Name: "r", DutyCycle: DutyCycle{Fraction: 0.5, Period: 1}}, 10)

	l.Update(100)
	if !l.IsOn() {
		t.Fatal("expected on at start of period")
	}

	l.StepDutyCycle(0.6)
	l.Update(100)
	if l.IsOn() {
		t.Error("expected off in second half of period")
	}

	l.StepDutyCycle(0.5)
	l.Update(100)
	if !l.IsOn() {
		t.Error("expected on after period wraps")
	}
}

func TestAggregator_NoLoadFloor(t *testing.T) {
	a := NewAggregator("bus")
	if a.Conductance() != gunns.ConductanceFloor {
		t.Errorf("empty conductance = %v, want %v", a.Conductance(), gunns.ConductanceFloor)
	}
	if a.Power() != 0 {
		t.Errorf("empty power = %v", a.Power())
	}
}

func TestAggregator_ParallelSum(t *testing.T) {
	a := NewAggregator("bus")
	r1 := mustResistive(t, Config{Name: "r1"}, 10)
	r2 := mustResistive(t, Config{Name: "r2"}, 40)
	p1 := mustConstantPower(t, Config{Name: "p1"}, 100)
	for _, l := range []UserLoad{r1, r2, p1} {
		if err := a.Add(l); err != nil {
			t.Fatal(err)
		}
	}

	a.Update(100)
	want := 1.0/10 + 1.0/40 + 1.0/100
	if math.Abs(a.Conductance()-want) > 1e-12 {
		t.Errorf("conductance = %v, want %v", a.Conductance(), want)
	}
	wantP := 1000.0 + 250.0 + 100.0
	if math.Abs(a.Power()-wantP) > 1e-9 {
		t.Errorf("power = %v, want %v", a.Power(), wantP)
	}
}

func TestAggregator_BlownFuseRemovesLoad(t *testing.T) {
	a := NewAggregator("bus")
	r1 := mustResistive(t, Config{Name: "r1", Fuse: Fuse{CurrentLimit: 1}}, 10)
	r2 := mustResistive(t, Config{Name: "r2"}, 20)
	a.Add(r1)
	a.Add(r2)

	a.Update(100)
	blown := a.CheckFuses()
	if len(blown) != 1 || blown[0] != "r1" {
		t.Fatalf("blown = %v, want [r1]", blown)
	}

	a.Update(100)
	if math.Abs(a.Conductance()-1.0/20) > 1e-12 {
		t.Errorf("conductance = %v, want only r2", a.Conductance())
	}
	if len(a.CheckFuses()) != 0 {
		t.Error("no further fuses should blow")
	}
}

func TestAggregator_AddAfterFreeze(t *testing.T) {
	a := NewAggregator("sw1")
	a.Freeze()
	err := a.Add(mustResistive(t, Config{Name: "late"}, 1))
	if !errors.Is(err, gunns.ErrInitialization) {
		t.Errorf("expected ErrInitialization, got %v", err)
	}
	if a.Len() != 0 {
		t.Error("frozen aggregator must not grow")
	}
}

func TestAggregator_AddNil(t *testing.T) {
	for _, frozen := range []bool{false, true} {
		a := NewAggregator("sw1")
		if frozen {
			a.Freeze()
		}
		if err := a.Add(nil); !errors.Is(err, gunns.ErrInitialization) {
			t.Errorf("frozen=%v: expected ErrInitialization, got %v", frozen, err)
		}
		if a.Len() != 0 {
			t.Errorf("frozen=%v: nil load must not be added", frozen)
		}
	}
}
