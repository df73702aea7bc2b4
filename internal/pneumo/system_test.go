package pneumo

import (
	"errors"
	"math"
	"testing"

	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
)

func TestNewSystem_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"receiver below min", func(c *Config) { c.ReceiverVolume = 0.001 }},
		{"receiver above max", func(c *Config) { c.ReceiverVolume = 1.0 }},
		{"inverted receiver bounds", func(c *Config) { c.ReceiverMin = 0.1; c.ReceiverMax = 0.01 }},
		{"reseat above cracking", func(c *Config) { c.Reseat = 2 * c.Cracking }},
		{"rod area above head area", func(c *Config) { c.Cylinder.AreaRod = 2 * c.Cylinder.AreaHead }},
		{"zero stroke", func(c *Config) { c.Cylinder.Stroke = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPneumoConfig()
			tt.mutate(&cfg)
			if _, err := NewSystem(cfg); !errors.Is(err, dynamo.ErrConfigInvalid) {
				t.Errorf("expected ErrConfigInvalid, got %v", err)
			}
		})
	}
}

func TestSystem_ColdStartEquilibrium(t *testing.T) {
	cfg := DefaultPneumoConfig()
	sys, err := NewSystem(cfg)
	if err != nil {
		t.Fatal(err)
	}

	mid := cfg.Cylinder.Stroke / 2
	strokes := [4]float64{mid, mid, mid, mid}

	var forces [4]float64
	for i := 0; i < 1000; i++ {
		forces, err = sys.Step(0.001, strokes)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	// Head at working pressure, rod at atmospheric; the force must not
	// drift over a quiescent hold.
	expected := cfg.InitPressure*cfg.Cylinder.AreaHead - PAtm*cfg.Cylinder.AreaRod
	for i, f := range forces {
		if math.Abs(f-expected) > 1e-6 {
			t.Errorf("corner %s: force %.9f, want %.9f", CornerNames[i], f, expected)
		}
	}

	if r := sys.Receiver.LawResidual(); r > 1e-9 {
		t.Errorf("receiver gas law residual %e", r)
	}
	if sys.DegenerateCount() != 0 {
		t.Errorf("quiescent hold clamped volumes %d times", sys.DegenerateCount())
	}
}

func TestSystem_CompressionChargesReceiver(t *testing.T) {
	cfg := DefaultPneumoConfig()
	sys, err := NewSystem(cfg)
	if err != nil {
		t.Fatal(err)
	}

	m0 := sys.Receiver.Mass

	// Drive all four pistons hard toward full retraction; head chambers
	// compress far past the check-valve cracking pressure.
	stroke := cfg.Cylinder.Stroke / 2
	for i := 0; i < 2000 && stroke > 0.01; i++ {
		stroke -= 0.0002
		s := [4]float64{stroke, stroke, stroke, stroke}
		if _, err := sys.Step(0.001, s); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	if sys.Receiver.Mass <= m0 {
		t.Errorf("receiver mass did not grow under compression: %.9f -> %.9f", m0, sys.Receiver.Mass)
	}
}

func TestSystem_IsolationClosedBlocksReceiver(t *testing.T) {
	cfg := DefaultPneumoConfig()
	cfg.IsolationOpen = false
	sys, err := NewSystem(cfg)
	if err != nil {
		t.Fatal(err)
	}

	m0 := sys.Receiver.Mass

	stroke := cfg.Cylinder.Stroke / 2
	for i := 0; i < 1000 && stroke > 0.02; i++ {
		stroke -= 0.0002
		s := [4]float64{stroke, stroke, stroke, stroke}
		if _, err := sys.Step(0.001, s); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	if sys.Receiver.Mass != m0 {
		t.Errorf("isolated receiver exchanged mass: %.9f -> %.9f", m0, sys.Receiver.Mass)
	}
}

func TestSystem_GeometricReceiverVolume(t *testing.T) {
	cfg := DefaultPneumoConfig()
	cfg.VolumeMode = VolumeGeometric
	sys, err := NewSystem(cfg)
	if err != nil {
		t.Fatal(err)
	}

	// Two receiver lines per corner.
	want := cfg.ReceiverVolume + 8*cfg.LineLength*cfg.LineBore
	if math.Abs(sys.Receiver.Volume-want) > 1e-12 {
		t.Errorf("geometric receiver volume %.9f, want %.9f", sys.Receiver.Volume, want)
	}
}

func TestSystem_SetReceiverVolume(t *testing.T) {
	sys, err := NewSystem(DefaultPneumoConfig())
	if err != nil {
		t.Fatal(err)
	}

	p0 := sys.Receiver.Pressure
	if err := sys.SetReceiverVolume(0.01); err != nil {
		t.Fatalf("valid volume rejected: %v", err)
	}
	if sys.Receiver.Pressure <= p0 {
		t.Error("halving receiver volume should raise pressure")
	}

	v := sys.Receiver.Volume
	if err := sys.SetReceiverVolume(10.0); !errors.Is(err, dynamo.ErrConfigInvalid) {
		t.Errorf("out-of-bounds volume accepted: %v", err)
	}
	if sys.Receiver.Volume != v {
		t.Error("rejected update mutated receiver volume")
	}
}

func TestSystem_ReliefVentsOverpressure(t *testing.T) {
	cfg := DefaultPneumoConfig()
	cfg.ReliefSetpoint = 3.5e5
	sys, err := NewSystem(cfg)
	if err != nil {
		t.Fatal(err)
	}

	// Pump the receiver over the setpoint directly, then let the relief
	// valve work during quiescent steps.
	if err := sys.Receiver.AddMass(sys.Receiver.Mass, sys.Receiver.Temperature); err != nil {
		t.Fatal(err)
	}
	if sys.Receiver.Pressure <= cfg.ReliefSetpoint {
		t.Fatal("test setup: receiver not over setpoint")
	}

	mid := cfg.Cylinder.Stroke / 2
	for i := 0; i < 20000; i++ {
		if _, err := sys.Step(0.001, [4]float64{mid, mid, mid, mid}); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	if sys.Receiver.Pressure > cfg.ReliefSetpoint+cfg.ReliefModBand {
		t.Errorf("relief failed to vent: receiver at %.0f Pa, setpoint %.0f Pa",
			sys.Receiver.Pressure, cfg.ReliefSetpoint)
	}
}

func TestSystem_RuntimeRetuning(t *testing.T) {
	sys, err := NewSystem(DefaultPneumoConfig())
	if err != nil {
		t.Fatal(err)
	}

	if err := sys.SetValveThresholds(20000, 8000); err != nil {
		t.Errorf("valid thresholds rejected: %v", err)
	}
	if err := sys.SetValveThresholds(10000, 10000); !errors.Is(err, dynamo.ErrConfigInvalid) {
		t.Error("reseat == cracking accepted")
	}
	if err := sys.SetReliefSetpoint(PAtm / 2); !errors.Is(err, dynamo.ErrConfigInvalid) {
		t.Error("sub-atmospheric relief setpoint accepted")
	}
}
