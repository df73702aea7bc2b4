package kinematics

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
)

func testCorner(t *testing.T) *Corner {
	t.Helper()
	c, err := NewCorner(DefaultCorner("fl", 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestCorner_NeutralPosition(t *testing.T) {
	c := testCorner(t)
	cfg := c.Config()

	g, err := c.Solve(0, Pose{})
	if err != nil {
		t.Fatalf("solve at neutral: %v", err)
	}

	want := cfg.Pivot.Add(cfg.LeverAxis.Mul(cfg.LeverLength * cfg.RodFraction))
	if g.RodAttach != want {
		t.Errorf("neutral rod attach = %v, want %v", g.RodAttach, want)
	}
	if math.Abs(g.Stroke-cfg.Stroke/2) > 1e-12 {
		t.Errorf("neutral stroke = %.9f, want mid-stroke %.9f", g.Stroke, cfg.Stroke/2)
	}
}

func TestCorner_SafeRangeNoInterference(t *testing.T) {
	c := testCorner(t)
	cfg := c.Config()

	for a := -cfg.MaxAngle; a <= cfg.MaxAngle; a += 0.01 {
		g, err := c.Solve(a, Pose{})
		if err != nil {
			t.Fatalf("angle %.3f: %v", a, err)
		}
		if g.Interference > 0 {
			t.Errorf("angle %.3f: interference %.4f m on reference geometry", a, g.Interference)
		}
	}
}

func TestCorner_AngleClamping(t *testing.T) {
	c := testCorner(t)
	cfg := c.Config()

	tests := []struct {
		name      string
		angle     float64
		wantAngle float64
		wantErr   bool
	}{
		{"inside range", 0.3, 0.3, false},
		{"at limit", cfg.MaxAngle, cfg.MaxAngle, false},
		{"silent clamp inside margin", cfg.MaxAngle + 0.05, cfg.MaxAngle, false},
		{"flagged beyond margin", cfg.MaxAngle + 0.2, cfg.MaxAngle, true},
		{"flagged negative", -(cfg.MaxAngle + 0.2), -cfg.MaxAngle, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := c.Solve(tt.angle, Pose{})
			if tt.wantErr {
				if !errors.Is(err, dynamo.ErrGeometryOutOfRange) {
					t.Errorf("expected ErrGeometryOutOfRange, got %v", err)
				}
				if !g.Clamped {
					t.Error("geometry not marked clamped")
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if g.Angle != tt.wantAngle {
				t.Errorf("solved angle = %.4f, want %.4f", g.Angle, tt.wantAngle)
			}
		})
	}
}

func TestCorner_StrokeMonotonic(t *testing.T) {
	c := testCorner(t)
	cfg := c.Config()

	// Raising the lever shortens the tail-to-attachment distance on the
	// reference geometry, so stroke decreases monotonically with angle.
	prev := math.Inf(1)
	for a := -cfg.MaxAngle; a <= cfg.MaxAngle; a += 0.05 {
		g, err := c.Solve(a, Pose{})
		if err != nil {
			t.Fatal(err)
		}
		if g.Stroke > prev {
			t.Fatalf("stroke not monotonic in angle at %.2f: %.6f > %.6f", a, g.Stroke, prev)
		}
		prev = g.Stroke
	}
}

func TestCorner_PoseMovesGeometry(t *testing.T) {
	c := testCorner(t)

	flat, err := c.Solve(0, Pose{})
	if err != nil {
		t.Fatal(err)
	}
	lifted, err := c.Solve(0, Pose{Heave: 0.1})
	if err != nil {
		t.Fatal(err)
	}

	dz := lifted.Pivot.Z() - flat.Pivot.Z()
	if math.Abs(dz-0.1) > 1e-12 {
		t.Errorf("heave moved pivot by %.6f, want 0.1", dz)
	}

	rolled, err := c.Solve(0, Pose{Roll: 0.1})
	if err != nil {
		t.Fatal(err)
	}
	if rolled.Pivot == flat.Pivot {
		t.Error("roll did not move the pivot")
	}
}

func TestCorner_RodLengthPreserved(t *testing.T) {
	c := testCorner(t)
	cfg := c.Config()

	for _, a := range []float64{-0.4, -0.1, 0, 0.2, 0.45} {
		g, err := c.Solve(a, Pose{Heave: 0.02, Roll: 0.01, Pitch: -0.01})
		if err != nil {
			t.Fatal(err)
		}
		got := g.RodAttach.Sub(g.Piston).Len()
		if math.Abs(got-cfg.RodLength) > 1e-9 {
			t.Errorf("angle %.2f: rod length %.6f, want %.6f", a, got, cfg.RodLength)
		}
	}
}

func TestCorner_AngleForWheelTravel(t *testing.T) {
	left, err := NewCorner(DefaultCorner("fl", 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	right, err := NewCorner(DefaultCorner("fr", -1, 1))
	if err != nil {
		t.Fatal(err)
	}

	// An upward wheel displacement must raise the lever end on both
	// sides, whatever the lever handedness.
	for _, c := range []*Corner{left, right} {
		a := c.AngleForWheelTravel(0.05)
		g, err := c.Solve(a, Pose{})
		if err != nil {
			t.Fatal(err)
		}
		g0, _ := c.Solve(0, Pose{})
		dz := g.LeverEnd.Z() - g0.LeverEnd.Z()
		if dz <= 0 {
			t.Errorf("%s: wheel travel 0.05 lowered lever end by %.4f", c.Config().Name, dz)
		}
	}

	if got := left.AngleForWheelTravel(0); got != 0 {
		t.Errorf("zero travel gave angle %.6f", got)
	}
}

func TestCorner_ConfigValidation(t *testing.T) {
	bad := DefaultCorner("fl", 1, 1)
	bad.LeverLength = 0
	if _, err := NewCorner(bad); !errors.Is(err, dynamo.ErrConfigInvalid) {
		t.Errorf("zero lever length accepted: %v", err)
	}

	bad = DefaultCorner("fl", 1, 1)
	bad.RodFraction = 1.5
	if _, err := NewCorner(bad); !errors.Is(err, dynamo.ErrConfigInvalid) {
		t.Errorf("rod fraction above 1 accepted: %v", err)
	}
}

func TestPoseTransform(t *testing.T) {
	p := Pose{Heave: 1.0}
	v := p.transform(mgl64.Vec3{1, 2, 3})
	if v != (mgl64.Vec3{1, 2, 4}) {
		t.Errorf("heave-only transform = %v", v)
	}

	// Roll by 90 degrees maps +y to +z.
	p = Pose{Roll: math.Pi / 2}
	v = p.transform(mgl64.Vec3{0, 1, 0})
	if math.Abs(v.Y()) > 1e-12 || math.Abs(v.Z()-1) > 1e-12 {
		t.Errorf("roll transform = %v, want (0,0,1)", v)
	}
}
