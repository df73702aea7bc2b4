package kinematics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
)

// Pose is the chassis attitude applied to every frame-fixed point.
// Axes: x forward, y left, z up. Roll rotates about x, pitch about y.
type Pose struct {
	Heave float64 // m
	Roll  float64 // rad
	Pitch float64 // rad
}

func (p Pose) transform(v mgl64.Vec3) mgl64.Vec3 {
	m := mgl64.Rotate3DX(p.Roll).Mul3(mgl64.Rotate3DY(p.Pitch))
	out := m.Mul3x1(v)
	out[2] += p.Heave
	return out
}

// Config holds the fixed geometry of one suspension corner, frame
// coordinates, SI units.
type Config struct {
	Name string

	Pivot        mgl64.Vec3 // lever hinge on the frame
	LeverAxis    mgl64.Vec3 // unit lever direction at angle zero
	LeverLength  float64    // m
	RodFraction  float64    // rod attachment as fraction of lever length
	CylinderTail mgl64.Vec3 // cylinder tail hinge on the frame
	RodLength    float64    // m, piston to lever attachment

	MaxAngle     float64 // rad, mechanical range +-
	SafetyMargin float64 // rad beyond MaxAngle before flagging

	Stroke float64 // m, full piston stroke

	LeverRadius    float64 // m, capsule radii for interference
	RodRadius      float64
	CylinderRadius float64
	CylinderLength float64 // m, body length from the tail
}

// DefaultCorner returns geometry for one corner; y is mirrored for the
// right side and x for the rear by the caller.
func DefaultCorner(name string, side, end float64) Config {
	return Config{
		Name:           name,
		Pivot:          mgl64.Vec3{1.2 * end, 0.7 * side, 0.0},
		LeverAxis:      mgl64.Vec3{0, side, 0},
		LeverLength:    0.45,
		RodFraction:    0.6,
		CylinderTail:   mgl64.Vec3{1.2 * end, 0.25 * side, 0.42},
		RodLength:      0.22,
		MaxAngle:       0.5,
		SafetyMargin:   0.1,
		Stroke:         0.30,
		LeverRadius:    0.03,
		RodRadius:      0.015,
		CylinderRadius: 0.055,
		CylinderLength: 0.38,
	}
}

func (c Config) Validate() error {
	if c.LeverLength <= 0 || c.RodFraction <= 0 || c.RodFraction > 1 {
		return fmt.Errorf("%w: lever length %.3g, rod fraction %.3g",
			dynamo.ErrConfigInvalid, c.LeverLength, c.RodFraction)
	}
	if c.MaxAngle <= 0 || c.SafetyMargin < 0 {
		return fmt.Errorf("%w: angle range %.3g margin %.3g",
			dynamo.ErrConfigInvalid, c.MaxAngle, c.SafetyMargin)
	}
	if c.Stroke <= 0 || c.RodLength <= 0 {
		return fmt.Errorf("%w: stroke %.3g rod %.3g", dynamo.ErrConfigInvalid, c.Stroke, c.RodLength)
	}
	return nil
}

// Geometry is the solved attachment layout for one corner at one instant.
// Derived quantities only; the authoritative state is the lever angle and
// the fixed Config.
type Geometry struct {
	Name  string
	Angle float64 // rad, after clamping

	Pivot     mgl64.Vec3 // world
	LeverEnd  mgl64.Vec3
	RodAttach mgl64.Vec3
	Tail      mgl64.Vec3
	Piston    mgl64.Vec3

	Stroke float64 // m, piston position in [0, Config.Stroke]

	// Clamped marks a recoverable out-of-range input (flagged when the
	// raw angle exceeded MaxAngle+SafetyMargin).
	Clamped bool
	// Interference reports an advisory capsule overlap, metres; zero
	// when clear.
	Interference float64
}

// Corner solves lever/rod/cylinder positions from a lever angle and the
// chassis pose.
type Corner struct {
	cfg      Config
	dNeutral float64 // tail-to-rod-attach distance at angle 0, zero pose
}

func NewCorner(cfg Config) (*Corner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Corner{cfg: cfg}
	neutral := c.rodAttachAt(0, Pose{})
	c.dNeutral = neutral.Sub(cfg.CylinderTail).Len()
	return c, nil
}

func (c *Corner) Config() Config { return c.cfg }

// rodAttachAt rotates the lever about the x-axis through the pivot.
func (c *Corner) rodAttachAt(angle float64, pose Pose) mgl64.Vec3 {
	arm := c.cfg.LeverAxis.Mul(c.cfg.LeverLength * c.cfg.RodFraction)
	rot := mgl64.Rotate3DX(angle).Mul3x1(arm)
	return pose.transform(c.cfg.Pivot.Add(rot))
}

// Solve computes the corner geometry. Angles beyond the mechanical range
// are clamped; beyond the safety margin the clamp is additionally
// surfaced as ErrGeometryOutOfRange. The returned geometry is valid in
// both cases.
func (c *Corner) Solve(angle float64, pose Pose) (Geometry, error) {
	var err error
	raw := angle
	limit := c.cfg.MaxAngle
	if math.Abs(raw) > limit+c.cfg.SafetyMargin {
		err = fmt.Errorf("%w: %s angle %.4f rad", dynamo.ErrGeometryOutOfRange, c.cfg.Name, raw)
	}
	if angle > limit {
		angle = limit
	} else if angle < -limit {
		angle = -limit
	}

	rot := mgl64.Rotate3DX(angle)
	leverEnd := c.cfg.Pivot.Add(rot.Mul3x1(c.cfg.LeverAxis.Mul(c.cfg.LeverLength)))
	rodAttach := c.cfg.Pivot.Add(rot.Mul3x1(c.cfg.LeverAxis.Mul(c.cfg.LeverLength * c.cfg.RodFraction)))

	g := Geometry{
		Name:      c.cfg.Name,
		Angle:     angle,
		Pivot:     pose.transform(c.cfg.Pivot),
		LeverEnd:  pose.transform(leverEnd),
		RodAttach: pose.transform(rodAttach),
		Tail:      pose.transform(c.cfg.CylinderTail),
		Clamped:   err != nil,
	}

	// Piston sits RodLength up the cylinder axis from the rod
	// attachment; stroke follows the tail distance relative to neutral.
	axis := g.RodAttach.Sub(g.Tail)
	d := axis.Len()
	if d > 1e-12 {
		axis = axis.Mul(1 / d)
	}
	g.Piston = g.RodAttach.Sub(axis.Mul(c.cfg.RodLength))

	stroke := c.cfg.Stroke/2 + (d - c.dNeutral)
	if stroke < 0 {
		stroke = 0
	}
	if stroke > c.cfg.Stroke {
		stroke = c.cfg.Stroke
	}
	g.Stroke = stroke

	g.Interference = c.interference(g)
	return g, err
}

// interference checks the non-adjacent capsule pairs. The rod shares a
// joint with both the lever and the cylinder, so the only pair that can
// foul without a shared joint is lever against cylinder body.
func (c *Corner) interference(g Geometry) float64 {
	lever := Capsule{A: g.Pivot, B: g.LeverEnd, Radius: c.cfg.LeverRadius}
	rod := Capsule{A: g.Piston, B: g.RodAttach, Radius: c.cfg.RodRadius}

	axis := g.RodAttach.Sub(g.Tail)
	if l := axis.Len(); l > 1e-12 {
		axis = axis.Mul(1 / l)
	}
	body := Capsule{
		A:      g.Tail,
		B:      g.Tail.Add(axis.Mul(c.cfg.CylinderLength)),
		Radius: c.cfg.CylinderRadius,
	}

	parts := []Capsule{lever, rod, body}
	adjacent := map[[2]int]bool{
		{0, 1}: true, // lever-rod share the attachment joint
		{1, 2}: true, // rod-cylinder share the piston
	}

	worst := 0.0
	for i := 0; i < len(parts); i++ {
		for j := i + 1; j < len(parts); j++ {
			if adjacent[[2]int{i, j}] {
				continue
			}
			if ov := parts[i].Overlap(parts[j]); ov > worst {
				worst = ov
			}
		}
	}
	return worst
}

// AngleForWheelTravel inverts the lever geometry for a vertical wheel
// displacement at the lever end, the coupling used to turn road
// excitation into a lever angle.
func (c *Corner) AngleForWheelTravel(dz float64) float64 {
	// Rotation about x lifts the lever end by L*axisY*sin(angle), so the
	// sign of the lateral lever arm carries through to the angle.
	arm := c.cfg.LeverLength * c.cfg.LeverAxis.Y()
	if arm == 0 {
		return 0
	}
	r := dz / arm
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return math.Asin(r)
}
