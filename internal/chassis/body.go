package chassis

import (
	"fmt"

	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
)

// Default sprung-body parameters, a loaded light truck.
const (
	DefaultMass      = 1800.0 // kg
	DefaultIxx       = 550.0  // kg*m^2, roll
	DefaultIyy       = 2100.0 // kg*m^2, pitch
	DefaultCHeave    = 3500.0 // N*s/m
	DefaultCRoll     = 900.0  // N*m*s/rad
	DefaultCPitch    = 1600.0 // N*m*s/rad
	DefaultTrack     = 1.6    // m
	DefaultWheelbase = 3.2    // m
)

// Params are the rigid-body constants of the sprung chassis.
type Params struct {
	Mass float64 // kg
	Ixx  float64 // kg*m^2, about x (roll)
	Iyy  float64 // kg*m^2, about y (pitch)

	CHeave float64 // N*s/m
	CRoll  float64 // N*m*s/rad
	CPitch float64 // N*m*s/rad

	Track     float64 // m
	Wheelbase float64 // m
}

func DefaultParams() Params {
	return Params{
		Mass:      DefaultMass,
		Ixx:       DefaultIxx,
		Iyy:       DefaultIyy,
		CHeave:    DefaultCHeave,
		CRoll:     DefaultCRoll,
		CPitch:    DefaultCPitch,
		Track:     DefaultTrack,
		Wheelbase: DefaultWheelbase,
	}
}

func (p Params) Validate() error {
	if p.Mass <= 0 || p.Ixx <= 0 || p.Iyy <= 0 {
		return fmt.Errorf("%w: mass %.3g inertia (%.3g, %.3g)", dynamo.ErrConfigInvalid, p.Mass, p.Ixx, p.Iyy)
	}
	if p.Track <= 0 || p.Wheelbase <= 0 {
		return fmt.Errorf("%w: track %.3g wheelbase %.3g", dynamo.ErrConfigInvalid, p.Track, p.Wheelbase)
	}
	return nil
}

// Body is the 3-DOF sprung mass implementing dynamo.System.
//
// State layout: [heave, roll, pitch, heaveVel, rollVel, pitchVel].
// Control layout: corner cylinder forces FL, FR, RL, RR in newtons,
// measured against the static preload so a quiescent system has zero
// net input.
type Body struct {
	p Params

	// preload is the static corner force set captured at startup;
	// the control vector is interpreted relative to it.
	preload [4]float64

	// corner lever arms derived from track and wheelbase, in the order
	// FL, FR, RL, RR. x forward, y left.
	rx [4]float64
	ry [4]float64
}

func NewBody(p Params) (*Body, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	b := &Body{p: p}
	hx := p.Wheelbase / 2
	hy := p.Track / 2
	b.rx = [4]float64{hx, hx, -hx, -hx}
	b.ry = [4]float64{hy, -hy, hy, -hy}
	return b, nil
}

func (b *Body) Params() Params { return b.p }

// SetPreload captures the static corner forces; subsequent control
// vectors act relative to this equilibrium.
func (b *Body) SetPreload(forces [4]float64) {
	b.preload = forces
}

func (b *Body) StateDim() int   { return 6 }
func (b *Body) ControlDim() int { return 4 }

// Derive computes the chassis accelerations. Cylinder forces act
// vertically at the corner positions (the standard half-car coupling):
// heave from the force sum, roll from the lateral moment, pitch from the
// longitudinal moment, each with linear damping.
func (b *Body) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	vH, vR, vP := x[3], x[4], x[5]

	var sumF, rollM, pitchM float64
	for i := 0; i < 4 && i < len(u); i++ {
		f := u[i] - b.preload[i]
		sumF += f
		rollM += b.ry[i] * f
		pitchM += -b.rx[i] * f
	}

	aH := (sumF - b.p.CHeave*vH) / b.p.Mass
	aR := (rollM - b.p.CRoll*vR) / b.p.Ixx
	aP := (pitchM - b.p.CPitch*vP) / b.p.Iyy

	return dynamo.State{vH, vR, vP, aH, aR, aP}
}

// Energy returns the kinetic energy of the sprung mass. The pneumatic
// springs hold the potential side, so this is the mechanical half only.
func (b *Body) Energy(x dynamo.State) float64 {
	vH, vR, vP := x[3], x[4], x[5]
	return 0.5 * (b.p.Mass*vH*vH + b.p.Ixx*vR*vR + b.p.Iyy*vP*vP)
}

func (b *Body) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":      b.p.Mass,
		"ixx":       b.p.Ixx,
		"iyy":       b.p.Iyy,
		"c_heave":   b.p.CHeave,
		"c_roll":    b.p.CRoll,
		"c_pitch":   b.p.CPitch,
		"track":     b.p.Track,
		"wheelbase": b.p.Wheelbase,
	}
}

func (b *Body) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		b.p.Mass = value
	case "ixx":
		b.p.Ixx = value
	case "iyy":
		b.p.Iyy = value
	case "c_heave":
		b.p.CHeave = value
	case "c_roll":
		b.p.CRoll = value
	case "c_pitch":
		b.p.CPitch = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
