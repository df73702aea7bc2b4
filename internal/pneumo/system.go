package pneumo

import (
	"fmt"

	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
)

// VolumeMode selects how the receiver volume is determined.
type VolumeMode int

const (
	// VolumeManual uses the configured receiver volume directly.
	VolumeManual VolumeMode = iota
	// VolumeGeometric derives the receiver volume from the base vessel
	// plus the internal volume of every connected receiver line.
	VolumeGeometric
)

func (m VolumeMode) String() string {
	switch m {
	case VolumeManual:
		return "manual"
	case VolumeGeometric:
		return "geometric"
	default:
		return "unknown"
	}
}

func ParseVolumeMode(s string) (VolumeMode, error) {
	switch s {
	case "manual", "MANUAL", "":
		return VolumeManual, nil
	case "geometric", "GEOMETRIC":
		return VolumeGeometric, nil
	default:
		return VolumeManual, fmt.Errorf("%w: volume mode %q", dynamo.ErrConfigInvalid, s)
	}
}

// CylinderSpec holds the fixed geometry of one pneumatic cylinder.
type CylinderSpec struct {
	AreaHead float64 // m^2
	AreaRod  float64 // m^2, annulus on the rod side
	Stroke   float64 // m, full mechanical stroke
	DeadHead float64 // m^3, head-side volume at zero stroke
	DeadRod  float64 // m^3, rod-side volume at full stroke
}

// Validate rejects non-physical cylinder geometry.
func (s CylinderSpec) Validate() error {
	if s.AreaHead <= 0 || s.AreaRod <= 0 || s.AreaRod >= s.AreaHead {
		return fmt.Errorf("%w: cylinder areas head=%.3g rod=%.3g", dynamo.ErrConfigInvalid, s.AreaHead, s.AreaRod)
	}
	if s.Stroke <= 0 {
		return fmt.Errorf("%w: cylinder stroke %.3g", dynamo.ErrConfigInvalid, s.Stroke)
	}
	if s.DeadHead < MinVolume || s.DeadRod < MinVolume {
		return fmt.Errorf("%w: cylinder dead volumes below floor", dynamo.ErrConfigInvalid)
	}
	return nil
}

// Config are the pneumatic parameters consumed at system construction.
type Config struct {
	Cylinder CylinderSpec

	InitPressure    float64 // Pa
	InitTemperature float64 // K

	ReceiverVolume float64 // m^3, base vessel volume
	ReceiverMin    float64 // m^3
	ReceiverMax    float64 // m^3
	VolumeMode     VolumeMode

	Thermo        ThermoMode
	IsolationOpen bool

	Cracking       float64 // Pa
	Reseat         float64 // Pa
	ReliefSetpoint float64 // Pa absolute
	ReliefModBand  float64 // Pa

	LineLength float64 // m, receiver line length per corner
	LineBore   float64 // m^2
}

// DefaultPneumoConfig returns a plausible light-truck setup.
func DefaultPneumoConfig() Config {
	return Config{
		Cylinder: CylinderSpec{
			AreaHead: 8.0e-3, // ~100 mm bore
			AreaRod:  5.5e-3,
			Stroke:   0.30,
			DeadHead: 2.0e-4,
			DeadRod:  2.0e-4,
		},
		InitPressure:    3.0e5,
		InitTemperature: TAtm,
		ReceiverVolume:  0.02,
		ReceiverMin:     0.005,
		ReceiverMax:     0.05,
		VolumeMode:      VolumeManual,
		Thermo:          Isothermal,
		IsolationOpen:   true,
		Cracking:        DefaultCracking,
		Reseat:          DefaultReseat,
		ReliefSetpoint:  DefaultReliefSet,
		ReliefModBand:   DefaultReliefMod,
		LineLength:      2.0,
		LineBore:        1.2e-4,
	}
}

// CornerNames index the four suspension corners everywhere in the engine.
var CornerNames = [4]string{"fl", "fr", "rl", "rr"}

// Corner owns the head/rod chamber pair of one cylinder.
type Corner struct {
	Name   string
	Head   *GasState
	Rod    *GasState
	spec   CylinderSpec
	stroke float64
}

func newCorner(name string, cfg Config) *Corner {
	spec := cfg.Cylinder
	s0 := spec.Stroke / 2
	c := &Corner{
		Name:   name,
		spec:   spec,
		stroke: s0,
	}
	// Head side carries the working pressure; the rod side breathes to
	// atmosphere and starts there.
	c.Head = NewGasState(cfg.InitPressure, cfg.InitTemperature, spec.DeadHead+spec.AreaHead*s0)
	c.Rod = NewGasState(PAtm, cfg.InitTemperature, spec.DeadRod+spec.AreaRod*(spec.Stroke-s0))
	return c
}

// Stroke returns the current piston position, 0 at full retraction.
func (c *Corner) Stroke() float64 { return c.stroke }

// setStroke moves the piston and updates both chamber volumes under the
// given thermo mode. Degenerate-volume clamps are recoverable and
// reported through the returned flag.
func (c *Corner) setStroke(s float64, mode ThermoMode) (degenerate bool, err error) {
	if s < 0 {
		s = 0
	}
	if s > c.spec.Stroke {
		s = c.spec.Stroke
	}
	c.stroke = s

	if e := c.Head.UpdateVolume(c.spec.DeadHead+c.spec.AreaHead*s, mode); e != nil {
		if e != dynamo.ErrDegenerateVolume {
			return false, e
		}
		degenerate = true
	}
	if e := c.Rod.UpdateVolume(c.spec.DeadRod+c.spec.AreaRod*(c.spec.Stroke-s), mode); e != nil {
		if e != dynamo.ErrDegenerateVolume {
			return false, e
		}
		degenerate = true
	}
	return degenerate, nil
}

// Force is the net cylinder force on the lever, extension positive.
func (c *Corner) Force() float64 {
	return c.Head.Pressure*c.spec.AreaHead - c.Rod.Pressure*c.spec.AreaRod
}

// System owns the four corners, the shared receiver and the atmosphere
// reference, and orchestrates valve evaluation each step. It is owned
// exclusively by the simulation worker; nothing here is thread-safe.
type System struct {
	Corners  [4]*Corner
	Receiver *GasState

	atmo *GasState
	net  *Network

	thermo        ThermoMode
	volumeMode    VolumeMode
	isolationOpen bool

	receiverMin float64
	receiverMax float64

	// degenerate counts recoverable volume-floor clamps since start.
	degenerate uint64
}

// Validate checks the cylinder geometry, receiver bounds and valve
// thresholds.
func (c Config) Validate() error {
	if err := c.Cylinder.Validate(); err != nil {
		return err
	}
	if c.ReceiverMin <= 0 || c.ReceiverMax <= c.ReceiverMin {
		return fmt.Errorf("%w: receiver bounds [%.3g, %.3g]", dynamo.ErrConfigInvalid, c.ReceiverMin, c.ReceiverMax)
	}
	if c.ReceiverVolume < c.ReceiverMin || c.ReceiverVolume > c.ReceiverMax {
		return fmt.Errorf("%w: receiver volume %.3g outside [%.3g, %.3g]",
			dynamo.ErrConfigInvalid, c.ReceiverVolume, c.ReceiverMin, c.ReceiverMax)
	}
	if c.Reseat >= c.Cracking {
		return fmt.Errorf("%w: reseat %.3g must be below cracking %.3g", dynamo.ErrConfigInvalid, c.Reseat, c.Cracking)
	}
	return nil
}

// NewSystem builds the full four-corner network. Line order (and
// therefore valve evaluation order) is fixed: per corner head<->receiver,
// atmosphere make-up, rod breather pair, then the receiver relief last.
func NewSystem(cfg Config) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &System{
		atmo:          Atmosphere(1.0),
		thermo:        cfg.Thermo,
		volumeMode:    cfg.VolumeMode,
		isolationOpen: cfg.IsolationOpen,
		receiverMin:   cfg.ReceiverMin,
		receiverMax:   cfg.ReceiverMax,
	}

	var lines []*Line
	for i, name := range CornerNames {
		c := newCorner(name, cfg)
		s.Corners[i] = c

		lines = append(lines,
			&Line{
				Name:     name + "_head_to_recv",
				Valve:    NewCheckValve(name+"_head_to_recv", cfg.Cracking, cfg.Reseat),
				From:     c.Head,
				Length:   cfg.LineLength,
				Bore:     cfg.LineBore,
				Receiver: true,
			},
			&Line{
				Name:     "recv_to_" + name + "_head",
				Valve:    NewCheckValve("recv_to_"+name+"_head", cfg.Cracking, cfg.Reseat),
				To:       c.Head,
				Length:   cfg.LineLength,
				Bore:     cfg.LineBore,
				Receiver: true,
			},
			&Line{
				Name:  "atmo_to_" + name + "_head",
				Valve: NewCheckValve("atmo_to_"+name+"_head", cfg.Cracking, cfg.Reseat),
				From:  s.atmo,
				To:    c.Head,
			},
			&Line{
				Name:  name + "_rod_to_atmo",
				Valve: NewCheckValve(name+"_rod_to_atmo", cfg.Cracking, cfg.Reseat),
				From:  c.Rod,
				To:    s.atmo,
			},
			&Line{
				Name:  "atmo_to_" + name + "_rod",
				Valve: NewCheckValve("atmo_to_"+name+"_rod", cfg.Cracking, cfg.Reseat),
				From:  s.atmo,
				To:    c.Rod,
			},
		)
	}

	recvVolume := cfg.ReceiverVolume
	if cfg.VolumeMode == VolumeGeometric {
		for _, l := range lines {
			if l.Receiver {
				recvVolume += l.TubeVolume()
			}
		}
	}
	s.Receiver = NewGasState(cfg.InitPressure, cfg.InitTemperature, recvVolume)

	// Receiver endpoints could not be wired until the receiver existed.
	for _, l := range lines {
		if l.Receiver {
			if l.From == nil {
				l.From = s.Receiver
			}
			if l.To == nil {
				l.To = s.Receiver
			}
		}
	}

	lines = append(lines, &Line{
		Name:  "recv_relief",
		Valve: NewReliefValve("recv_relief", cfg.ReliefSetpoint, cfg.ReliefModBand),
		From:  s.Receiver,
		To:    s.atmo,
	})

	s.net = NewNetwork(lines...)
	return s, nil
}

// Step applies the new piston strokes, evaluates the valve network once,
// and returns the net cylinder force per corner. Recoverable conditions
// are counted; only fatal errors are returned.
func (s *System) Step(dt float64, strokes [4]float64) ([4]float64, error) {
	var forces [4]float64

	// The atmosphere is an infinite reservoir: restore standard
	// conditions so breather flows never deplete it.
	*s.atmo = *Atmosphere(1.0)

	for i, c := range s.Corners {
		deg, err := c.setStroke(strokes[i], s.thermo)
		if err != nil {
			return forces, err
		}
		if deg {
			s.degenerate++
		}
	}

	if err := s.net.Evaluate(dt, s.isolationOpen); err != nil {
		return forces, err
	}

	for i, c := range s.Corners {
		forces[i] = c.Force()
	}
	return forces, nil
}

// Network exposes the valve network for snapshots and tests.
func (s *System) Network() *Network { return s.net }

// DegenerateCount reports recoverable volume-floor clamps since start.
func (s *System) DegenerateCount() uint64 { return s.degenerate }

func (s *System) ThermoMode() ThermoMode     { return s.thermo }
func (s *System) SetThermoMode(m ThermoMode) { s.thermo = m }

func (s *System) IsolationOpen() bool        { return s.isolationOpen }
func (s *System) SetIsolationOpen(open bool) { s.isolationOpen = open }

// SetReceiverVolume revalidates against the configured bounds and, when
// valid, applies the change isothermally so receiver pressure follows.
func (s *System) SetReceiverVolume(v float64) error {
	if v < s.receiverMin || v > s.receiverMax {
		return fmt.Errorf("%w: receiver volume %.3g outside [%.3g, %.3g]",
			dynamo.ErrConfigInvalid, v, s.receiverMin, s.receiverMax)
	}
	if err := s.Receiver.UpdateVolume(v, Isothermal); err != nil && err != dynamo.ErrDegenerateVolume {
		return err
	}
	return nil
}

// SetValveThresholds retunes every check valve in the network. Reseat
// must remain strictly below cracking.
func (s *System) SetValveThresholds(cracking, reseat float64) error {
	if reseat >= cracking || reseat <= 0 {
		return fmt.Errorf("%w: reseat %.3g / cracking %.3g", dynamo.ErrConfigInvalid, reseat, cracking)
	}
	for _, l := range s.net.Lines {
		if cv, ok := l.Valve.(*CheckValve); ok {
			cv.Cracking = cracking
			cv.Reseat = reseat
		}
	}
	return nil
}

// SetReliefSetpoint retunes the receiver relief valve.
func (s *System) SetReliefSetpoint(setpoint float64) error {
	if setpoint <= PAtm {
		return fmt.Errorf("%w: relief setpoint %.3g at or below atmospheric", dynamo.ErrConfigInvalid, setpoint)
	}
	for _, l := range s.net.Lines {
		if rv, ok := l.Valve.(*ReliefValve); ok {
			rv.Setpoint = setpoint
		}
	}
	return nil
}
