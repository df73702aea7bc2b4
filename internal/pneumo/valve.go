package pneumo

import "math"

// Default valve characteristics. Cracking/reseat pair gives the
// hysteresis band that prevents open/close chatter near the threshold.
const (
	DefaultCracking  = 12000.0 // Pa
	DefaultReseat    = 6000.0  // Pa
	DefaultCd        = 0.62
	DefaultOrifice   = 7.0e-6 // m^2, ~3 mm bore
	DefaultReliefSet = 6.0e5  // Pa absolute
	DefaultReliefMod = 5.0e4  // Pa, proportional modulation band
)

// Valve is one directional flow element. Update advances the open/closed
// state exactly once per simulation step; Flow then computes the mass
// flow rate for that step without re-evaluating the transition.
type Valve interface {
	Name() string
	Update(pUp, pDown float64)
	Flow(pUp, pDown, rhoUp float64) float64
	IsOpen() bool
}

// orificeFlow is the compressible orifice equation, mdot = Cd*A*sqrt(2*rho*dp),
// clamped to zero for non-positive differentials so unidirectional valves
// never produce imaginary results.
func orificeFlow(cd, area, rho, dp float64) float64 {
	if dp <= 0 || rho <= 0 {
		return 0
	}
	return cd * area * math.Sqrt(2*rho*dp)
}

// CheckValve opens when the upstream-downstream differential exceeds the
// cracking pressure and closes only when it falls below the reseat
// pressure, which must be strictly lower.
type CheckValve struct {
	name     string
	Cracking float64 // Pa
	Reseat   float64 // Pa
	Cd       float64
	Area     float64 // m^2

	open bool
}

func NewCheckValve(name string, cracking, reseat float64) *CheckValve {
	if reseat >= cracking {
		reseat = cracking / 2
	}
	return &CheckValve{
		name:     name,
		Cracking: cracking,
		Reseat:   reseat,
		Cd:       DefaultCd,
		Area:     DefaultOrifice,
	}
}

func (v *CheckValve) Name() string { return v.name }
func (v *CheckValve) IsOpen() bool { return v.open }

func (v *CheckValve) Update(pUp, pDown float64) {
	dp := pUp - pDown
	if !v.open {
		if dp > v.Cracking {
			v.open = true
		}
		return
	}
	if dp < v.Reseat {
		v.open = false
	}
}

func (v *CheckValve) Flow(pUp, pDown, rhoUp float64) float64 {
	if !v.open {
		return 0
	}
	return orificeFlow(v.Cd, v.Area, rhoUp, pUp-pDown)
}

// ReliefValve opens above an absolute upstream setpoint and modulates the
// flow fraction linearly across the modulation band, reaching the full
// orifice flow at Setpoint+ModBand.
type ReliefValve struct {
	name     string
	Setpoint float64 // Pa absolute
	ModBand  float64 // Pa
	Cd       float64
	Area     float64 // m^2

	open bool
}

func NewReliefValve(name string, setpoint, modBand float64) *ReliefValve {
	if modBand <= 0 {
		modBand = DefaultReliefMod
	}
	return &ReliefValve{
		name:     name,
		Setpoint: setpoint,
		ModBand:  modBand,
		Cd:       DefaultCd,
		Area:     DefaultOrifice,
	}
}

func (v *ReliefValve) Name() string { return v.name }
func (v *ReliefValve) IsOpen() bool { return v.open }

func (v *ReliefValve) Update(pUp, pDown float64) {
	v.open = pUp > v.Setpoint
}

func (v *ReliefValve) Flow(pUp, pDown, rhoUp float64) float64 {
	if !v.open {
		return 0
	}
	frac := (pUp - v.Setpoint) / v.ModBand
	if frac > 1 {
		frac = 1
	}
	if frac <= 0 {
		return 0
	}
	return frac * orificeFlow(v.Cd, v.Area, rhoUp, pUp-pDown)
}
