package pneumo

import (
	"fmt"
	"math"

	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
)

// Gas properties for dry air, SI units throughout.
const (
	RAir  = 287.05 // specific gas constant, J/(kg*K)
	Gamma = 1.4    // heat capacity ratio
	CvAir = RAir / (Gamma - 1)

	PAtm = 101325.0 // Pa
	TAtm = 293.15   // K

	// MinVolume is the floor below which a chamber volume is clamped
	// instead of dividing toward zero.
	MinVolume = 1e-7 // m^3
)

// ThermoMode selects the energy-balance law used on volume change.
type ThermoMode int

const (
	Isothermal ThermoMode = iota
	Adiabatic
)

func (m ThermoMode) String() string {
	switch m {
	case Isothermal:
		return "isothermal"
	case Adiabatic:
		return "adiabatic"
	default:
		return "unknown"
	}
}

func ParseThermoMode(s string) (ThermoMode, error) {
	switch s {
	case "isothermal", "ISOTHERMAL", "":
		return Isothermal, nil
	case "adiabatic", "ADIABATIC":
		return Adiabatic, nil
	default:
		return Isothermal, fmt.Errorf("%w: thermo mode %q", dynamo.ErrConfigInvalid, s)
	}
}

// GasState is the thermodynamic state of one gas volume. All four fields
// satisfy p*V = m*R*T after every mutation. Consumers never write fields
// directly; UpdateVolume and AddMass are the only mutators.
type GasState struct {
	Pressure    float64 // Pa
	Temperature float64 // K
	Volume      float64 // m^3
	Mass        float64 // kg
}

// NewGasState derives the gas mass from pressure, temperature and volume
// via the ideal gas law.
func NewGasState(pressure, temperature, volume float64) *GasState {
	return &GasState{
		Pressure:    pressure,
		Temperature: temperature,
		Volume:      volume,
		Mass:        pressure * volume / (RAir * temperature),
	}
}

// Atmosphere returns a gas state at standard conditions with the given
// nominal volume.
func Atmosphere(volume float64) *GasState {
	return NewGasState(PAtm, TAtm, volume)
}

// Density returns the current gas density in kg/m^3.
func (g *GasState) Density() float64 {
	if g.Volume <= 0 {
		return 0
	}
	return g.Mass / g.Volume
}

// LawResidual returns the relative residual of the ideal gas law,
// |pV - mRT| / pV. Used by tests and sanity checks.
func (g *GasState) LawResidual() float64 {
	pv := g.Pressure * g.Volume
	if pv == 0 {
		return 0
	}
	return math.Abs(pv-g.Mass*RAir*g.Temperature) / pv
}

// UpdateVolume changes the chamber volume and recomputes pressure and
// temperature under the selected process law. Volumes at or below the
// floor are clamped and reported as ErrDegenerateVolume; the state is
// still updated with the clamped volume, so callers may treat the error
// as a recoverable flag.
func (g *GasState) UpdateVolume(vNew float64, mode ThermoMode) error {
	var degenerate bool
	if vNew < MinVolume {
		vNew = MinVolume
		degenerate = true
	}

	switch mode {
	case Adiabatic:
		// Reversible adiabatic: T*V^(gamma-1) = const.
		g.Temperature *= math.Pow(g.Volume/vNew, Gamma-1)
	default:
		// Isothermal: temperature unchanged.
	}

	g.Volume = vNew
	g.Pressure = g.Mass * RAir * g.Temperature / g.Volume

	if degenerate {
		return dynamo.ErrDegenerateVolume
	}
	return nil
}

// AddMass transfers dm kilograms of gas into (dm > 0) or out of (dm < 0)
// the chamber. Inflow mixes temperatures mass-weighted; outflow leaves
// the remaining gas temperature unchanged. A transfer that would leave
// negative mass is a fatal precondition violation and mutates nothing.
func (g *GasState) AddMass(dm, tIn float64) error {
	mNew := g.Mass + dm
	if mNew < 0 {
		return fmt.Errorf("%w: %.6g kg after adding %.6g", dynamo.ErrNegativeMass, mNew, dm)
	}

	if dm > 0 && mNew > 0 {
		g.Temperature = (g.Mass*g.Temperature + dm*tIn) / mNew
	}
	g.Mass = mNew
	g.Pressure = g.Mass * RAir * g.Temperature / g.Volume
	return nil
}

// Clone returns an independent copy, used when building snapshots.
func (g *GasState) Clone() GasState {
	return *g
}
