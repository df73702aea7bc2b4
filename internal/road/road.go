// Package road generates deterministic wheel displacement profiles
// used as the kinematic input to the suspension.
package road

import (
	"fmt"
	"math"

	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
)

// Wheel is the excitation sample at one corner.
type Wheel struct {
	Disp float64 // m, vertical displacement of the contact point
	Vel  float64 // m/s, analytic time derivative of Disp
}

// Config describes a sinusoidal road profile. Per-wheel phases model
// the wheelbase delay and left/right offset of a real surface.
type Config struct {
	Amplitude  float64    `yaml:"amplitude"`   // m
	Frequency  float64    `yaml:"frequency"`   // Hz
	Phase      float64    `yaml:"phase"`       // rad, global offset
	WheelPhase [4]float64 `yaml:"wheel_phase"` // rad, FL, FR, RL, RR
}

func DefaultConfig() Config {
	return Config{
		Amplitude: 0.02,
		Frequency: 1.5,
		// Rear wheels trail the front by a quarter period.
		WheelPhase: [4]float64{0, 0, -math.Pi / 2, -math.Pi / 2},
	}
}

func (c Config) Validate() error {
	if c.Amplitude < 0 {
		return fmt.Errorf("%w: road amplitude %.3g", dynamo.ErrConfigInvalid, c.Amplitude)
	}
	if c.Frequency < 0 {
		return fmt.Errorf("%w: road frequency %.3g", dynamo.ErrConfigInvalid, c.Frequency)
	}
	return nil
}

// Excitation evaluates a Config at arbitrary times. Sampling is a pure
// function of t, so repeated calls at the same instant agree exactly.
type Excitation struct {
	cfg Config
}

func NewExcitation(cfg Config) (*Excitation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Excitation{cfg: cfg}, nil
}

func (e *Excitation) Config() Config { return e.cfg }

// SetConfig swaps the profile. Takes effect on the next Sample call.
func (e *Excitation) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.cfg = cfg
	return nil
}

// Sample returns the four wheel excitations at time t, ordered FL, FR,
// RL, RR.
func (e *Excitation) Sample(t float64) [4]Wheel {
	var out [4]Wheel
	omega := 2 * math.Pi * e.cfg.Frequency
	for i := 0; i < 4; i++ {
		arg := omega*t + e.cfg.Phase + e.cfg.WheelPhase[i]
		out[i] = Wheel{
			Disp: e.cfg.Amplitude * math.Sin(arg),
			Vel:  e.cfg.Amplitude * omega * math.Cos(arg),
		}
	}
	return out
}
