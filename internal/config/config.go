package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/barmaleii77-hub/pneumostab/internal/chassis"
	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
	"github.com/barmaleii77-hub/pneumostab/internal/pneumo"
	"github.com/barmaleii77-hub/pneumostab/internal/road"
)

const (
	DefaultPhysicsDt        = 0.001
	DefaultRenderVsyncHz    = 60.0
	DefaultMaxStepsPerFrame = 10
	DefaultMaxFrameTime     = 0.050
	DefaultDuration         = 10.0
)

type Config struct {
	Sim     SimConfig     `yaml:"sim"`
	Pneumo  PneumoConfig  `yaml:"pneumo"`
	Chassis ChassisConfig `yaml:"chassis"`
	Road    road.Config   `yaml:"road"`
	Lever   LeverConfig   `yaml:"lever"`
}

// SimConfig sets the real-time loop timing.
type SimConfig struct {
	PhysicsDt        float64 `yaml:"physics_dt"`      // s
	RenderVsyncHz    float64 `yaml:"render_vsync_hz"` // Hz
	MaxStepsPerFrame int     `yaml:"max_steps_per_frame"`
	MaxFrameTime     float64 `yaml:"max_frame_time"` // s
	Duration         float64 `yaml:"duration"`       // s, batch runs only
}

type PneumoConfig struct {
	ThermoMode      string  `yaml:"thermo_mode"` // isothermal or adiabatic
	VolumeMode      string  `yaml:"volume_mode"` // manual or geometric
	InitPressure    float64 `yaml:"init_pressure"`
	InitTemperature float64 `yaml:"init_temperature"`
	ReceiverVolume  float64 `yaml:"receiver_volume"`
	ReceiverMin     float64 `yaml:"receiver_min"`
	ReceiverMax     float64 `yaml:"receiver_max"`
	IsolationOpen   bool    `yaml:"isolation_open"`
	Cracking        float64 `yaml:"cracking"`
	Reseat          float64 `yaml:"reseat"`
	ReliefSetpoint  float64 `yaml:"relief_setpoint"`
	ReliefModBand   float64 `yaml:"relief_mod_band"`
	LineLength      float64 `yaml:"line_length"`
	LineBore        float64 `yaml:"line_bore"`
}

type ChassisConfig struct {
	Mass      float64 `yaml:"mass"`
	Ixx       float64 `yaml:"ixx"`
	Iyy       float64 `yaml:"iyy"`
	CHeave    float64 `yaml:"c_heave"`
	CRoll     float64 `yaml:"c_roll"`
	CPitch    float64 `yaml:"c_pitch"`
	Track     float64 `yaml:"track"`
	Wheelbase float64 `yaml:"wheelbase"`
}

// LeverConfig carries the scalar suspension geometry shared by all four
// corners; positions follow the built-in mirrored layout.
type LeverConfig struct {
	LeverLength  float64 `yaml:"lever_length"`
	RodFraction  float64 `yaml:"rod_fraction"`
	RodLength    float64 `yaml:"rod_length"`
	MaxAngle     float64 `yaml:"max_angle"`
	SafetyMargin float64 `yaml:"safety_margin"`
}

func DefaultConfig() *Config {
	pn := pneumo.DefaultPneumoConfig()
	ch := chassis.DefaultParams()
	return &Config{
		Sim: SimConfig{
			PhysicsDt:        DefaultPhysicsDt,
			RenderVsyncHz:    DefaultRenderVsyncHz,
			MaxStepsPerFrame: DefaultMaxStepsPerFrame,
			MaxFrameTime:     DefaultMaxFrameTime,
			Duration:         DefaultDuration,
		},
		Pneumo: PneumoConfig{
			ThermoMode:      pn.Thermo.String(),
			VolumeMode:      pn.VolumeMode.String(),
			InitPressure:    pn.InitPressure,
			InitTemperature: pn.InitTemperature,
			ReceiverVolume:  pn.ReceiverVolume,
			ReceiverMin:     pn.ReceiverMin,
			ReceiverMax:     pn.ReceiverMax,
			IsolationOpen:   pn.IsolationOpen,
			Cracking:        pn.Cracking,
			Reseat:          pn.Reseat,
			ReliefSetpoint:  pn.ReliefSetpoint,
			ReliefModBand:   pn.ReliefModBand,
			LineLength:      pn.LineLength,
			LineBore:        pn.LineBore,
		},
		Chassis: ChassisConfig{
			Mass:      ch.Mass,
			Ixx:       ch.Ixx,
			Iyy:       ch.Iyy,
			CHeave:    ch.CHeave,
			CRoll:     ch.CRoll,
			CPitch:    ch.CPitch,
			Track:     ch.Track,
			Wheelbase: ch.Wheelbase,
		},
		Road: road.DefaultConfig(),
		Lever: LeverConfig{
			LeverLength:  0.45,
			RodFraction:  0.6,
			RodLength:    0.22,
			MaxAngle:     0.5,
			SafetyMargin: 0.1,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Sim.PhysicsDt <= 0 {
		return fmt.Errorf("%w: physics_dt %.3g", dynamo.ErrConfigInvalid, c.Sim.PhysicsDt)
	}
	if c.Sim.RenderVsyncHz <= 0 {
		return fmt.Errorf("%w: render_vsync_hz %.3g", dynamo.ErrConfigInvalid, c.Sim.RenderVsyncHz)
	}
	if c.Sim.MaxStepsPerFrame < 1 {
		return fmt.Errorf("%w: max_steps_per_frame %d", dynamo.ErrConfigInvalid, c.Sim.MaxStepsPerFrame)
	}
	if c.Sim.MaxFrameTime <= 0 {
		return fmt.Errorf("%w: max_frame_time %.3g", dynamo.ErrConfigInvalid, c.Sim.MaxFrameTime)
	}
	if _, err := pneumo.ParseThermoMode(c.Pneumo.ThermoMode); err != nil {
		return err
	}
	if _, err := pneumo.ParseVolumeMode(c.Pneumo.VolumeMode); err != nil {
		return err
	}
	if c.Lever.LeverLength <= 0 || c.Lever.RodFraction <= 0 || c.Lever.RodFraction > 1 {
		return fmt.Errorf("%w: lever_length %.3g rod_fraction %.3g",
			dynamo.ErrConfigInvalid, c.Lever.LeverLength, c.Lever.RodFraction)
	}
	if c.Lever.MaxAngle <= 0 || c.Lever.SafetyMargin < 0 {
		return fmt.Errorf("%w: max_angle %.3g safety_margin %.3g",
			dynamo.ErrConfigInvalid, c.Lever.MaxAngle, c.Lever.SafetyMargin)
	}
	if err := c.Road.Validate(); err != nil {
		return err
	}
	if err := c.BuildChassis().Validate(); err != nil {
		return err
	}
	if _, err := c.BuildPneumo(); err != nil {
		return err
	}
	return nil
}

// BuildPneumo converts the yaml section to the simulation config.
func (c *Config) BuildPneumo() (pneumo.Config, error) {
	cfg := pneumo.DefaultPneumoConfig()
	tm, err := pneumo.ParseThermoMode(c.Pneumo.ThermoMode)
	if err != nil {
		return cfg, err
	}
	vm, err := pneumo.ParseVolumeMode(c.Pneumo.VolumeMode)
	if err != nil {
		return cfg, err
	}
	cfg.Thermo = tm
	cfg.VolumeMode = vm
	cfg.InitPressure = c.Pneumo.InitPressure
	cfg.InitTemperature = c.Pneumo.InitTemperature
	cfg.ReceiverVolume = c.Pneumo.ReceiverVolume
	cfg.ReceiverMin = c.Pneumo.ReceiverMin
	cfg.ReceiverMax = c.Pneumo.ReceiverMax
	cfg.IsolationOpen = c.Pneumo.IsolationOpen
	cfg.Cracking = c.Pneumo.Cracking
	cfg.Reseat = c.Pneumo.Reseat
	cfg.ReliefSetpoint = c.Pneumo.ReliefSetpoint
	cfg.ReliefModBand = c.Pneumo.ReliefModBand
	cfg.LineLength = c.Pneumo.LineLength
	cfg.LineBore = c.Pneumo.LineBore
	return cfg, cfg.Validate()
}

func (c *Config) BuildChassis() chassis.Params {
	return chassis.Params{
		Mass:      c.Chassis.Mass,
		Ixx:       c.Chassis.Ixx,
		Iyy:       c.Chassis.Iyy,
		CHeave:    c.Chassis.CHeave,
		CRoll:     c.Chassis.CRoll,
		CPitch:    c.Chassis.CPitch,
		Track:     c.Chassis.Track,
		Wheelbase: c.Chassis.Wheelbase,
	}
}
