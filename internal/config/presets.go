package config

import "math"

// Presets are named driving scenarios selectable from the CLI.
var Presets = map[string]func() *Config{
	"smooth": func() *Config {
		cfg := DefaultConfig()
		cfg.Road.Amplitude = 0.005
		cfg.Road.Frequency = 0.8
		return cfg
	},
	"pothole": func() *Config {
		cfg := DefaultConfig()
		cfg.Road.Amplitude = 0.04
		cfg.Road.Frequency = 0.5
		// Only the right track hits the hole.
		cfg.Road.WheelPhase = [4]float64{math.Pi, 0, math.Pi, -math.Pi / 2}
		return cfg
	},
	"washboard": func() *Config {
		cfg := DefaultConfig()
		cfg.Road.Amplitude = 0.012
		cfg.Road.Frequency = 6.0
		cfg.Road.WheelPhase = [4]float64{0, 0, -math.Pi, -math.Pi}
		return cfg
	},
	"resonance": func() *Config {
		cfg := DefaultConfig()
		// Near the heave natural frequency of the default body.
		cfg.Road.Amplitude = 0.02
		cfg.Road.Frequency = 1.2
		cfg.Sim.Duration = 30.0
		return cfg
	},
	"isolated": func() *Config {
		cfg := DefaultConfig()
		cfg.Pneumo.IsolationOpen = false
		cfg.Road.Amplitude = 0.02
		cfg.Road.Frequency = 1.2
		return cfg
	},
	"adiabatic": func() *Config {
		cfg := DefaultConfig()
		cfg.Pneumo.ThermoMode = "adiabatic"
		cfg.Pneumo.VolumeMode = "geometric"
		return cfg
	},
}

func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
