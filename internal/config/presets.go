package config

import "sort"

var Presets = map[string]func() *Config{
	// The stock earthquake run: ten blocks, binomial roughness, leapfrog.
	"default": DefaultConfig,
	"smooth": func() *Config {
		cfg := DefaultConfig()
		cfg.Distribution = Zero
		return cfg
	},
	"rough": func() *Config {
		cfg := DefaultConfig()
		cfg.Distribution = Uniform
		cfg.Blocks = 20
		return cfg
	},
	"rk4": func() *Config {
		cfg := DefaultConfig()
		cfg.Integrator = RungeKutta
		return cfg
	},
	"euler": func() *Config {
		cfg := DefaultConfig()
		cfg.Integrator = Euler
		return cfg
	},
	"fault": func() *Config {
		cfg := DefaultConfig()
		cfg.Blocks = 40
		cfg.Kc = 2.0
		cfg.Dt = 5e-5
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
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
	sort.Strings(names)
	return names
}
