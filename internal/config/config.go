package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBlocks          = 10
	DefaultKp              = 1.0
	DefaultKc              = 0.4
	DefaultFrictionD       = 10.0
	DefaultVe              = 1.0
	DefaultVEpsilon        = 1e-3
	DefaultDt              = 1e-5
	DefaultBlockWidth      = 3.0
	DefaultRandomSteps     = 20
	DefaultMaxSubsteps     = 200000
	DefaultHistoryCapacity = 4096
	DefaultDisplayScale    = 100.0
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

type Scheme string

const (
	Euler      Scheme = "euler"
	RungeKutta Scheme = "rk4"
	Leapfrog   Scheme = "leapfrog"
)

type Distribution string

const (
	Zero     Distribution = "zero"
	Uniform  Distribution = "uniform"
	Binomial Distribution = "binomial"
)

// Plot selects which energy series are recorded.
type Plot string

const (
	PlotNone      Plot = "none"
	PlotKinetic   Plot = "kinetic"
	PlotPotential Plot = "potential"
	PlotAll       Plot = "all"
)

func (p Plot) Kinetic() bool   { return p == PlotKinetic || p == PlotAll }
func (p Plot) Potential() bool { return p == PlotPotential || p == PlotAll }

type Config struct {
	Blocks       int          `yaml:"blocks"`
	Kp           float64      `yaml:"k_p"`
	Kc           float64      `yaml:"k_c"`
	FrictionD    float64      `yaml:"friction_d"`
	Ve           float64      `yaml:"v_e"`
	VEpsilon     float64      `yaml:"v_epsilon"`
	Dt           float64      `yaml:"dt"`
	Integrator   Scheme       `yaml:"integrator"`
	Distribution Distribution `yaml:"distribution"`
	Plot         Plot         `yaml:"plot"`

	BlockWidth      float64 `yaml:"block_width"`
	RandomSteps     int     `yaml:"random_steps"`
	Seed            uint64  `yaml:"seed"`
	MaxSubsteps     int     `yaml:"max_substeps"`
	HistoryCapacity int     `yaml:"history_capacity"`
	DisplayScale    float64 `yaml:"display_scale"`
}

func DefaultConfig() *Config {
	return &Config{
		Blocks:          DefaultBlocks,
		Kp:              DefaultKp,
		Kc:              DefaultKc,
		FrictionD:       DefaultFrictionD,
		Ve:              DefaultVe,
		VEpsilon:        DefaultVEpsilon,
		Dt:              DefaultDt,
		Integrator:      Leapfrog,
		Distribution:    Binomial,
		Plot:            PlotAll,
		BlockWidth:      DefaultBlockWidth,
		RandomSteps:     DefaultRandomSteps,
		MaxSubsteps:     DefaultMaxSubsteps,
		HistoryCapacity: DefaultHistoryCapacity,
		DisplayScale:    DefaultDisplayScale,
	}
}

// Load reads a YAML file on top of DefaultConfig and validates the result.
func Load(path string) (*Config, error) {
	return LoadOnto(DefaultConfig(), path)
}

// LoadOnto reads a YAML file on top of a copy of base. Keys missing from
// the file keep base's values.
func LoadOnto(base *Config, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

func (c *Config) Validate() error {
	if c.Blocks <= 0 {
		return invalid("blocks must be positive, got %d", c.Blocks)
	}
	if !positive(c.Dt) {
		return invalid("dt must be positive, got %g", c.Dt)
	}
	if !positive(c.BlockWidth) {
		return invalid("block_width must be positive, got %g", c.BlockWidth)
	}
	if !(c.VEpsilon >= 0) || math.IsInf(c.VEpsilon, 0) {
		return invalid("v_epsilon must not be negative, got %g", c.VEpsilon)
	}
	if c.RandomSteps <= 0 {
		return invalid("random_steps must be positive, got %d", c.RandomSteps)
	}
	if c.MaxSubsteps < 0 {
		return invalid("max_substeps must not be negative, got %d", c.MaxSubsteps)
	}
	if c.HistoryCapacity <= 0 {
		return invalid("history_capacity must be positive, got %d", c.HistoryCapacity)
	}
	switch c.Integrator {
	case Euler, RungeKutta, Leapfrog:
	default:
		return invalid("unknown integrator %q", c.Integrator)
	}
	switch c.Distribution {
	case Zero, Uniform, Binomial:
	default:
		return invalid("unknown distribution %q", c.Distribution)
	}
	switch c.Plot {
	case PlotNone, PlotKinetic, PlotPotential, PlotAll:
	default:
		return invalid("unknown plot %q", c.Plot)
	}
	return nil
}

// positive rejects NaN and Inf along with non-positive values.
func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}
