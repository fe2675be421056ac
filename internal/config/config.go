package config

import (
	"fmt"
	"log/slog"
	"maps"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLogLevel    = "info"
	DefaultDataDir     = "artifacts"
	DefaultModel       = "pendulum"
	DefaultTarget      = "native"
	DefaultSweepPoints = 60
	DefaultPlotHeight  = 12
	DefaultIntegrator  = "rk4"
	DefaultDt          = 0.01
	DefaultDuration    = 10.0
)

type Config struct {
	LogLevel  string               `yaml:"log_level"`
	DataDir   string               `yaml:"data_dir"`
	Model     string               `yaml:"model"`
	Target    string               `yaml:"target"`
	Package   string               `yaml:"package"`
	Sparse    bool                 `yaml:"sparse"`
	Observed  bool                 `yaml:"observed"`
	Time      float64              `yaml:"time"`
	Sweep     SweepConfig          `yaml:"sweep"`
	Simulate  SimulateConfig       `yaml:"simulate"`
	Minimize  MinimizeConfig       `yaml:"minimize"`
	Overrides map[string]Overrides `yaml:"overrides"`
}

type SweepConfig struct {
	Points int `yaml:"points"`
	Height int `yaml:"height"`
}

type SimulateConfig struct {
	Integrator string  `yaml:"integrator"`
	Dt         float64 `yaml:"dt"`
	Duration   float64 `yaml:"duration"`
	Adaptive   bool    `yaml:"adaptive"`
	Tolerance  float64 `yaml:"tolerance"`
}

type MinimizeConfig struct {
	GradTol float64 `yaml:"grad_tol"`
	MaxIter int     `yaml:"max_iter"`
}

// Overrides replaces default initial conditions and parameter values by
// qualified symbol name.
type Overrides struct {
	U0 map[string]float64 `yaml:"u0,omitempty"`
	P  map[string]float64 `yaml:"p,omitempty"`
}

// Merge returns o with the entries of other laid over it.
func (o Overrides) Merge(other Overrides) Overrides {
	out := Overrides{U0: map[string]float64{}, P: map[string]float64{}}
	maps.Copy(out.U0, o.U0)
	maps.Copy(out.U0, other.U0)
	maps.Copy(out.P, o.P)
	maps.Copy(out.P, other.P)
	return out
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		DataDir:  DefaultDataDir,
		Model:    DefaultModel,
		Target:   DefaultTarget,
		Package:  "generated",
		Sweep: SweepConfig{
			Points: DefaultSweepPoints,
			Height: DefaultPlotHeight,
		},
		Simulate: SimulateConfig{
			Integrator: DefaultIntegrator,
			Dt:         DefaultDt,
			Duration:   DefaultDuration,
			Tolerance:  1e-6,
		},
		Minimize: MinimizeConfig{
			GradTol: 1e-8,
			MaxIter: 200,
		},
		Overrides: map[string]Overrides{},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return errors.Wrap(os.WriteFile(path, data, 0644), "write config")
}

func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Target {
	case "native", "go":
	default:
		return fmt.Errorf("unknown target %q (want native or go)", c.Target)
	}
	if c.Sweep.Points < 2 {
		return fmt.Errorf("sweep needs at least 2 points, got %d", c.Sweep.Points)
	}
	if c.Simulate.Dt <= 0 || c.Simulate.Duration <= 0 {
		return fmt.Errorf("simulate needs positive dt and duration, got %g and %g", c.Simulate.Dt, c.Simulate.Duration)
	}
	if c.Minimize.MaxIter < 1 {
		return fmt.Errorf("minimize needs at least 1 iteration, got %d", c.Minimize.MaxIter)
	}
	return nil
}

// Level parses LogLevel as a slog level name.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// OverridesFor returns the overrides configured for model.
func (c *Config) OverridesFor(model string) Overrides {
	return Overrides{}.Merge(c.Overrides[model])
}
