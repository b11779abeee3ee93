package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/sepode/internal/integrators"
	"github.com/san-kum/sepode/internal/ode"
)

const (
	DefaultK          = 0.5
	DefaultY0         = 2.0
	DefaultTStart     = 0.0
	DefaultTEnd       = 1.0
	DefaultH          = 0.2
	DefaultIntegrator = "euler"
	DefaultDataDir    = ".sepode"
	DefaultPlotWidth  = 80
	DefaultPlotHeight = 12
	DefaultSamples    = 200
)

// Environment variables consulted by ApplyEnv.
const (
	EnvDataDir    = "SEPODE_DATA_DIR"
	EnvLogLevel   = "SEPODE_LOG_LEVEL"
	EnvLogFormat  = "SEPODE_LOG_FORMAT"
	EnvIntegrator = "SEPODE_INTEGRATOR"
)

type Config struct {
	Problem    ProblemConfig `yaml:"problem"`
	Integrator string        `yaml:"integrator"`
	DataDir    string        `yaml:"data_dir"`
	Log        LogConfig     `yaml:"log"`
	Plot       PlotConfig    `yaml:"plot"`
}

type ProblemConfig struct {
	K      float64 `yaml:"k"`
	Y0     float64 `yaml:"y0"`
	TStart float64 `yaml:"t_start"`
	TEnd   float64 `yaml:"t_end"`
	H      float64 `yaml:"h"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PlotConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// Samples is the number of points used to draw the continuous exact curve.
	Samples int `yaml:"samples"`
}

func DefaultConfig() *Config {
	return &Config{
		Problem: ProblemConfig{
			K:      DefaultK,
			Y0:     DefaultY0,
			TStart: DefaultTStart,
			TEnd:   DefaultTEnd,
			H:      DefaultH,
		},
		Integrator: DefaultIntegrator,
		DataDir:    DefaultDataDir,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Plot: PlotConfig{
			Width:   DefaultPlotWidth,
			Height:  DefaultPlotHeight,
			Samples: DefaultSamples,
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
		return nil, fmt.Errorf("parse %s: %w", path, err)
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

// LoadEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error. Variables already set are left alone.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with any SEPODE_* variables that are set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv(EnvIntegrator); v != "" {
		c.Integrator = v
	}
}

func (c *Config) ProblemDef() ode.Problem {
	return ode.Problem{
		K:      c.Problem.K,
		Y0:     c.Problem.Y0,
		TStart: c.Problem.TStart,
		TEnd:   c.Problem.TEnd,
		H:      c.Problem.H,
	}
}

func (c *Config) Validate() error {
	if err := c.ProblemDef().Validate(); err != nil {
		return err
	}
	if _, err := integrators.Get(c.Integrator); err != nil {
		return err
	}
	if c.Plot.Width <= 0 || c.Plot.Height <= 0 {
		return fmt.Errorf("plot size must be positive, got %dx%d", c.Plot.Width, c.Plot.Height)
	}
	if c.Plot.Samples < 2 {
		return fmt.Errorf("plot samples must be at least 2, got %d", c.Plot.Samples)
	}
	return nil
}
