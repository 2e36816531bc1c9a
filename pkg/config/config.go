// Package config provides configuration loading and management for parcelsurf.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"parcelsurf/pkg/errors"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores bounds how many subjects are preprocessed in parallel
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Region growing parameters
	Growth struct {
		// Regions is the number of parcels to grow
		Regions int `yaml:"regions"`

		// RandomSeed seeds the random choice of seed vertices
		RandomSeed uint64 `yaml:"randomSeed"`
	} `yaml:"growth"`

	// Balloon inflation parameters
	Inflation struct {
		// Iterations is the number of inflation steps
		Iterations int `yaml:"iterations"`

		// StepNormal is how far vertices move along their normal per step
		StepNormal float64 `yaml:"stepNormal"`

		// StepSmooth weights the neighbor mean during relaxation, in [0,1]
		StepSmooth float64 `yaml:"stepSmooth"`

		// Normals selects face-normal accumulation: "raw" or "unit"
		Normals string `yaml:"normals"`
	} `yaml:"inflation"`

	// Evaluation parameters
	Evaluation struct {
		// OffDiagonalCraddock excludes the self-correlation diagonal from
		// Craddock homogeneity
		OffDiagonalCraddock bool `yaml:"offDiagonalCraddock"`

		// Reorder runs hierarchical reordering of the parcel correlation matrix
		Reorder bool `yaml:"reorder"`
	} `yaml:"evaluation"`

	// Time-series preprocessing
	TimeSeries struct {
		// RepetitionTime is the sampling interval in seconds
		RepetitionTime float64 `yaml:"repetitionTime"`

		// LowCut and HighCut bound the band-pass filter in Hz; zero disables filtering
		LowCut  float64 `yaml:"lowCut"`
		HighCut float64 `yaml:"highCut"`

		// Modes is the number of spatial modes to extract; zero disables it
		Modes int `yaml:"modes"`

		// MinVariance drops near-constant rows before mode extraction
		MinVariance float64 `yaml:"minVariance"`
	} `yaml:"timeseries"`

	// Synthetic data generation for the run command
	Synthetic struct {
		// Subdivisions is the icosphere refinement level
		Subdivisions int `yaml:"subdivisions"`

		// Radius is the sphere radius in mm
		Radius float64 `yaml:"radius"`

		// Subjects is the number of simulated subjects
		Subjects int `yaml:"subjects"`

		// TimePoints is the length of each simulated time series
		TimePoints int `yaml:"timePoints"`

		// Sources is the number of latent signal sources on the sphere
		Sources int `yaml:"sources"`

		// Noise is the standard deviation of per-vertex noise
		Noise float64 `yaml:"noise"`

		// Smoothing is the number of graph smoothing passes applied to the noise
		Smoothing int `yaml:"smoothing"`
	} `yaml:"synthetic"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumCores = runtime.NumCPU()

	cfg.Growth.Regions = 40
	cfg.Growth.RandomSeed = 1

	cfg.Inflation.Iterations = 100
	cfg.Inflation.StepNormal = 0.1
	cfg.Inflation.StepSmooth = 0.1
	cfg.Inflation.Normals = "raw"

	cfg.Evaluation.OffDiagonalCraddock = false
	cfg.Evaluation.Reorder = true

	cfg.TimeSeries.RepetitionTime = 2.0
	cfg.TimeSeries.LowCut = 0
	cfg.TimeSeries.HighCut = 0
	cfg.TimeSeries.Modes = 5
	cfg.TimeSeries.MinVariance = 1e-8

	cfg.Synthetic.Subdivisions = 3
	cfg.Synthetic.Radius = 50
	cfg.Synthetic.Subjects = 3
	cfg.Synthetic.TimePoints = 120
	cfg.Synthetic.Sources = 6
	cfg.Synthetic.Noise = 0.5
	cfg.Synthetic.Smoothing = 2

	cfg.Output.Verbose = false

	return cfg
}

// Validate checks the values that cannot be checked by the consuming
// packages before work starts
func (c *Config) Validate() error {
	if c.Processing.NumCores < 1 {
		return errors.Config("processing.numCores must be at least 1, got %d", c.Processing.NumCores)
	}
	if c.Growth.Regions < 1 {
		return errors.Config("growth.regions must be at least 1, got %d", c.Growth.Regions)
	}
	if c.Inflation.StepSmooth < 0 || c.Inflation.StepSmooth > 1 {
		return errors.Config("inflation.stepSmooth must lie in [0,1], got %v", c.Inflation.StepSmooth)
	}
	if c.Synthetic.Subjects < 1 {
		return errors.Config("synthetic.subjects must be at least 1, got %d", c.Synthetic.Subjects)
	}
	if c.Synthetic.TimePoints < 2 {
		return errors.Config("synthetic.timePoints must be at least 2, got %d", c.Synthetic.TimePoints)
	}
	if c.Synthetic.Subdivisions < 0 || c.Synthetic.Subdivisions > 7 {
		return errors.Config("synthetic.subdivisions must lie in [0,7], got %d", c.Synthetic.Subdivisions)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
