package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/scode/pkg/scode/internalerr"
)

// Config holds the training and reporting parameters.
type Config struct {
	Dim        int     `yaml:"dim"`         // embedding dimensionality
	Passes     int     `yaml:"passes"`      // training passes over the corpus
	Phi0       float64 `yaml:"phi0"`        // learning-rate decay scale
	Nu0        float64 `yaml:"nu0"`         // initial learning rate
	Z          float64 `yaml:"z"`           // partition-function approximation
	Seed       uint64  `yaml:"seed"`        // random source seed
	PMIEpsilon float64 `yaml:"pmi_epsilon"` // smoothing for the PMI fit report
	Neighbors  int     `yaml:"neighbors"`   // neighbours printed per probe token
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		Dim:        25,
		Passes:     50,
		Phi0:       100.0,
		Nu0:        0.1,
		Z:          0.154,
		Seed:       1,
		PMIEpsilon: 0,
		Neighbors:  10,
	}
}

// Load reads a YAML file on top of Default. Keys absent from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Dim < 1:
		return fmt.Errorf("dim must be positive, got %d: %w", c.Dim, internalerr.ErrInvalidConfig)
	case c.Passes < 0:
		return fmt.Errorf("passes must not be negative, got %d: %w", c.Passes, internalerr.ErrInvalidConfig)
	case c.Phi0 <= 0:
		return fmt.Errorf("phi0 must be positive, got %g: %w", c.Phi0, internalerr.ErrInvalidConfig)
	case c.Nu0 <= 0:
		return fmt.Errorf("nu0 must be positive, got %g: %w", c.Nu0, internalerr.ErrInvalidConfig)
	case c.Z <= 0:
		return fmt.Errorf("z must be positive, got %g: %w", c.Z, internalerr.ErrInvalidConfig)
	case c.PMIEpsilon < 0:
		return fmt.Errorf("pmi_epsilon must not be negative, got %g: %w", c.PMIEpsilon, internalerr.ErrInvalidConfig)
	}
	return nil
}
