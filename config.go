package quorum

import (
	"fmt"
	"time"
)

// Config is a serialisable representation of the engine configuration. It can
// be populated from JSON, YAML, environment variables, etc. The zero-value is
// useful; nested fields inherit their package defaults.
type Config struct {
	Recalc RecalcConfig `json:"recalc" yaml:"recalc"`
}

// RecalcConfig tunes the recalculation scheduler.
type RecalcConfig struct {
	WorkerCount   int           `json:"workers" yaml:"workers"`
	MaxAttempts   int           `json:"maxAttempts" yaml:"maxAttempts"`
	SweepInterval time.Duration `json:"sweepInterval" yaml:"sweepInterval"`
}

// DefaultConfig returns a Config populated with the package defaults. Callers
// may modify the returned struct before passing it to New via WithConfig.
func DefaultConfig() *Config {
	return &Config{
		Recalc: RecalcConfig{
			WorkerCount:   5,
			MaxAttempts:   8,
			SweepInterval: time.Minute,
		},
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Recalc.WorkerCount <= 0 {
		return fmt.Errorf("recalc.workers must be > 0")
	}
	if c.Recalc.MaxAttempts <= 0 {
		return fmt.Errorf("recalc.maxAttempts must be > 0")
	}
	return nil
}
