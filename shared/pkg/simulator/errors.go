package simulator

import (
	"errors"
	"fmt"
)

// ErrMissingGameID indicates a simulation was requested without a seed identifier.
var ErrMissingGameID = errors.New("game id is required to seed the simulation")

// ErrDuplicateGameID indicates two matchups in one slate share a seed identifier.
var ErrDuplicateGameID = errors.New("game id must be unique within a slate")

// ErrInvalidConfig indicates model weights or engine configuration are out of range.
var ErrInvalidConfig = errors.New("invalid simulation configuration")

// ConfigError describes the offending configuration field
type ConfigError struct {
	Field  string
	Value  float64
	Reason string
}

func newConfigError(field string, value float64, reason string) error {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s (got %g)", ErrInvalidConfig, e.Field, e.Reason, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidConfig
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}
