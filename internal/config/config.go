package config

import (
	"errors"
	"fmt"
	"strings"
)

// Precision and base limits enforced by Normalize.
const (
	MinPrecision = 1
	MaxPrecision = 1000
	MinBase      = 2
	MaxBase      = 36

	DefaultPrecision = 24
	DefaultBase      = 10
)

// AngleMode selects how trigonometric operands are interpreted.
type AngleMode string

const (
	Degrees AngleMode = "degrees"
	Radians AngleMode = "radians"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	// General uses the shorter of fixed and scientific notation, like %g.
	General OutputFormat = "general"
	// Scientific always uses one leading digit and an exponent, like %e.
	Scientific OutputFormat = "scientific"
	// Fixed uses a fixed number of fraction digits, like %f.
	Fixed OutputFormat = "fixed"
)

// Config is the calculator configuration.
type Config struct {
	// Precision is the number of display digits. Arithmetic runs at four
	// times this many digits.
	Precision int `yaml:"precision" json:"precision"`

	// Base is the radix used to read operands and print results.
	Base int `yaml:"base" json:"base"`

	AngleMode    AngleMode    `yaml:"angle_mode" json:"angle_mode"`
	OutputFormat OutputFormat `yaml:"output_format" json:"output_format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Precision:    DefaultPrecision,
		Base:         DefaultBase,
		AngleMode:    Degrees,
		OutputFormat: General,
	}
}

// ErrCodePrecisionOutOfRange is the code carried by ClampError.
const ErrCodePrecisionOutOfRange = "PRECISION_OUT_OF_RANGE"

// ClampError reports that Normalize moved a setting back into range.
// It is informational: the normalized Config is still usable.
type ClampError struct {
	Field     string
	Requested int
	Applied   int
}

func (e *ClampError) Error() string {
	return fmt.Sprintf("%s: %s %d out of range, using %d", ErrCodePrecisionOutOfRange, e.Field, e.Requested, e.Applied)
}

// IsClampError returns true if err is or wraps a ClampError.
func IsClampError(err error) bool {
	var ce *ClampError
	return errors.As(err, &ce)
}

// Normalize returns c with precision and base clamped into range and empty
// enumerations replaced by their defaults. The returned error is non-nil only
// when a numeric field was clamped; it never means c is unusable.
func (c Config) Normalize() (Config, error) {
	var errs []error

	switch {
	case c.Precision < MinPrecision:
		errs = append(errs, &ClampError{Field: "precision", Requested: c.Precision, Applied: MinPrecision})
		c.Precision = MinPrecision
	case c.Precision > MaxPrecision:
		errs = append(errs, &ClampError{Field: "precision", Requested: c.Precision, Applied: MaxPrecision})
		c.Precision = MaxPrecision
	}

	switch {
	case c.Base == 0:
		c.Base = DefaultBase
	case c.Base < MinBase:
		errs = append(errs, &ClampError{Field: "base", Requested: c.Base, Applied: MinBase})
		c.Base = MinBase
	case c.Base > MaxBase:
		errs = append(errs, &ClampError{Field: "base", Requested: c.Base, Applied: MaxBase})
		c.Base = MaxBase
	}

	if c.AngleMode == "" {
		c.AngleMode = Degrees
	}
	if c.OutputFormat == "" {
		c.OutputFormat = General
	}

	return c, errors.Join(errs...)
}

// ParseAngleMode parses "degrees"/"deg" or "radians"/"rad".
func ParseAngleMode(s string) (AngleMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "degrees", "deg":
		return Degrees, nil
	case "radians", "rad":
		return Radians, nil
	}
	return "", fmt.Errorf("invalid angle mode %q: must be degrees or radians", s)
}

// ParseOutputFormat parses an output format name. The printf verbs g, e and f
// are accepted as aliases.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "general", "g":
		return General, nil
	case "scientific", "e":
		return Scientific, nil
	case "fixed", "f":
		return Fixed, nil
	}
	return "", fmt.Errorf("invalid output format %q: must be general, scientific or fixed", s)
}

// Toggle returns the other angle mode.
func (m AngleMode) Toggle() AngleMode {
	if m == Radians {
		return Degrees
	}
	return Radians
}
