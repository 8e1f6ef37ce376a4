package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Environment variables read by ApplyEnv.
const (
	EnvPrecision = "GCMP_PRECISION"
	EnvBase      = "GCMP_BASE"
	EnvAngle     = "GCMP_ANGLE"
	EnvOutput    = "GCMP_OUTPUT"
	EnvDebug     = "GCMP_DEBUG"
)

// Load reads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults (plus environment).
// The result is not normalized; call Normalize before use.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// defaults
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		default:
			cfg, err = Parse(data)
			if err != nil {
				return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes a YAML document on top of the defaults. Unknown keys and
// values outside the schema's enumerations are rejected.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateSchema(raw); err != nil {
		return Config{}, err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// validateSchema unifies the decoded document with #Config.
func validateSchema(raw map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	value := ctx.Encode(raw)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg from environment variables looked up with lookup
// (normally os.LookupEnv).
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrecision); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPrecision, v, err)
		}
		cfg.Precision = n
	}
	if v, ok := lookup(EnvBase); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvBase, v, err)
		}
		cfg.Base = n
	}
	if v, ok := lookup(EnvAngle); ok && v != "" {
		m, err := ParseAngleMode(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAngle, err)
		}
		cfg.AngleMode = m
	}
	if v, ok := lookup(EnvOutput); ok && v != "" {
		f, err := ParseOutputFormat(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvOutput, err)
		}
		cfg.OutputFormat = f
	}
	return nil
}

// DebugEnabled reports whether GCMP_DEBUG is set.
func DebugEnabled() bool {
	_, ok := os.LookupEnv(EnvDebug)
	return ok
}
