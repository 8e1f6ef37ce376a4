// Package config holds the calculator settings that every evaluation reads.
//
// A Config is a plain value. It is passed explicitly into the numeric engine,
// the evaluator and the session; nothing in gcmp keeps process-wide mutable
// settings.
//
// # Sources
//
// Settings are layered, later sources winning:
//
//  1. DefaultConfig (precision 24, base 10, degrees, general output)
//  2. a YAML file, decoded strictly and checked against an embedded CUE schema
//  3. environment variables GCMP_PRECISION, GCMP_BASE, GCMP_ANGLE, GCMP_OUTPUT
//  4. command-line flags (applied by the cli package)
//
// File format:
//
//	precision: 32
//	base: 10
//	angle_mode: degrees     # degrees | radians
//	output_format: general  # general | scientific | fixed
//
// # Clamping
//
// Precision outside 1..1000 and base outside 2..36 are clamped by Normalize
// rather than rejected. Normalize reports the clamp as a *ClampError so callers
// can log it and carry on.
//
// # Live reload
//
// Watcher follows a config file with fsnotify and delivers each successfully
// reloaded Config on a channel. The REPL drains that channel between lines, so a
// reload never lands in the middle of an evaluation.
package config
