// Package metrics counts calculator activity with Prometheus collectors.
//
// A Collector owns a private registry (never the global default one) with
// three counters: engine operations by op and outcome, evaluations by
// outcome, and input-guard decisions by rule and action. Collector satisfies
// the recorder interfaces of the numeric and eval packages, so it is wired in
// with numeric.WithRecorder and eval.WithRecorder.
//
// There is no network surface. WriteText renders the registry in the
// Prometheus text exposition format for the REPL's :stats command.
package metrics
