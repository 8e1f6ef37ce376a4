package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "gcmp"

// Collector holds the calculator's counters.
type Collector struct {
	registry    *prometheus.Registry
	operations  *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	guard       *prometheus.CounterVec
}

// New creates a Collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Engine operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Expression evaluations by outcome.",
		}, []string{"outcome"}),
		guard: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Input guard decisions by rule and action.",
		}, []string{"rule", "action"}),
	}
	c.registry.MustRegister(c.operations, c.evaluations, c.guard)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveOp counts one engine operation.
func (c *Collector) ObserveOp(op, outcome string) {
	c.operations.WithLabelValues(op, outcome).Inc()
}

// ObserveEvaluation counts one evaluation.
func (c *Collector) ObserveEvaluation(outcome string) {
	c.evaluations.WithLabelValues(outcome).Inc()
}

// ObserveGuard counts one guard decision.
func (c *Collector) ObserveGuard(rule, action string) {
	c.guard.WithLabelValues(rule, action).Inc()
}

// WriteText writes every metric family in the text exposition format.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
