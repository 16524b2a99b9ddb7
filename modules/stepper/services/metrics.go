package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stepperSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stepper",
		Subsystem: "save",
		Name:      "total",
		Help:      "Total number of step saves broken down by wizard, step and outcome.",
	}, []string{"wizard", "step", "result"})

	stepperEntityCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stepper",
		Subsystem: "save",
		Name:      "entity_calls_total",
		Help:      "Total number of entity write calls broken down by kind and operation.",
	}, []string{"kind", "op", "result"})

	stepperReconciles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stepper",
		Subsystem: "reconcile",
		Name:      "total",
		Help:      "Total number of reconciliation passes broken down by wizard and outcome.",
	}, []string{"wizard", "result"})

	stepperSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stepper",
		Subsystem: "submission",
		Name:      "total",
		Help:      "Total number of workflow submissions broken down by wizard and outcome.",
	}, []string{"wizard", "result"})

	stepperAutosaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stepper",
		Subsystem: "autosave",
		Name:      "total",
		Help:      "Total number of draft writes broken down by outcome.",
	}, []string{"result"})

	stepperValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stepper",
		Subsystem: "validation",
		Name:      "failures_total",
		Help:      "Total number of blocked advances broken down by wizard and step.",
	}, []string{"wizard", "step"})
)

func recordSave(wizard, step, result string) {
	stepperSaves.WithLabelValues(wizard, step, result).Inc()
}

func recordEntityCall(kind, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	stepperEntityCalls.WithLabelValues(kind, op, result).Inc()
}

func recordReconcile(wizard, result string) {
	stepperReconciles.WithLabelValues(wizard, result).Inc()
}

func recordSubmission(wizard string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	stepperSubmissions.WithLabelValues(wizard, result).Inc()
}

func recordAutosave(result string) {
	if result == "" {
		result = "ok"
	}
	stepperAutosaves.WithLabelValues(result).Inc()
}

func recordValidationFailure(wizard, step string) {
	stepperValidationFailures.WithLabelValues(wizard, step).Inc()
}
