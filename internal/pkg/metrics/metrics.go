package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ValidationsTotal counts validation decisions by outcome
// (valid, invalid, blocked).
var ValidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "licgate_validations_total",
	Help: "Validation decisions by outcome.",
}, []string{"outcome"})

// ValidationErrors counts validation calls that failed on the store side
// and surfaced as server errors.
var ValidationErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "licgate_validation_errors_total",
	Help: "Validation calls that failed with a server error.",
})
