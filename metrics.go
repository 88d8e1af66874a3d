package fuzzyctl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	EvaluationsH      = "The total number of fuzzy evaluations attempted"
	EvaluationsN      = "fuzzyctl_evaluations_total"
	EvaluationErrorsH = "The total number of fuzzy evaluations that failed, by error kind"
	EvaluationErrorsN = "fuzzyctl_evaluation_errors_total"
	OutputH           = "Defuzzified crisp output values, by output variable"
	OutputN           = "fuzzyctl_output"
	RuleFiringH       = "Rule firing strengths, by rule"
	RuleFiringN       = "fuzzyctl_rule_firing"
)

// Metrics instruments engine evaluations. A nil *Metrics records nothing.
type Metrics struct {
	evaluations prometheus.Counter
	errors      *prometheus.CounterVec
	output      *prometheus.HistogramVec
	firing      *prometheus.HistogramVec
}

// NewMetrics registers the engine collectors with reg. Pass
// prometheus.DefaultRegisterer to expose them via promhttp.Handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		evaluations: f.NewCounter(prometheus.CounterOpts{
			Name: EvaluationsN,
			Help: EvaluationsH,
		}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: EvaluationErrorsN,
			Help: EvaluationErrorsH,
		}, []string{"kind"}),
		output: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    OutputN,
			Help:    OutputH,
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		}, []string{"variable"}),
		firing: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    RuleFiringN,
			Help:    RuleFiringH,
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}, []string{"rule"}),
	}
}

func (m *Metrics) observe(res *Result, err error) {
	if m == nil {
		return
	}
	m.evaluations.Inc()
	if err != nil {
		m.errors.WithLabelValues(errorKind(err)).Inc()
		return
	}
	for name, y := range res.Outputs {
		m.output.WithLabelValues(name).Observe(y)
	}
	for _, f := range res.Firing {
		m.firing.WithLabelValues(f.Rule).Observe(f.Strength)
	}
}
