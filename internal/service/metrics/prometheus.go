package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusExporter mirrors completed operations into Prometheus collectors.
type PrometheusExporter struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	Tokens     *prometheus.CounterVec
	InFlight   prometheus.Gauge
}

func NewPrometheusExporter(reg prometheus.Registerer) (*PrometheusExporter, error) {
	e := &PrometheusExporter{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "scriptgen",
				Name:      "operations_total",
				Help:      "Completed pipeline operations by type, platform and status",
			},
			[]string{"type", "platform", "status"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "scriptgen",
				Name:      "operation_duration_seconds",
				Help:      "Pipeline operation duration",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"type"},
		),
		Tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "scriptgen",
				Name:      "tokens_total",
				Help:      "Model tokens consumed by direction",
			},
			[]string{"type", "direction"},
		),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scriptgen",
			Name:      "operations_in_flight",
			Help:      "Operations started but not yet ended",
		}),
	}

	for _, c := range []prometheus.Collector{e.Operations, e.Duration, e.Tokens, e.InFlight} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics collector: %w", err)
		}
	}
	return e, nil
}

func (e *PrometheusExporter) Observe(m AIOperationMetrics) {
	status := "success"
	if !m.Success {
		status = "failure"
	}
	platform := string(m.Platform)
	if platform == "" {
		platform = "all"
	}
	opType := string(m.Type)

	e.Operations.WithLabelValues(opType, platform, status).Inc()
	e.Duration.WithLabelValues(opType).Observe(m.Duration.Seconds())
	if m.InputTokens > 0 {
		e.Tokens.WithLabelValues(opType, "input").Add(float64(m.InputTokens))
	}
	if m.OutputTokens > 0 {
		e.Tokens.WithLabelValues(opType, "output").Add(float64(m.OutputTokens))
	}
}

func (e *PrometheusExporter) SetInFlight(n int) {
	e.InFlight.Set(float64(n))
}
