package validation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/georgepadayatti/goades/ades"
	"github.com/georgepadayatti/goades/diagnostic"
)

// Metrics collects validation telemetry.
type Metrics struct {
	items    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

// NewMetrics creates the validation collectors and registers them with
// reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goades",
				Subsystem: "validation",
				Name:      "items_total",
				Help:      "Total number of validated items by kind and indication",
			},
			[]string{"kind", "indication", "sub_indication"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "goades",
				Subsystem: "validation",
				Name:      "item_duration_seconds",
				Help:      "Time taken to validate one item",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 100us to ~1.6s
			},
			[]string{"kind"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goades",
				Subsystem: "validation",
				Name:      "runs_total",
				Help:      "Total number of validation runs by result",
			},
			[]string{"result"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.items, m.duration, m.runs)
	}
	return m
}

func (m *Metrics) observeItem(kind diagnostic.ItemKind, c *ades.Conclusion, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(string(kind), string(c.Indication), string(c.SubIndication)).Inc()
	m.duration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

func (m *Metrics) observeRun(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.runs.WithLabelValues(result).Inc()
}
