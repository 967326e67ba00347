package adapter

import (
	"time"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records command dispatch counters and latencies. A nil *Metrics
// records nothing.
type Metrics struct {
	commands *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studioflow",
			Subsystem: "adapter",
			Name:      "commands_total",
			Help:      "Commands dispatched by the command adapter.",
		}, []string{"operation", "mode", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "studioflow",
			Subsystem: "adapter",
			Name:      "command_duration_seconds",
			Help:      "Time spent dispatching a command.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "mode"}),
	}

	reg.MustRegister(m.commands, m.duration)

	return m
}

func (m *Metrics) observe(op models.Operation, mode Mode, success bool, elapsed time.Duration) {
	if m == nil {
		return
	}

	outcome := "success"
	if !success {
		outcome = "failure"
	}

	m.commands.WithLabelValues(string(op), string(mode), outcome).Inc()
	m.duration.WithLabelValues(string(op), string(mode)).Observe(elapsed.Seconds())
}
