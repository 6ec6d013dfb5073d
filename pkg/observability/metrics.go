package observability

import (
	"context"

	"github.com/aretw0/majbot/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "majbot"

// Metrics holds the conversation counters.
type Metrics struct {
	StateVisits     *prometheus.CounterVec
	Captures        *prometheus.CounterVec
	Learned         prometheus.Counter
	Invalid         *prometheus.CounterVec
	HandlerDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg skips registration, which keeps tests independent of the global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StateVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "state_visits_total",
			Help:      "Total number of state visits",
		}, []string{"state_id"}),
		Captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "captures_total",
			Help:      "Values captured into the session dictionary",
		}, []string{"variable"}),
		Learned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "learned_states_total",
			Help:      "States synthesized by learning rules",
		}),
		Invalid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "invalid_inputs_total",
			Help:      "Utterances no rule matched",
		}, []string{"state_id"}),
		HandlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "handler_duration_seconds",
			Help:      "Duration of response handler executions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.StateVisits, m.Captures, m.Learned, m.Invalid, m.HandlerDuration)
	}
	return m
}

// Hooks records every lifecycle event in the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(_ context.Context, e *domain.StateEvent) {
			m.StateVisits.WithLabelValues(e.StateID).Inc()
		},
		OnCapture: func(_ context.Context, e *domain.CaptureEvent) {
			m.Captures.WithLabelValues(e.Variable).Inc()
		},
		OnLearn: func(context.Context, *domain.LearnEvent) {
			m.Learned.Inc()
		},
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			outcome := "ok"
			if e.IsError {
				outcome = "error"
			}
			m.HandlerDuration.WithLabelValues(e.Handler, outcome).Observe(e.Duration.Seconds())
		},
		OnInvalid: func(_ context.Context, e *domain.InvalidEvent) {
			m.Invalid.WithLabelValues(e.StateID).Inc()
		},
	}
}
