// Package metrics exports engine activity as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/runner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors fed by engine lifecycle hooks and turn observers.
type Metrics struct {
	registry *prometheus.Registry

	stateEnters   *prometheus.CounterVec
	offRoutes     *prometheus.CounterVec
	backendCalls  *prometheus.CounterVec
	backendTiming *prometheus.HistogramVec
	turns         *prometheus.CounterVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stateEnters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coach_state_enters_total",
				Help: "Total number of script state entries",
			},
			[]string{"state_id"},
		),
		offRoutes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coach_offroute_total",
				Help: "Total number of off-route detours by trigger",
			},
			[]string{"trigger"},
		),
		backendCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coach_backend_calls_total",
				Help: "Total number of backend calls by outcome",
			},
			[]string{"call", "outcome"},
		),
		backendTiming: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coach_backend_call_duration_seconds",
				Help:    "Duration of backend calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"call"},
		),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coach_turns_total",
				Help: "Total number of completed turns",
			},
			[]string{"kind"},
		),
	}
	m.registry.MustRegister(m.stateEnters, m.offRoutes, m.backendCalls, m.backendTiming, m.turns)
	return m
}

// Registry exposes the underlying registry, e.g. to add process collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record engine activity.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			m.stateEnters.WithLabelValues(e.StateID).Inc()
		},
		OnOffRoute: func(ctx context.Context, e *domain.OffRouteEvent) {
			m.offRoutes.WithLabelValues(e.Trigger).Inc()
		},
		OnBackendCall: func(ctx context.Context, e *domain.BackendEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "error"
			}
			m.backendCalls.WithLabelValues(e.Call, outcome).Inc()
			m.backendTiming.WithLabelValues(e.Call).Observe(e.Duration.Seconds())
		},
	}
}

// Observe is a runner.Observer counting completed turns.
func (m *Metrics) Observe(ctx context.Context, sessionID string, turn *runner.Turn) {
	kind := "turn"
	if turn.Ended {
		kind = "ended"
	}
	m.turns.WithLabelValues(kind).Inc()
}

// Combine returns hooks that call every non-nil hook of each set, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		if h.OnStateEnter != nil {
			prev, next := out.OnStateEnter, h.OnStateEnter
			out.OnStateEnter = func(ctx context.Context, e *domain.StateEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
		if h.OnOffRoute != nil {
			prev, next := out.OnOffRoute, h.OnOffRoute
			out.OnOffRoute = func(ctx context.Context, e *domain.OffRouteEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
		if h.OnBackendCall != nil {
			prev, next := out.OnBackendCall, h.OnBackendCall
			out.OnBackendCall = func(ctx context.Context, e *domain.BackendEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
	}
	return out
}

// Observers fans a turn out to several observers.
func Observers(observers ...runner.Observer) runner.Observer {
	return func(ctx context.Context, sessionID string, turn *runner.Turn) {
		for _, o := range observers {
			if o != nil {
				o(ctx, sessionID, turn)
			}
		}
	}
}
