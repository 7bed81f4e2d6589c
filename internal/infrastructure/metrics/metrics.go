// Package metrics provides Prometheus metrics for festival-hub.
package metrics

import (
	"net/http"

	"festival-hub/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements domain.AuthMetrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	sessionChecks  *prometheus.CounterVec
	routeDecisions *prometheus.CounterVec
	signOuts       *prometheus.CounterVec
}

// NewRecorder registers the festival-hub collectors plus Go and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		sessionChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "festival_hub",
				Name:      "session_checks_total",
				Help:      "Total number of session checks by outcome",
			},
			[]string{"outcome"},
		),
		routeDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "festival_hub",
				Name:      "route_decisions_total",
				Help:      "Total number of route guard decisions",
			},
			[]string{"route", "decision"},
		),
		signOuts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "festival_hub",
				Name:      "sign_outs_total",
				Help:      "Total number of sign-out requests by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveSessionCheck counts a session-check response.
func (r *Recorder) ObserveSessionCheck(outcome string) {
	r.sessionChecks.WithLabelValues(outcome).Inc()
}

// ObserveRouteDecision counts a guard decision.
func (r *Recorder) ObserveRouteDecision(route string, kind domain.DecisionKind) {
	r.routeDecisions.WithLabelValues(route, kind.String()).Inc()
}

// ObserveSignOut counts a sign-out response.
func (r *Recorder) ObserveSignOut(outcome string) {
	r.signOuts.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
