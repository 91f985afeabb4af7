package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionLogouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driveway_session_logouts_total",
		Help: "The total number of session logouts by reason",
	}, []string{"reason"})

	InterceptedFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driveway_backend_failures_total",
		Help: "The total number of failed backend calls seen by the session policy",
	}, []string{"kind"})

	TokenProbes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driveway_token_probes_total",
		Help: "The total number of background token checks by result",
	}, []string{"result"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "driveway_active_sessions",
		Help: "The number of visitor sessions currently mounted",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "driveway_events_dropped_total",
		Help: "The total number of events a full subscriber missed",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driveway_http_requests_total",
		Help: "The total number of gateway requests by method and status",
	}, []string{"method", "status"})
)
