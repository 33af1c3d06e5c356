package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "askdocs", Name: "searches_total", Help: "Number of retrieval runs by mode (index, fallback, none)."},
		[]string{"mode"},
	)
	CompletionRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "askdocs", Name: "completion_requests_total", Help: "Number of completion service calls by outcome."},
		[]string{"outcome"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "askdocs", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "askdocs", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(SearchesTotal)
	reg.MustRegister(CompletionRequests)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
