// Package metrics содержит прометеевские метрики конвейера запросов к удалённому API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline метрики конвейера авторизованных запросов.
type Pipeline struct {
	Requests        *prometheus.CounterVec
	Retries         prometheus.Counter
	RefreshAttempts prometheus.Counter
	RefreshFailures prometheus.Counter
}

// NewPipeline регистрирует метрики конвейера в реестре reg.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	factory := promauto.With(reg)
	return &Pipeline{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "panel_agent_api_requests_total",
			Help: "Outbound requests to the remote API by method and status class.",
		}, []string{"method", "status"}),
		Retries: factory.NewCounter(prometheus.CounterOpts{
			Name: "panel_agent_api_retries_total",
			Help: "Requests re-dispatched after a token refresh.",
		}),
		RefreshAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "panel_agent_token_refresh_attempts_total",
			Help: "Token refresh calls triggered by authorization failures.",
		}),
		RefreshFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "panel_agent_token_refresh_failures_total",
			Help: "Token refresh calls that failed and terminated the session.",
		}),
	}
}
