// Package metrics регистрирует счётчики prometheus. Проглоченные сбои
// доставки (шлюз канала, уведомления) видны операторам именно здесь,
// а не только в логах.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	PaymentsDecided      *prometheus.CounterVec
	SubscriptionsExpired prometheus.Counter
	GatewayFailures      prometheus.Counter
	NotifyFailures       prometheus.Counter
}

// New регистрирует счётчики в reg и возвращает их набор.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PaymentsDecided: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_payments_decided_total",
			Help: "Number of payment decisions, labelled by outcome.",
		}, []string{"outcome"}),
		SubscriptionsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_subscriptions_expired_total",
			Help: "Number of subscriptions transitioned to expired.",
		}),
		GatewayFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_gateway_failures_total",
			Help: "Number of swallowed channel gateway failures (invite or removal).",
		}),
		NotifyFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_notify_failures_total",
			Help: "Number of swallowed notification delivery failures.",
		}),
	}
}
