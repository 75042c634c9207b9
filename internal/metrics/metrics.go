// Package metrics содержит счётчики Prometheus для операций над абонентами.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PolicyOperations считает операции движка политики по имени операции
// и результату (ok / conflict / not_found / validation / error).
var PolicyOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "radius_policy_operations_total",
	Help: "Total subscriber policy operations by operation and result.",
}, []string{"operation", "result"})

// WebhookDeliveries считает попытки доставки веб-хуков.
var WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "radius_webhook_deliveries_total",
	Help: "Total webhook delivery attempts by result.",
}, []string{"result"})
