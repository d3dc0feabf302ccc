// Package metrics: Prometheus-метрики координатора синхронизации.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	// operationsTotal: выполненные операции координатора по исходу.
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_operations_total",
			Help: "Количество операций над контейнерами",
		},
		[]string{"op", "result"},
	)

	// remoteFailuresTotal: сбои зеркалирования в удалённую таблицу.
	remoteFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_remote_failures_total",
			Help: "Количество неудачных обращений к удалённой таблице",
		},
		[]string{"op"},
	)

	offline = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "warehouse_offline",
		Help: "1, если последнее обращение к удалённой таблице завершилось ошибкой",
	})
)

// ObserveOperation counts one finished coordinator operation.
func ObserveOperation(op string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	operationsTotal.WithLabelValues(op, result).Inc()
}

// RemoteFailure counts a failed remote call.
func RemoteFailure(op string) {
	remoteFailuresTotal.WithLabelValues(op).Inc()
}

// SetOffline mirrors the coordinator offline flag.
func SetOffline(v bool) {
	if v {
		offline.Set(1)
		return
	}
	offline.Set(0)
}
