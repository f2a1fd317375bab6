// Package metrics объявляет счётчики Prometheus биллинговых заданий.
// Счётчики регистрируются в глобальном реестре и отдаются админским
// HTTP-сервисом на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SharesGenerated количество квот, созданных ежемесячной генерацией.
	SharesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_shares_generated_total",
		Help: "Number of shares created by monthly generation.",
	})

	// SharesRepriced количество квот, изменённых ежедневной переоценкой.
	SharesRepriced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_shares_repriced_total",
		Help: "Number of shares updated by daily repricing.",
	})

	// NotifyFailures количество неудачных уведомлений о новых квотах.
	NotifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_notify_failures_total",
		Help: "Number of failed share-created notifications.",
	})

	// JobFailures количество упавших запусков фоновых заданий по типу задания.
	JobFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_job_failures_total",
		Help: "Number of failed billing job invocations.",
	}, []string{"job"})
)
