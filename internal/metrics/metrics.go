// Prometheus 메트릭 정의
//
// 프로세스 전역에서 한 번만 등록 (테스트에서 여러 번 생성해도 중복 등록 panic 없음)
//
// 메트릭:
//   - sanos_queue_pending_items - 대기 중인 queue item 수
//   - sanos_queue_active_workers - 실행 중인 target worker 수
//   - sanos_incidents_ingested_total{source,outcome} - webhook 인입 결과
//   - sanos_remediation_runs_total{outcome} - 자동 수정 실행 결과
//   - sanos_remediation_duration_seconds - 자동 수정 1회 소요 시간
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

type Metrics struct {
	QueuePending  prometheus.Gauge
	ActiveWorkers prometheus.Gauge

	IncidentsIngested *prometheus.CounterVec

	RemediationRuns     *prometheus.CounterVec
	RemediationDuration prometheus.Histogram
}

// Remediation 결과 라벨
const (
	OutcomePRCreated = "pr_created"
	OutcomeNoPR      = "no_pr"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			QueuePending: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "sanos_queue_pending_items",
				Help: "Number of queued items waiting for a target worker",
			}),
			ActiveWorkers: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "sanos_queue_active_workers",
				Help: "Number of targets with a running worker",
			}),
			IncidentsIngested: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "sanos_incidents_ingested_total",
					Help: "Total number of ingested failure signals",
				},
				[]string{"source", "outcome"}, // outcome: created, duplicate, ignored
			),
			RemediationRuns: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "sanos_remediation_runs_total",
					Help: "Total number of remediation runs",
				},
				[]string{"outcome"},
			),
			RemediationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "sanos_remediation_duration_seconds",
				Help:    "Duration of a remediation run in seconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 11), // 1s ~ 17m
			}),
		}
	})
	return globalMetrics
}
