package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TemplateOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "template_operations_total",
			Help: "Template operations by outcome",
		},
		[]string{"operation", "result"},
	)

	OverlayEntriesMigrated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlay_entries_migrated_total",
			Help: "Personal templates drained from anonymous or legacy overlays",
		},
		[]string{"source"},
	)

	DatasetLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dataset_load_duration_seconds",
			Help: "Time spent fetching and decoding the base template dataset",
		},
		[]string{"source"},
	)

	MailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mails_sent_total",
			Help: "Mail dispatch attempts by driver and outcome",
		},
		[]string{"driver", "result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
)

// Result maps an error to the "result" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
