package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts API requests by operation and outcome.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "media_gateway",
		Name:      "requests_total",
		Help:      "Total API requests by operation and outcome",
	}, []string{"op", "outcome"})

	// DownloadDuration tracks how long the engine spends on a download.
	DownloadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "media_gateway",
		Name:      "download_duration_seconds",
		Help:      "Time spent by the extraction engine per download",
		Buckets:   []float64{1, 2, 5, 10, 30, 60, 120, 300, 600, 1200},
	}, []string{"video", "success"})

	// FilesServed counts files streamed from the file endpoint.
	FilesServed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "media_gateway",
		Name:      "files_served_total",
		Help:      "Total files streamed to clients",
	})
)

// ObserveRequest records one API request outcome.
func ObserveRequest(op, outcome string) {
	RequestsTotal.WithLabelValues(op, outcome).Inc()
}

// ObserveDownload records an engine download duration.
func ObserveDownload(video, success bool, d time.Duration) {
	DownloadDuration.WithLabelValues(strconv.FormatBool(video), strconv.FormatBool(success)).Observe(d.Seconds())
}
