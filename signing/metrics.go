package signing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "mediasign"
	metricsSubsystem = "signing"
)

// Metrics holds the Prometheus collectors of the signing endpoints. A nil
// *Metrics records nothing.
type Metrics struct {
	PresignItems    *prometheus.CounterVec
	PresignDuration prometheus.Histogram
	FetchTotal      *prometheus.CounterVec
	FetchBytes      prometheus.Histogram
	UploadsTotal    *prometheus.CounterVec
	UploadBytes     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PresignItems: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "presign_items_total",
			Help:      "References processed by the presign endpoint, by outcome",
		}, []string{"outcome"}),
		PresignDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "presign_duration_seconds",
			Help:      "Duration of a presign request in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		}),
		FetchTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "fetch_total",
			Help:      "Fetch-and-encode requests, by status",
		}, []string{"status"}),
		FetchBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "fetch_bytes",
			Help:      "Size of fetched media in bytes",
			Buckets:   prometheus.ExponentialBuckets(16<<10, 4, 7),
		}),
		UploadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "uploads_total",
			Help:      "Uploads, by content type and status",
		}, []string{"content_type", "status"}),
		UploadBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "upload_bytes_total",
			Help:      "Bytes uploaded, by content type",
		}, []string{"content_type"}),
	}
}

func (m *Metrics) recordPresign(signed, failed int, d time.Duration) {
	if m == nil {
		return
	}
	m.PresignItems.WithLabelValues("signed").Add(float64(signed))
	m.PresignItems.WithLabelValues("failed").Add(float64(failed))
	m.PresignDuration.Observe(d.Seconds())
}

func (m *Metrics) recordFetch(status string, size int) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(status).Inc()
	if size > 0 {
		m.FetchBytes.Observe(float64(size))
	}
}

func (m *Metrics) recordUpload(contentType, status string, size int64) {
	if m == nil {
		return
	}
	m.UploadsTotal.WithLabelValues(contentType, status).Inc()
	if status == "success" {
		m.UploadBytes.WithLabelValues(contentType).Add(float64(size))
	}
}
