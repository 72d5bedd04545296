// Package metrics exposes upload pipeline counters for Prometheus scraping.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Uploads groups the upload pipeline instruments.
type Uploads struct {
	Started      prometheus.Counter
	Completed    prometheus.Counter
	Failed       prometheus.Counter
	BytesSent    prometheus.Counter
	PollAttempts prometheus.Counter
	InFlight     prometheus.Gauge
}

// NewUploads builds the instruments and registers them on reg. A nil reg
// leaves them unregistered, which is what tests want.
func NewUploads(reg prometheus.Registerer) *Uploads {
	u := &Uploads{
		Started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vidgallery",
			Subsystem: "uploads",
			Name:      "started_total",
			Help:      "Uploads submitted to the coordinator.",
		}),
		Completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vidgallery",
			Subsystem: "uploads",
			Name:      "completed_total",
			Help:      "Uploads that reached the completed state.",
		}),
		Failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vidgallery",
			Subsystem: "uploads",
			Name:      "failed_total",
			Help:      "Uploads that reached the failed state.",
		}),
		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vidgallery",
			Subsystem: "uploads",
			Name:      "bytes_sent_total",
			Help:      "Bytes streamed to upload targets.",
		}),
		PollAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vidgallery",
			Subsystem: "uploads",
			Name:      "poll_attempts_total",
			Help:      "Directory polls while awaiting processing.",
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vidgallery",
			Subsystem: "uploads",
			Name:      "in_flight",
			Help:      "Upload pipelines currently running.",
		}),
	}
	if reg != nil {
		reg.MustRegister(u.Started, u.Completed, u.Failed, u.BytesSent, u.PollAttempts, u.InFlight)
	}
	return u
}
