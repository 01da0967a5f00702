package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus counters for certificate lifecycle events.
type Metrics struct {
	Issued    prometheus.Counter
	Revoked   prometheus.Counter
	Suspended prometheus.Counter
	Renewed   prometheus.Counter
	Expired   prometheus.Counter
}

// New creates and registers all certificate metrics.
func New() *Metrics {
	return &Metrics{
		Issued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "oilcert_certificates_issued_total",
			Help: "Total number of certificates issued",
		}),
		Revoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "oilcert_certificates_revoked_total",
			Help: "Total number of certificates revoked",
		}),
		Suspended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "oilcert_certificates_suspended_total",
			Help: "Total number of certificates auto-suspended by compliance drops",
		}),
		Renewed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "oilcert_certificates_renewed_total",
			Help: "Total number of certificate renewals",
		}),
		Expired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "oilcert_certificates_expired_total",
			Help: "Total number of certificates expired by the clock sweep",
		}),
	}
}
