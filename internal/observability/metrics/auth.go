package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Revalidation outcome labels.
const (
	RevalidationVerified = "verified"
	RevalidationTornDown = "torn_down"
	RevalidationCached   = "cached"
	RevalidationError    = "error"
)

// AuthMetrics holds Prometheus metrics for the session gateway.
type AuthMetrics struct {
	Signups       prometheus.Counter
	Logins        prometheus.Counter
	Logouts       prometheus.Counter
	Revalidations *prometheus.CounterVec
}

// New creates and registers all gateway metrics on the default registerer.
func New() *AuthMetrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates and registers all gateway metrics on the given registerer.
// Tests pass a private registry to avoid duplicate registration.
func NewWith(reg prometheus.Registerer) *AuthMetrics {
	factory := promauto.With(reg)
	return &AuthMetrics{
		Signups: factory.NewCounter(prometheus.CounterOpts{
			Name: "authgate_signups_total",
			Help: "Total number of successful provider sign-ups",
		}),
		Logins: factory.NewCounter(prometheus.CounterOpts{
			Name: "authgate_logins_total",
			Help: "Total number of successful logins (sessions created)",
		}),
		Logouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "authgate_logouts_total",
			Help: "Total number of logout session destructions",
		}),
		Revalidations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "authgate_session_revalidations_total",
			Help: "Session revalidation outcomes by result",
		}, []string{"result"}),
	}
}

// IncrementSignups increments the signup counter by 1.
func (m *AuthMetrics) IncrementSignups() {
	m.Signups.Inc()
}

// IncrementLogins increments the login counter by 1.
func (m *AuthMetrics) IncrementLogins() {
	m.Logins.Inc()
}

// IncrementLogouts increments the logout counter by 1.
func (m *AuthMetrics) IncrementLogouts() {
	m.Logouts.Inc()
}

// ObserveRevalidation records one revalidation outcome.
func (m *AuthMetrics) ObserveRevalidation(result string) {
	m.Revalidations.WithLabelValues(result).Inc()
}
