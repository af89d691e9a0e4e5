package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Challenge generation outcomes.
const (
	OutcomeGenerated      = "generated"
	OutcomeNoContent      = "no_content"
	OutcomeUnknownSubject = "unknown_subject"
)

// SubjectUnknown labels requests for subjects the store does not carry, so
// request bodies cannot mint new series.
const SubjectUnknown = "unknown"

// Progress store call paths.
const (
	PathRead  = "read"
	PathWrite = "write"
)

// Collectors groups the service's Prometheus instruments. A nil *Collectors
// is valid and records nothing.
type Collectors struct {
	challenges  *prometheus.CounterVec
	storeErrors *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		challenges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quickfacts",
			Name:      "challenges_generated_total",
			Help:      "Challenge generation attempts by subject and outcome.",
		}, []string{"subject", "outcome"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quickfacts",
			Name:      "progress_store_errors_total",
			Help:      "Progress store failures by operation and call path.",
		}, []string{"op", "path"}),
	}
	if reg != nil {
		reg.MustRegister(c.challenges, c.storeErrors)
	}
	return c
}

// ChallengeGenerated counts one challenge attempt.
func (c *Collectors) ChallengeGenerated(subject, outcome string) {
	if c == nil {
		return
	}
	c.challenges.WithLabelValues(subject, outcome).Inc()
}

// StoreError counts one failed progress store operation.
func (c *Collectors) StoreError(op, path string) {
	if c == nil {
		return
	}
	c.storeErrors.WithLabelValues(op, path).Inc()
}
