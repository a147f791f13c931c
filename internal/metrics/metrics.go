package metrics

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "uploads"

// Commit outcomes used as label values.
const (
	OutcomeSuccess             = "success"
	OutcomeInvalidInput        = "invalid_input"
	OutcomeInsufficientCredits = "insufficient_credits"
	OutcomeConflict            = "conflict"
	OutcomeError               = "error"
)

// Recorder exports the upload pipeline counters to Prometheus.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	capabilities prometheus.Counter
	commits      *prometheus.CounterVec
	removals     *prometheus.CounterVec
}

// NewRecorder registers the pipeline collectors on reg (the default registerer when nil).
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		capabilities: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capabilities_issued_total",
			Help:      "Presigned upload URLs handed out.",
		}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Commit attempts by outcome.",
		}, []string{"outcome"}),
		removals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_removed_total",
			Help:      "Storage object deletions by result.",
		}, []string{"result"}),
	}

	c, err := register(reg, r.capabilities)
	if err != nil {
		return nil, err
	}
	r.capabilities = c.(prometheus.Counter)
	if c, err = register(reg, r.commits); err != nil {
		return nil, err
	}
	r.commits = c.(*prometheus.CounterVec)
	if c, err = register(reg, r.removals); err != nil {
		return nil, err
	}
	r.removals = c.(*prometheus.CounterVec)
	return r, nil
}

func (r *Recorder) CapabilitiesIssued(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.capabilities.Add(float64(n))
}

func (r *Recorder) CommitFinished(outcome string) {
	if r == nil {
		return
	}
	r.commits.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObjectsRemoved(deleted, failed int) {
	if r == nil {
		return
	}
	if deleted > 0 {
		r.removals.WithLabelValues("deleted").Add(float64(deleted))
	}
	if failed > 0 {
		r.removals.WithLabelValues("failed").Add(float64(failed))
	}
}

func register(reg prometheus.Registerer, c prometheus.Collector) (prometheus.Collector, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector, nil
		}
		return nil, fmt.Errorf("register upload metric: %w", err)
	}
	return c, nil
}

// Handler serves the metrics gathered by g in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
