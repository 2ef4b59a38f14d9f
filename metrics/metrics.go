// Package metrics exposes Prometheus counters for the binding cache.
package metrics

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "xmlb"
	subsystem = "binding"
)

// Label values.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// CacheLookups counts binding cache lookups by result (hit or miss).
	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "cache_lookups_total",
		Help:      "Binding cache lookups partitioned by result.",
	}, []string{"result"})

	// Builds counts binding constructions by binding kind and outcome.
	Builds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "builds_total",
		Help:      "Bindings constructed partitioned by kind and outcome.",
	}, []string{"kind", "outcome"})

	// CacheClears counts explicit binding cache clears.
	CacheClears = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "cache_clears_total",
		Help:      "Number of times the binding cache was cleared.",
	})
)

// Register adds the collectors to r. The collectors are process-wide, so
// they may be registered with several registries; registering them twice
// with the same registry is not an error.
func Register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{CacheLookups, Builds, CacheClears} {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}
