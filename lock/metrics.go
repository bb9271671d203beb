package lock

import "github.com/prometheus/client_golang/prometheus"

var (
	// AcquireCounter counts TryLock outcomes: acquired, reentered, timeout, interrupted, error.
	AcquireCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "distlock_acquire_total",
		Help: "Total number of lock acquisitions by outcome",
	}, []string{"result"})
	// AttemptCounter counts store round trips of the acquisition loop: created, contended, error.
	AttemptCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "distlock_acquire_attempts_total",
		Help: "Total number of create-if-absent attempts by outcome",
	}, []string{"result"})
	AcquireWait = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "distlock_acquire_wait_seconds",
		Help:    "Time spent waiting for a lock that was eventually acquired",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})
	// ReleaseCounter counts store releases: released, expired, error.
	ReleaseCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "distlock_release_total",
		Help: "Total number of lock releases by outcome",
	}, []string{"result"})
	HeldGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "distlock_held_locks",
		Help: "Number of locks currently held by this process",
	})
)

// RegisterMetrics registers the lock metrics on the provided registry.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AcquireCounter, AttemptCounter, AcquireWait, ReleaseCounter, HeldGauge)
}
