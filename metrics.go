package fairlock

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = `fairlock`

// metrics holds the Prometheus collectors of one mutex. A nil *metrics is
// valid and records nothing.
type metrics struct {
	acquired  prometheus.Counter
	contended prometheus.Counter
	cancelled prometheus.Counter
	released  prometheus.Counter
	panics    prometheus.Counter
	waiting   prometheus.Gauge
	wait      prometheus.Histogram
	hold      prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer, name string) *metrics {
	labels := prometheus.Labels{`mutex`: name}
	counter := func(n, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        n,
			Help:        help,
			ConstLabels: labels,
		})
	}
	histogram := func(n, help string) prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        n,
			Help:        help,
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1e-6, 4, 12),
		})
	}

	m := &metrics{
		acquired:  counter(`acquired_total`, `Total number of lock acquisitions`),
		contended: counter(`contended_total`, `Total number of acquisitions that had to wait`),
		cancelled: counter(`cancelled_total`, `Total number of lock waits abandoned by context`),
		released:  counter(`released_total`, `Total number of lock releases`),
		panics:    counter(`panics_total`, `Total number of critical sections that panicked`),
		waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        `waiters`,
			Help:        `Current number of goroutines waiting for the lock`,
			ConstLabels: labels,
		}),
		wait: histogram(`wait_seconds`, `Time spent waiting for a contended lock`),
		hold: histogram(`hold_seconds`, `Time the lock was held`),
	}
	reg.MustRegister(m.acquired, m.contended, m.cancelled, m.released,
		m.panics, m.waiting, m.wait, m.hold)
	return m
}

func (m *metrics) onAcquired(contended bool) {
	if m == nil {
		return
	}
	m.acquired.Inc()
	if contended {
		m.contended.Inc()
	}
}

func (m *metrics) onWait() {
	if m == nil {
		return
	}
	m.waiting.Inc()
}

func (m *metrics) onUnwait(waited time.Duration) {
	if m == nil {
		return
	}
	m.waiting.Dec()
	m.wait.Observe(waited.Seconds())
}

func (m *metrics) onCancelled() {
	if m == nil {
		return
	}
	m.cancelled.Inc()
}

func (m *metrics) onReleased(held time.Duration) {
	if m == nil {
		return
	}
	m.released.Inc()
	m.hold.Observe(held.Seconds())
}

func (m *metrics) onPanic() {
	if m == nil {
		return
	}
	m.panics.Inc()
}
