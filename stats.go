package fairlock

import (
	"sync/atomic"
	"time"
)

// Stats is a read-only snapshot of mutex statistics.
// Use Mutex.Stats() to obtain a snapshot that can be exported
// to any monitoring system, or enable WithMetrics for Prometheus.
type Stats struct {
	LockAcquired      int64         // Number of successful acquisitions, Lock and TryLock
	LockContended     int64         // Acquisitions that had to wait for a previous holder
	LockCancelled     int64         // Waits abandoned because the context ended
	LockReleased      int64         // Number of Guard releases
	PanicRecovered    int64         // Critical sections run by Do that panicked
	Waiting           int64         // Goroutines currently blocked in Lock
	TotalHoldDuration time.Duration // Cumulative lock hold duration
	HoldSince         time.Time     // Zero if not held.
}

// stats uses atomic counters for thread-safe statistics collection.
type stats struct {
	lockacquired      atomic.Int64
	acquiredat        atomic.Int64 // nanoseconds timestamp
	lockcontended     atomic.Int64
	lockcancelled     atomic.Int64
	lockreleased      atomic.Int64
	panicrecovered    atomic.Int64
	waiting           atomic.Int64
	totalHoldDuration atomic.Int64 // stored as nanoseconds
}

// snapshot returns a read-only copy of current statistics.
func (c *stats) snapshot() Stats {
	at := c.acquiredat.Load()
	s := Stats{
		LockAcquired:      c.lockacquired.Load(),
		LockContended:     c.lockcontended.Load(),
		LockCancelled:     c.lockcancelled.Load(),
		LockReleased:      c.lockreleased.Load(),
		PanicRecovered:    c.panicrecovered.Load(),
		Waiting:           c.waiting.Load(),
		HoldSince:         nano2time(at),
		TotalHoldDuration: time.Duration(c.totalHoldDuration.Load()),
	}
	if at != 0 {
		s.TotalHoldDuration += time.Since(nano2time(at))
	}

	return s
}

func (c *stats) acquired(contended bool) {
	c.lockacquired.Add(1)
	if contended {
		c.lockcontended.Add(1)
	}
	c.acquiredat.Store(time.Now().UnixNano())
}

func (c *stats) released() {
	c.lockreleased.Add(1)
	at := c.acquiredat.Swap(0)
	c.totalHoldDuration.Add(int64(time.Since(nano2time(at))))
}

func (c *stats) wait()      { c.waiting.Add(1) }
func (c *stats) unwait()    { c.waiting.Add(-1) }
func (c *stats) cancelled() { c.lockcancelled.Add(1) }
func (c *stats) panicked()  { c.panicrecovered.Add(1) }

func nano2time(at int64) time.Time {
	if at == 0 {
		return time.Time{}
	}
	return time.Unix(at/1e9, at%1e9)
}
