// Package fairlock provides a fair, context-aware mutex that owns the value
// it protects.
//
// # Overview
//
//   - Fair: waiters acquire the lock strictly in the order they called Lock
//   - Context-aware: a waiting Lock returns when its context ends, leaving no claim behind
//   - Holdable across blocking calls: the lock is a permit, not a goroutine-bound lock
//   - Value-owning: the protected value is only reachable through a Guard
//   - Non-poisoning: a panic in a critical section releases the lock
//
// # Basic Usage
//
//	counter := fairlock.New(0)
//
//	g, err := counter.Lock(ctx)
//	if err != nil {
//	    return err // ctx ended before the lock was acquired
//	}
//	defer g.Unlock()
//
//	*g.Value() += 1
//
// Or let Do release the lock on every path:
//
//	err := counter.Do(ctx, func(n *int) error {
//	    *n += 1
//	    return nil
//	})
//
// # Permits
//
// A Mutex is a capacity 1 permit source plus a value. By default the
// source is a permit.Source backed by golang.org/x/sync/semaphore, which
// queues waiters first-in-first-out. Holding the permit is what a Guard
// represents; Guard.Unlock hands the permit straight to the oldest waiter,
// so the lock is never observed free while someone is queued.
//
// The permit source is never closed by the Mutex. If it ever reports
// closure, or grants a second permit while a Guard is live, Lock panics
// with an error wrapping ErrInvariant.
//
// # Failure Recovery
//
// A Mutex is not poisoned by a panic. If the holder panics, the deferred
// Unlock (or Do) releases the lock and the next waiter proceeds. Whatever
// partial update the panicking code left behind in the value is visible to
// the next holder; detecting it is up to the caller.
//
// # Caveats
//
// Lock is not reentrant. Calling Lock again while holding a Guard of the
// same Mutex blocks until the context ends. This is not detected.
//
// # Statistics
//
// Stats returns a snapshot of acquisition, contention, cancellation and
// hold time counters. WithMetrics exports the same figures to Prometheus
// and WithTracer records an OpenTelemetry span per Lock call.
package fairlock
