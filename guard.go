package fairlock

import (
	"sync/atomic"
	"time"
)

// Guard is proof of exclusive access to the value of a Mutex. It is
// obtained from Lock or TryLock and must be released exactly once with
// Unlock.
type Guard[T any] struct {
	_ noCopy

	m        *Mutex[T]
	p        Permit
	at       time.Time
	released atomic.Bool
}

// Value returns a pointer to the protected value. The pointer must not be
// used after Unlock. Value panics with ErrAlreadyReleased when called on a
// released guard.
func (g *Guard[T]) Value() *T {
	if g.released.Load() {
		panic(ErrAlreadyReleased)
	}
	return &g.m.v
}

func (g *Guard[T]) Get() T { return *g.Value() }

func (g *Guard[T]) Set(v T) { *g.Value() = v }

// Unlock hands the lock to the next waiter, or marks it free if nobody
// waits. It never blocks. Calls after the first return ErrAlreadyReleased
// and do nothing, so an explicit Unlock may be combined with a deferred one.
func (g *Guard[T]) Unlock() error {
	if !g.released.CompareAndSwap(false, true) {
		return ErrAlreadyReleased
	}
	g.m.release(g.p, time.Since(g.at))
	return nil
}
