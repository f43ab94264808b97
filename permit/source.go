// Package permit provides a counting permit source backed by
// golang.org/x/sync/semaphore. Callers that have to wait are granted
// permits strictly in the order they asked for them, and a granted permit
// hands its unit of capacity back on Release.
package permit

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-logr/logr"
	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned by Acquire once the source has been closed.
var ErrClosed = errors.New(`permit source closed`)

// Source hands out up to Capacity permits at a time.
type Source struct {
	capacity int64
	sem      *semaphore.Weighted
	inUse    atomic.Int64
	log      logr.Logger

	closing context.Context
	close   context.CancelFunc
}

// New creates a Source with the given capacity. It panics if capacity is
// not positive.
func New(capacity int64, opts ...Option) *Source {
	if capacity < 1 {
		panic(fmt.Sprintf(`permit: capacity must be positive, got %d`, capacity))
	}

	closing, cancel := context.WithCancel(context.Background())
	s := &Source{
		capacity: capacity,
		sem:      semaphore.NewWeighted(capacity),
		log:      logr.Discard(),
		closing:  closing,
		close:    cancel,
	}

	for _, o := range opts {
		o(s)
	}
	return s
}

// Capacity returns the number of permits the source was created with.
func (s *Source) Capacity() int64 { return s.capacity }

// Available returns the number of permits not currently held.
// The value is a snapshot and may be stale by the time it is read.
func (s *Source) Available() int64 { return s.capacity - s.inUse.Load() }

// Acquire blocks until a permit is available, ctx is done or the source is
// closed. Waiters are served first-in-first-out. On failure no capacity is
// held on behalf of the caller.
func (s *Source) Acquire(ctx context.Context) (*Permit, error) {
	if s.closed() {
		return nil, ErrClosed
	}
	if s.sem.TryAcquire(1) {
		return s.grant(), nil
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stop := context.AfterFunc(s.closing, func() { cancel(ErrClosed) })
	defer stop()

	s.log.V(2).Info(`Waiting for permit.`, `capacity`, s.capacity)
	if err := s.sem.Acquire(ctx, 1); err != nil {
		if errors.Is(context.Cause(ctx), ErrClosed) {
			return nil, ErrClosed
		}
		return nil, err
	}

	// Acquire may succeed even though ctx is already done.
	if s.closed() {
		s.sem.Release(1)
		return nil, ErrClosed
	}
	return s.grant(), nil
}

// TryAcquire takes a permit only if one is free and nobody is queued ahead
// of the caller. It never blocks.
func (s *Source) TryAcquire() (*Permit, bool) {
	if s.closed() || !s.sem.TryAcquire(1) {
		return nil, false
	}
	return s.grant(), true
}

// Close fails every pending and future Acquire with ErrClosed. Permits
// already granted stay valid and may still be released. Close is
// idempotent.
func (s *Source) Close() {
	if s.closed() {
		return
	}
	s.close()
	s.log.Info(`Permit source closed.`, `inUse`, s.inUse.Load())
}

func (s *Source) closed() bool { return s.closing.Err() != nil }

func (s *Source) grant() *Permit {
	s.inUse.Add(1)
	return &Permit{s: s}
}

// Permit is one unit of capacity held from a Source.
type Permit struct {
	s        *Source
	released atomic.Bool
}

// Release returns the unit to its source. Only the first call has an
// effect; it never blocks.
func (p *Permit) Release() {
	if !p.released.CompareAndSwap(false, true) {
		return
	}
	p.s.inUse.Add(-1)
	p.s.sem.Release(1)
}

// Released reports whether Release has been called.
func (p *Permit) Released() bool { return p.released.Load() }
