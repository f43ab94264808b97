package fairlock

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/violin0622/fairlock/permit"
)

// Mutex guards a value of type T. The value can only be reached through the
// Guard returned by Lock or TryLock, and at most one Guard is live at a time.
//
// A Mutex is shared by pointer and must not be copied after first use.
// Sharing it between goroutines is sound because every access to the value
// happens under the single permit; whatever the caller lets escape from
// the critical section (pointers into T, slices, maps) is no longer
// protected.
type Mutex[T any] struct {
	_ noCopy

	v    T
	name string
	ps   PermitSource
	held atomic.Bool

	log     logr.Logger
	onPanic []func(any)
	s       stats

	reg    prometheus.Registerer
	mt     *metrics
	tracer trace.Tracer
}

var (
	ErrAlreadyReleased = errors.New(`already released lock`)
	ErrInvariant       = errors.New(`lock invariant violated`)
	ErrDoubleGrant     = fmt.Errorf(`%w: permit granted while a guard is live`, ErrInvariant)
)

// New returns an unlocked Mutex holding v.
func New[T any](v T, opts ...Option[T]) *Mutex[T] {
	m := &Mutex[T]{
		v:    v,
		name: `fairlock`,
		log:  logr.Discard(),
	}

	for _, o := range opts {
		o(m)
	}

	m.log = m.log.WithValues(`mutex`, m.name)
	if m.ps == nil {
		m.ps = FromSource(permit.New(1, permit.WithLogr(m.log)))
	}
	if m.reg != nil {
		m.mt = newMetrics(m.reg, m.name)
	}
	return m
}

// Lock blocks until the lock is acquired or ctx is done. Waiters are served
// in the order they called Lock. The only error returned is ctx's error, in
// which case the caller holds nothing.
//
// The Guard must be released with Unlock on every path, usually with
// defer. Lock is not reentrant: locking again from the holder without
// releasing first blocks until ctx is done.
func (m *Mutex[T]) Lock(ctx context.Context) (*Guard[T], error) {
	if m.tracer != nil {
		return m.tracedLock(ctx)
	}
	g, _, err := m.lock(ctx)
	return g, err
}

func (m *Mutex[T]) lock(ctx context.Context) (g *Guard[T], contended bool, err error) {
	if p, ok := m.ps.TryAcquire(); ok {
		return m.grant(p, false), false, nil
	}

	m.s.wait()
	m.mt.onWait()
	start := time.Now()
	m.log.V(1).Info(`Lock contended, waiting.`)

	p, err := m.ps.Acquire(ctx)
	m.s.unwait()
	m.mt.onUnwait(time.Since(start))

	if err == nil {
		return m.grant(p, true), true, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		m.s.cancelled()
		m.mt.onCancelled()
		m.log.V(1).Info(`Lock wait cancelled.`, `cause`, context.Cause(ctx))
		return nil, true, err
	}

	// The source is owned by this mutex and never closed by it.
	m.fatal(fmt.Errorf(`%w: acquire permit: %w`, ErrInvariant, err))
	return nil, true, err
}

// TryLock acquires the lock only if it is free and nobody is waiting for
// it. It never blocks.
func (m *Mutex[T]) TryLock() (*Guard[T], bool) {
	p, ok := m.ps.TryAcquire()
	if !ok {
		return nil, false
	}
	return m.grant(p, false), true
}

// Do runs fn with exclusive access to the value. The lock is released when
// fn returns or panics; a panic is re-raised after the release and the
// value is left as fn left it. The returned error is either ctx's error
// from acquiring the lock or the one returned by fn.
func (m *Mutex[T]) Do(ctx context.Context, fn func(*T) error) error {
	g, err := m.Lock(ctx)
	if err != nil {
		return err
	}

	defer func() {
		r := recover()
		_ = g.Unlock()
		if r == nil {
			return
		}
		m.panicked(r)
		panic(r)
	}()

	return fn(g.Value())
}

// String formats the value if the lock is free, and prints <locked>
// otherwise. It never blocks and is not counted in Stats.
func (m *Mutex[T]) String() string {
	p, ok := m.ps.TryAcquire()
	if !ok {
		return `Mutex{<locked>}`
	}
	if !m.held.CompareAndSwap(false, true) {
		p.Release()
		m.fatal(ErrDoubleGrant)
	}
	defer func() {
		m.held.Store(false)
		p.Release()
	}()
	return fmt.Sprintf(`Mutex{%v}`, m.v)
}

// Stats returns a snapshot of the mutex statistics.
// The returned struct is a copy and safe to use without synchronization.
func (m *Mutex[T]) Stats() Stats {
	return m.s.snapshot()
}

func (m *Mutex[T]) grant(p Permit, contended bool) *Guard[T] {
	if !m.held.CompareAndSwap(false, true) {
		p.Release()
		m.fatal(ErrDoubleGrant)
	}

	m.s.acquired(contended)
	m.mt.onAcquired(contended)
	return &Guard[T]{m: m, p: p, at: time.Now()}
}

func (m *Mutex[T]) release(p Permit, heldFor time.Duration) {
	m.s.released()
	m.mt.onReleased(heldFor)
	m.held.Store(false)
	p.Release()
}

func (m *Mutex[T]) panicked(r any) {
	m.s.panicked()
	m.mt.onPanic()
	m.log.Error(fmt.Errorf(`panic: %v`, r), `Critical section panicked, lock released.`)
	for _, f := range m.onPanic {
		f(r)
	}
}

func (m *Mutex[T]) fatal(err error) {
	m.log.Error(err, `Lock invariant violated.`)
	panic(err)
}

// noCopy may be added to structs which must not be copied after first use.
// See go vet -copylocks.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
