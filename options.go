package fairlock

import (
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/violin0622/fairlock/permit"
)

type Option[T any] func(*Mutex[T])

// WithName names the mutex in logs, metric labels and spans.
func WithName[T any](name string) Option[T] {
	return func(m *Mutex[T]) { m.name = name }
}

func WithLogr[T any](l logr.Logger) Option[T] {
	return func(m *Mutex[T]) { m.log = l }
}

// WithPermitSource replaces the default capacity 1 permit source. The
// source must belong to this mutex alone and must never be closed while
// the mutex is in use.
func WithPermitSource[T any](ps PermitSource) Option[T] {
	return func(m *Mutex[T]) { m.ps = ps }
}

// WithSource is WithPermitSource for a permit.Source.
func WithSource[T any](s *permit.Source) Option[T] {
	return func(m *Mutex[T]) { m.ps = FromSource(s) }
}

// WithMetrics registers the mutex's Prometheus collectors on reg. Mutexes
// sharing a registry must have distinct names.
func WithMetrics[T any](reg prometheus.Registerer) Option[T] {
	return func(m *Mutex[T]) { m.reg = reg }
}

// WithTracer records a span for every Lock call.
func WithTracer[T any](tp trace.TracerProvider) Option[T] {
	return func(m *Mutex[T]) { m.tracer = tp.Tracer(tracerName) }
}

// WithOnPanic registers callbacks run by Do after a panicking critical
// section has released the lock and before the panic is re-raised.
func WithOnPanic[T any](fn ...func(any)) Option[T] {
	return func(m *Mutex[T]) {
		m.onPanic = append(m.onPanic, fn...)
	}
}
