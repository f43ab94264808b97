package fairlock

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = `github.com/violin0622/fairlock`

func (m *Mutex[T]) tracedLock(ctx context.Context) (*Guard[T], error) {
	ctx, span := m.tracer.Start(ctx, `fairlock.Lock`,
		trace.WithAttributes(attribute.String(`fairlock.mutex`, m.name)))
	defer span.End()

	g, contended, err := m.lock(ctx)
	span.SetAttributes(attribute.Bool(`fairlock.contended`, contended))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return g, err
}
