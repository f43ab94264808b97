package fairlock

import (
	"context"

	"github.com/violin0622/fairlock/permit"
)

// PermitSource hands out permits of a capacity-1 counting semaphore.
// Acquire must serve waiters first-in-first-out and must not keep any
// claim when it returns an error. TryAcquire must not grant a permit while
// other callers are queued.
type PermitSource interface {
	Acquire(context.Context) (Permit, error)
	TryAcquire() (Permit, bool)
}

// Permit is a held unit of capacity. Release must not block.
type Permit interface {
	Release()
}

// FromSource adapts a permit.Source to a PermitSource.
func FromSource(s *permit.Source) PermitSource {
	return source{s}
}

type source struct{ s *permit.Source }

func (s source) Acquire(ctx context.Context) (Permit, error) {
	p, err := s.s.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s source) TryAcquire() (Permit, bool) {
	p, ok := s.s.TryAcquire()
	if !ok {
		return nil, false
	}
	return p, true
}
