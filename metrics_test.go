package fairlock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/violin0622/fairlock"
)

func TestMutex_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := fairlock.New(0,
		fairlock.WithName[int](`orders`),
		fairlock.WithMetrics[int](reg),
	)
	ctx := context.Background()

	g, _ := m.Lock(ctx)
	cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if _, err := m.Lock(cctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got: %v", err)
	}
	g.Unlock()

	func() {
		defer func() { recover() }()
		m.Do(ctx, func(*int) error { panic(`boom`) })
	}()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 8 {
		t.Fatalf("expected 8 metric families, got %d", len(mfs))
	}

	for name, want := range map[string]float64{
		`fairlock_acquired_total`:  2,
		`fairlock_contended_total`: 0,
		`fairlock_cancelled_total`: 1,
		`fairlock_released_total`:  2,
		`fairlock_panics_total`:    1,
		`fairlock_waiters`:         0,
	} {
		got, err := gatheredValue(reg, name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != want {
			t.Errorf("%s: expected %v, got %v", name, want, got)
		}
	}

	n, err := testutil.GatherAndCount(reg, `fairlock_hold_seconds`, `fairlock_wait_seconds`)
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 2 {
		t.Errorf("expected hold and wait histograms, got %d", n)
	}
}

func TestMutex_MetricsDistinctNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	fairlock.New(0, fairlock.WithName[int](`a`), fairlock.WithMetrics[int](reg))
	fairlock.New(0, fairlock.WithName[int](`b`), fairlock.WithMetrics[int](reg))

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	fairlock.New(0, fairlock.WithName[int](`a`), fairlock.WithMetrics[int](reg))
}

func gatheredValue(g prometheus.Gatherer, name string) (float64, error) {
	mfs, err := g.Gather()
	if err != nil {
		return 0, err
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue(), nil
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue(), nil
			}
		}
	}
	return 0, errors.New(`metric not found`)
}
