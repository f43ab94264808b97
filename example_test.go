package fairlock_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-logr/logr/funcr"

	"github.com/violin0622/fairlock"
)

func Example() {
	counter := fairlock.New(0)
	ctx := context.Background()

	// Acquire the lock
	g, err := counter.Lock(ctx)
	if err != nil {
		fmt.Println("Failed to acquire lock:", err)
		return
	}

	// Critical section - only the guard holder can reach the value
	*g.Value() += 1
	fmt.Println("Counter:", g.Get())

	// Release the lock
	g.Unlock()

	fmt.Println("Done")
	// Output:
	// Counter: 1
	// Done
}

func Example_concurrent() {
	counter := fairlock.New(0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			for range 100 {
				g, err := counter.Lock(ctx)
				if err != nil {
					return
				}
				*g.Value()++
				g.Unlock()
			}
		})
	}
	wg.Wait()

	fmt.Println(counter)
	// Output:
	// Mutex{1000}
}

func ExampleMutex_Do() {
	balances := fairlock.New(map[string]int{"alice": 10})

	err := balances.Do(context.Background(), func(b *map[string]int) error {
		if (*b)["alice"] < 20 {
			return fmt.Errorf("insufficient funds: %d", (*b)["alice"])
		}
		(*b)["alice"] -= 20
		return nil
	})
	fmt.Println(err)
	// Output:
	// insufficient funds: 10
}

func ExampleMutex_TryLock() {
	m := fairlock.New("idle")

	g, _ := m.TryLock()
	if _, ok := m.TryLock(); !ok {
		fmt.Println("busy")
	}
	g.Unlock()

	if g, ok := m.TryLock(); ok {
		fmt.Println("acquired:", g.Get())
		g.Unlock()
	}
	// Output:
	// busy
	// acquired: idle
}

func Example_cancelWait() {
	m := fairlock.New(0)
	held, _ := m.Lock(context.Background())

	// Give up waiting after 10ms, the holder is unaffected.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := m.Lock(ctx); err != nil {
		fmt.Println("Lock:", err)
	}

	held.Unlock()
	fmt.Println(m)
	// Output:
	// Lock: context deadline exceeded
	// Mutex{0}
}

func Example_nonPoisoning() {
	m := fairlock.New(0)

	func() {
		defer func() { fmt.Println("recovered:", recover()) }()
		m.Do(context.Background(), func(n *int) error {
			*n = 1
			panic("half way")
		})
	}()

	// The lock was released; the partial update is kept.
	fmt.Println(m)
	// Output:
	// recovered: half way
	// Mutex{1}
}

func Example_stats() {
	m := fairlock.New(0)
	ctx := context.Background()

	// Perform some lock operations
	for range 3 {
		g, _ := m.Lock(ctx)
		g.Unlock()
	}

	// Try to lock while already locked (will fail)
	g, _ := m.TryLock()
	m.TryLock()
	g.Unlock()

	// Get statistics snapshot
	stats := m.Stats()
	fmt.Printf("Acquired: %d\n", stats.LockAcquired)
	fmt.Printf("Released: %d\n", stats.LockReleased)
	fmt.Printf("Contended: %d\n", stats.LockContended)

	// Output:
	// Acquired: 4
	// Released: 4
	// Contended: 0
}

func Example_logging() {
	log := funcr.New(func(prefix, args string) {
		fmt.Fprintln(os.Stderr, prefix, args)
	}, funcr.Options{Verbosity: 1})

	m := fairlock.New(0,
		fairlock.WithName[int]("jobs"),
		fairlock.WithLogr[int](log),
	)

	g, _ := m.Lock(context.Background())
	defer g.Unlock()
}
