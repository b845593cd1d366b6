// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package parallel

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// Pool Creation Tests
// =============================================================================

func TestPool_Create(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("pool should be running after creation")
	}
}

func TestPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -3} {
		pool := NewPool(n)
		if pool.Workers() != runtime.GOMAXPROCS(0) {
			t.Errorf("NewPool(%d).Workers() = %d, want GOMAXPROCS", n, pool.Workers())
		}
		pool.Close()
	}
}

// =============================================================================
// Dispatch Tests
// =============================================================================

func TestPool_RunCoversRange(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	tests := []struct {
		name     string
		n, grain int
	}{
		{"exact chunks", 64, 8},
		{"ragged tail", 65, 8},
		{"grain larger than range", 5, 100},
		{"grain zero", 17, 0},
		{"single", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := make([]atomic.Int32, tt.n)
			if err := pool.Run(tt.n, tt.grain, func(i int) { hits[i].Add(1) }); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			for i := range hits {
				if got := hits[i].Load(); got != 1 {
					t.Errorf("index %d processed %d times, want 1", i, got)
				}
			}
		})
	}
}

func TestPool_RunEmpty(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	called := false
	if err := pool.Run(0, 4, func(int) { called = true }); err != nil {
		t.Fatalf("Run(0) error = %v", err)
	}
	if called {
		t.Error("fn called for an empty range")
	}
}

func TestPool_StartFenceIsBarrier(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	const n = 1000
	out := make([]int, n)
	fence, err := pool.Start(n, 16, func(i int) {
		if i%100 == 0 {
			time.Sleep(time.Millisecond)
		}
		out[i] = i * 2
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	fence.Wait()

	if !fence.Complete() {
		t.Error("Complete() = false after Wait")
	}
	for i, v := range out {
		if v != i*2 {
			t.Fatalf("out[%d] = %d after barrier, want %d", i, v, i*2)
		}
	}
}

func TestPool_Closed(t *testing.T) {
	pool := NewPool(2)
	pool.Close()
	pool.Close() // idempotent

	if pool.IsRunning() {
		t.Error("IsRunning() = true after Close")
	}
	if _, err := pool.Start(4, 1, func(int) {}); !errors.Is(err, ErrClosed) {
		t.Errorf("Start() on closed pool error = %v, want ErrClosed", err)
	}
	if err := pool.Run(4, 1, func(int) {}); !errors.Is(err, ErrClosed) {
		t.Errorf("Run() on closed pool error = %v, want ErrClosed", err)
	}
}

// =============================================================================
// Fence Tests
// =============================================================================

func TestPool_StartRacingClose(t *testing.T) {
	// Every fence Start hands out must resolve, even when Close runs at
	// the same time.
	for range 200 {
		pool := NewPool(2)
		fences := make(chan *Fence, 16)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range cap(fences) {
				f, err := pool.Start(64, 1, func(int) {})
				if err != nil {
					if !errors.Is(err, ErrClosed) {
						t.Errorf("Start() = %v, want ErrClosed", err)
					}
					continue
				}
				fences <- f
			}
		}()
		pool.Close()
		wg.Wait()
		close(fences)

		for f := range fences {
			select {
			case <-f.Done():
			case <-time.After(5 * time.Second):
				t.Fatal("fence of a dispatch accepted during Close never resolved")
			}
		}
	}
}

func TestSignaled(t *testing.T) {
	f := Signaled()
	if !f.Complete() {
		t.Error("Signaled().Complete() = false")
	}
	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("Signaled().Done() not closed")
	}
	f.Wait()
}

func BenchmarkPool_Run(b *testing.B) {
	pool := NewPool(0)
	defer pool.Close()
	sink := make([]float32, 1<<16)

	b.ResetTimer()
	for b.Loop() {
		_ = pool.Run(len(sink), 256, func(i int) { sink[i] += 1 })
	}
}
