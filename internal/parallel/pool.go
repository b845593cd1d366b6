// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel runs data-parallel kernels on a fixed set of goroutines.
//
// It is the CPU stand-in for a compute device: a dispatch splits an index
// range into work items, queues them on per-worker channels and hands back
// a [Fence]. Waiting on the fence is the barrier that makes every write of
// the dispatch visible to the caller.
package parallel

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when work is dispatched to a closed pool.
var ErrClosed = errors.New("parallel: pool is closed")

// Pool is a set of worker goroutines with per-worker queues.
//
// Workers pull from their own queue first and steal from the others when it
// runs dry, which keeps uneven work items (ghost rows that miss the lens
// early versus rows that trace all the way through) balanced.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	// mu is held shared while Start queues work and exclusively while
	// Close shuts the workers down, so no work lands on a stopped queue.
	mu sync.RWMutex

	// next spreads dispatches across queues round-robin.
	next atomic.Uint64
}

// NewPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)
	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case <-p.done:
			drain(own)
			return
		case work := <-own:
			work()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				drain(own)
				return
			case work := <-own:
				work()
			}
		}
	}
}

func drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}

func (p *Pool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case work := <-p.queues[i]:
			return work
		default:
		}
	}
	return nil
}

// Start dispatches fn over the index range [0, n) in chunks of at most
// grain indices and returns immediately. The returned fence resolves once
// every index has been processed.
//
// fn must be safe to call concurrently for distinct indices. It must not
// call Start on the same pool.
func (p *Pool) Start(n, grain int, fn func(i int)) (*Fence, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running.Load() {
		return nil, ErrClosed
	}
	if grain <= 0 {
		grain = 1
	}

	chunks := (n + grain - 1) / grain
	if n <= 0 {
		chunks = 0
	}
	f := newFence(chunks)

	for c := range chunks {
		lo := c * grain
		hi := min(lo+grain, n)
		work := func() {
			defer f.signal()
			for i := lo; i < hi; i++ {
				fn(i)
			}
		}
		p.queues[int(p.next.Add(1)%uint64(p.workers))] <- work //nolint:gosec // workers > 0
	}
	return f, nil
}

// Run is Start followed by Wait.
func (p *Pool) Run(n, grain int, fn func(i int)) error {
	f, err := p.Start(n, grain, fn)
	if err != nil {
		return err
	}
	f.Wait()
	return nil
}

// Close stops accepting work, finishes what is queued and stops the
// workers. Close is safe to call multiple times.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool accepts work.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// Fence tracks completion of one dispatch.
type Fence struct {
	pending atomic.Int64
	done    chan struct{}
}

func newFence(count int) *Fence {
	f := &Fence{done: make(chan struct{})}
	f.pending.Store(int64(count))
	if count == 0 {
		close(f.done)
	}
	return f
}

// Signaled returns a fence that is already complete.
func Signaled() *Fence {
	return newFence(0)
}

func (f *Fence) signal() {
	if f.pending.Add(-1) == 0 {
		close(f.done)
	}
}

// Wait blocks until every work item of the dispatch has returned.
func (f *Fence) Wait() {
	<-f.done
}

// Done returns a channel closed when the dispatch completes.
func (f *Fence) Done() <-chan struct{} {
	return f.done
}

// Complete reports whether the dispatch finished, without blocking.
func (f *Fence) Complete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
