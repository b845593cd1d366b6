// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raytrace

import (
	"context"

	"github.com/gogpu/lensflare/internal/parallel"
)

// CPU traces on a worker pool. One work item is one grid row of one ghost.
type CPU struct {
	pool  *parallel.Pool
	owned bool
}

// NewCPU returns a tracer using pool. If pool is nil the tracer starts and
// owns a pool sized to GOMAXPROCS.
func NewCPU(pool *parallel.Pool) *CPU {
	if pool == nil {
		return &CPU{pool: parallel.NewPool(0), owned: true}
	}
	return &CPU{pool: pool}
}

// Name returns "cpu".
func (c *CPU) Name() string { return "cpu" }

// rowGrain is the number of grid rows per work item.
const rowGrain = 4

// Dispatch queues every row of every ghost on the pool.
func (c *CPU) Dispatch(ctx context.Context, job Job) (Fence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}

	job.ResolvePupil()

	t := job.Params.Tessellation
	out := job.Out
	rows := len(job.Ghosts) * t
	params := job.Params

	f, err := c.pool.Start(rows, rowGrain, func(r int) {
		g, row := r/t, r%t
		ghost := job.Ghosts[g]
		v := SampleCoord(row, t)
		base := out.Index(g, row, 0)
		for col := range t {
			out.Vertices[base+col] = TraceSample(job.System, ghost, &params, job.Mask, SampleCoord(col, t), v)
		}
	})
	if err != nil {
		return nil, err
	}
	return cpuFence{f}, nil
}

// Close stops the pool if the tracer owns it.
func (c *CPU) Close() {
	if c.owned {
		c.pool.Close()
	}
}

type cpuFence struct {
	f *parallel.Fence
}

// Wait always lets the dispatch finish so no worker still writes into the
// buffer after Wait returns, then reports cancellation.
func (f cpuFence) Wait(ctx context.Context) error {
	f.f.Wait()
	return ctx.Err()
}
