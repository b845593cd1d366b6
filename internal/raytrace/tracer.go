// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raytrace

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/lensflare/lens"
)

// ErrInvalidJob is returned when a Job's buffer does not match its ghost
// list or grid size.
var ErrInvalidJob = errors.New("raytrace: invalid job")

// Job is one frame's worth of ray tracing.
type Job struct {
	System *lens.System
	Ghosts []lens.Ghost
	Params Params

	// Mask is sampled at the aperture stop. Nil clips to the stop radius.
	Mask MaskSampler

	// Out receives the results. It must be sized for Ghosts and
	// Params.Tessellation.
	Out *Buffer
}

// Validate reports whether the job can be dispatched.
func (j *Job) Validate() error {
	t := j.Params.Tessellation
	switch {
	case j.System == nil:
		return fmt.Errorf("%w: no lens system", ErrInvalidJob)
	case j.Out == nil:
		return fmt.Errorf("%w: no output buffer", ErrInvalidJob)
	case t < 2:
		return fmt.Errorf("%w: tessellation %d < 2", ErrInvalidJob, t)
	case j.Out.Ghosts != len(j.Ghosts) || j.Out.Tessellation != t:
		return fmt.Errorf("%w: buffer is %d ghosts x %d, job is %d ghosts x %d",
			ErrInvalidJob, j.Out.Ghosts, j.Out.Tessellation, len(j.Ghosts), t)
	case j.Params.PlateSize <= 0:
		return fmt.Errorf("%w: plate size %v", ErrInvalidJob, j.Params.PlateSize)
	}
	return nil
}

// ResolvePupil fills Params.Pupil with FindPupil when it is unset.
func (j *Job) ResolvePupil() {
	if j.Params.Pupil.Radius > 0 || j.System == nil {
		return
	}
	j.Params.Pupil = FindPupil(j.System, j.Params.LightDir, j.Params.Stop, j.Mask)
}

// Fence resolves when every write of a dispatch has landed in the Job's
// output buffer. Reading the buffer before Wait returns is a data race.
type Fence interface {
	Wait(ctx context.Context) error
}

// Tracer executes ray-trace jobs.
type Tracer interface {
	// Name identifies the tracer in logs.
	Name() string

	// Dispatch starts the job and returns without waiting for it.
	Dispatch(ctx context.Context, job Job) (Fence, error)

	// Close releases the tracer's resources.
	Close()
}
