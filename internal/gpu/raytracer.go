//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unsafe"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/lensflare"
	"github.com/gogpu/lensflare/internal/aperture"
	"github.com/gogpu/lensflare/internal/raytrace"
	"github.com/gogpu/lensflare/lens"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// workgroupSize matches @workgroup_size in shaders/raytrace.wgsl.
const workgroupSize = 8

// waitTimeout bounds how long a fence waits for the GPU.
const waitTimeout = 5 * time.Second

// pollInterval is the sleep between completion polls.
const pollInterval = 50 * time.Microsecond

var (
	errNotReady = fmt.Errorf("%w: gpu-raytrace not initialized", lensflare.ErrFallbackToCPU)
	errBusy     = fmt.Errorf("%w: gpu-raytrace: previous dispatch not waited on", lensflare.ErrFallbackToCPU)
)

// RayTracer traces ghosts with a wgpu/hal compute shader. It implements
// lensflare.Accelerator.
//
// One dispatch covers every ghost of a frame: the grid is T x T samples
// per ghost and Z selects the ghost. Results are copied to a staging
// buffer and decoded into the job's output when the fence is waited on.
//
// Jobs it cannot run, and device errors during a dispatch, are reported
// as lensflare.ErrFallbackToCPU so the session traces on the CPU instead.
type RayTracer struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	dataLayout hal.BindGroupLayout
	uniLayout  hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	frame   *frameResources
	pending *fence
	builds  int // times frame resources were created

	adapter        string
	gpuReady       bool
	externalDevice bool // true when using shared device (don't destroy on Close)
}

var (
	_ lensflare.Accelerator         = (*RayTracer)(nil)
	_ lensflare.DeviceProviderAware = (*RayTracer)(nil)
)

// Name implements raytrace.Tracer.
func (a *RayTracer) Name() string { return "gpu" }

// Init opens the first hardware adapter and builds the compute pipeline.
// On failure the tracer stays unusable and the error is returned, so the
// accelerator is not registered.
func (a *RayTracer) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gpuReady {
		return nil
	}
	if err := a.initGPU(); err != nil {
		a.releaseDevice()
		return fmt.Errorf("gpu-raytrace: %w", err)
	}
	return nil
}

// SetLogger installs the package logger. lensflare.SetLogger calls it.
func (a *RayTracer) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Close releases the pipeline and, unless it was shared, the device.
func (a *RayTracer) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.releaseDevice()
}

func (a *RayTracer) releaseDevice() {
	if a.pending != nil && a.device != nil {
		// Buffers of an unwaited dispatch may still be in use.
		if err := a.device.WaitIdle(); err != nil {
			slogger().Warn("gpu-raytrace: wait idle", "err", err)
		}
		a.device.FreeCommandBuffer(a.pending.cmd)
	}
	a.pending = nil
	a.destroyFrame()
	a.destroyPipelines()
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
		}
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	a.device = nil
	a.instance = nil
	a.queue = nil
	a.gpuReady = false
	a.externalDevice = false
}

// Ready reports whether dispatches run on the GPU.
func (a *RayTracer) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gpuReady
}

// SetDeviceProvider switches the tracer to a GPU device owned by the host
// application.
//
// provider is a gpucontext.DeviceProvider whose Device and Queue are
// hal.Device and hal.Queue, or expose them through HalDevice() any and
// HalQueue() any. A provider with only HalDevice and HalQueue methods is
// accepted as well. Software adapters are declined: the CPU tracer is
// faster than a shader interpreter.
func (a *RayTracer) SetDeviceProvider(provider any) error {
	var devAny, queueAny any
	switch p := provider.(type) {
	case gpucontext.DeviceProvider:
		if info := p.AdapterInfo(); info.Type == gpucontext.AdapterTypeSoftware {
			return fmt.Errorf("gpu-raytrace: software adapter %q declined", info.Name)
		}
		devAny, queueAny = p.Device(), p.Queue()
	case halProvider:
		devAny, queueAny = p.HalDevice(), p.HalQueue()
	default:
		return errors.New("gpu-raytrace: provider does not expose HAL types")
	}
	device, ok := asHalDevice(devAny)
	if !ok {
		return errors.New("gpu-raytrace: provider device is not hal.Device")
	}
	queue, ok := asHalQueue(queueAny)
	if !ok {
		return errors.New("gpu-raytrace: provider queue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.releaseDevice()

	a.device = device
	a.queue = queue
	a.externalDevice = true
	a.adapter = "shared"
	if err := a.createPipelines(); err != nil {
		a.gpuReady = false
		return fmt.Errorf("gpu-raytrace: create pipelines with shared device: %w", err)
	}
	a.gpuReady = true
	slogger().Info("gpu-raytrace: switched to shared GPU device")
	return nil
}

type halProvider interface {
	HalDevice() any
	HalQueue() any
}

func asHalDevice(v any) (hal.Device, bool) {
	if d, ok := v.(hal.Device); ok && d != nil {
		return d, true
	}
	if h, ok := v.(interface{ HalDevice() any }); ok {
		d, ok := h.HalDevice().(hal.Device)
		return d, ok && d != nil
	}
	return nil, false
}

func asHalQueue(v any) (hal.Queue, bool) {
	if q, ok := v.(hal.Queue); ok && q != nil {
		return q, true
	}
	if h, ok := v.(interface{ HalQueue() any }); ok {
		q, ok := h.HalQueue().(hal.Queue)
		return q, ok && q != nil
	}
	return nil, false
}

// Dispatch submits one compute pass over every ghost of the job. The
// returned fence copies the results into job.Out.
//
// Buffers are created on the first dispatch for a System and ghost list
// and reused while those stay the same; later dispatches only rewrite the
// aperture mask and the parameter block. Only one dispatch may be in
// flight: a second one before the first fence is waited on falls back.
func (a *RayTracer) Dispatch(ctx context.Context, job raytrace.Job) (raytrace.Fence, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	var mask *aperture.Mask
	if job.Mask != nil {
		m, ok := job.Mask.(*aperture.Mask)
		if !ok {
			return nil, fmt.Errorf("%w: mask type %T", lensflare.ErrFallbackToCPU, job.Mask)
		}
		mask = m
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.gpuReady {
		return nil, errNotReady
	}
	if len(job.Ghosts) == 0 {
		return doneFence{}, nil
	}
	if a.pending != nil {
		return nil, errBusy
	}
	job.ResolvePupil()

	f, err := a.submit(&job, mask)
	if err != nil {
		slogger().Warn("gpu-raytrace: dispatch failed", "err", err)
		return nil, fmt.Errorf("%w: %w", lensflare.ErrFallbackToCPU, err)
	}
	a.pending = f
	return f, nil
}

// frameKey identifies what the persistent buffers were built for.
type frameKey struct {
	system       *lens.System
	ghosts       *lens.Ghost
	ghostCount   int
	tessellation int
	maskBytes    int
}

func newFrameKey(job *raytrace.Job, maskBytes int) frameKey {
	k := frameKey{
		system:       job.System,
		ghostCount:   len(job.Ghosts),
		tessellation: job.Params.Tessellation,
		maskBytes:    maskBytes,
	}
	if len(job.Ghosts) > 0 {
		k.ghosts = &job.Ghosts[0]
	}
	return k
}

// frameResources are the buffers and bind groups kept across dispatches.
type frameResources struct {
	key frameKey

	interfaces hal.Buffer
	ghosts     hal.Buffer
	results    hal.Buffer
	mask       hal.Buffer
	params     hal.Buffer
	staging    hal.Buffer
	resultSize uint64

	dataGroup hal.BindGroup
	uniGroup  hal.BindGroup
}

// frameFor returns the resources for job, rebuilding them when the job's
// System, ghost list, grid or mask size changed.
func (a *RayTracer) frameFor(job *raytrace.Job, maskBytes int) (*frameResources, error) {
	key := newFrameKey(job, maskBytes)
	if a.frame != nil && a.frame.key == key {
		return a.frame, nil
	}
	a.destroyFrame()

	r := &frameResources{key: key}
	if err := a.buildFrame(r, job); err != nil {
		a.frame = r
		a.destroyFrame()
		return nil, err
	}
	a.frame = r
	a.builds++
	slogger().Debug("gpu-raytrace: buffers allocated",
		"interfaces", job.System.Len(), "ghosts", key.ghostCount,
		"tessellation", key.tessellation, "result_bytes", r.resultSize)
	return r, nil
}

func (a *RayTracer) buildFrame(r *frameResources, job *raytrace.Job) error {
	ifBytes := packInterfaces(job.System.Interfaces)
	ghostBytes := packGhosts(job.Ghosts)
	r.resultSize = uint64(job.Out.Len()) * raytrace.VertexFloats * 4

	newBuf := func(dst *hal.Buffer, label string, size uint64, usage gputypes.BufferUsage) error {
		b, err := a.device.CreateBuffer(&hal.BufferDescriptor{Label: label, Size: size, Usage: usage})
		if err != nil {
			return fmt.Errorf("create %s buffer: %w", label, err)
		}
		*dst = b
		return nil
	}
	upload := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
	for _, b := range []struct {
		dst   *hal.Buffer
		label string
		size  uint64
		usage gputypes.BufferUsage
	}{
		{&r.interfaces, "flare_interfaces", uint64(len(ifBytes)), upload},
		{&r.ghosts, "flare_ghosts", uint64(len(ghostBytes)), upload},
		{&r.results, "flare_results", r.resultSize, gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc},
		{&r.mask, "flare_mask", uint64(r.key.maskBytes), upload},
		{&r.params, "flare_params", paramsBytes, gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst},
		{&r.staging, "flare_staging", r.resultSize, gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst},
	} {
		if err := newBuf(b.dst, b.label, b.size, b.usage); err != nil {
			return err
		}
	}

	// The lens and the ghost list only change with the key.
	if err := a.queue.WriteBuffer(r.interfaces, 0, ifBytes); err != nil {
		return fmt.Errorf("write interfaces: %w", err)
	}
	if err := a.queue.WriteBuffer(r.ghosts, 0, ghostBytes); err != nil {
		return fmt.Errorf("write ghosts: %w", err)
	}

	binding := func(b hal.Buffer, size uint64) gputypes.BufferBinding {
		return gputypes.BufferBinding{Buffer: b.NativeHandle(), Offset: 0, Size: size}
	}
	dataGroup, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "flare_data", Layout: a.dataLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: raytrace.SlotInterfaces, Resource: binding(r.interfaces, uint64(len(ifBytes)))},
			{Binding: raytrace.SlotGhosts, Resource: binding(r.ghosts, uint64(len(ghostBytes)))},
			{Binding: raytrace.SlotResults, Resource: binding(r.results, r.resultSize)},
			{Binding: raytrace.SlotApertureMask, Resource: binding(r.mask, uint64(r.key.maskBytes))},
		},
	})
	if err != nil {
		return fmt.Errorf("create data bind group: %w", err)
	}
	r.dataGroup = dataGroup

	uniGroup, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "flare_params", Layout: a.uniLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: raytrace.SlotParameters, Resource: binding(r.params, paramsBytes)},
		},
	})
	if err != nil {
		return fmt.Errorf("create params bind group: %w", err)
	}
	r.uniGroup = uniGroup
	return nil
}

func (a *RayTracer) destroyFrame() {
	r := a.frame
	a.frame = nil
	if r == nil || a.device == nil {
		return
	}
	for _, bg := range []hal.BindGroup{r.dataGroup, r.uniGroup} {
		if bg != nil {
			a.device.DestroyBindGroup(bg)
		}
	}
	for _, b := range []hal.Buffer{r.interfaces, r.ghosts, r.results, r.mask, r.params, r.staging} {
		if b != nil {
			a.device.DestroyBuffer(b)
		}
	}
}

func (a *RayTracer) submit(job *raytrace.Job, mask *aperture.Mask) (*fence, error) {
	maskBytes, maskRes := packMask(mask)
	r, err := a.frameFor(job, len(maskBytes))
	if err != nil {
		return nil, err
	}

	t := uint32(job.Params.Tessellation) //nolint:gosec // validated by Job.Validate
	ghosts := uint32(len(job.Ghosts))   //nolint:gosec // bounded by interface count
	params := packParams(&job.Params, job.System.Len(), len(job.Ghosts), maskRes)
	if err := a.queue.WriteBuffer(r.mask, 0, maskBytes); err != nil {
		return nil, fmt.Errorf("write mask: %w", err)
	}
	if err := a.queue.WriteBuffer(r.params, 0, params); err != nil {
		return nil, fmt.Errorf("write params: %w", err)
	}

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "flare_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("flare_raytrace"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "flare_raytrace_pass"})
	pass.SetPipeline(a.pipeline)
	pass.SetBindGroup(0, r.dataGroup, nil)
	pass.SetBindGroup(1, r.uniGroup, nil)
	groups := (t + workgroupSize - 1) / workgroupSize
	pass.Dispatch(groups, groups, ghosts)
	pass.End()

	encoder.CopyBufferToBuffer(r.results, r.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: r.resultSize},
	})
	cmd, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}

	idx, err := a.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		a.device.FreeCommandBuffer(cmd)
		return nil, fmt.Errorf("submit: %w", err)
	}
	slogger().Debug("gpu-raytrace: dispatched",
		"ghosts", ghosts, "tessellation", t, "workgroups", groups*groups*ghosts, "submission", idx)

	return &fence{
		tracer:     a,
		device:     a.device,
		submission: idx,
		frame:      r,
		cmd:        cmd,
		out:        job.Out,
	}, nil
}

// fence resolves one GPU dispatch. Wait is idempotent.
type fence struct {
	tracer     *RayTracer
	device     hal.Device
	submission uint64
	frame      *frameResources
	cmd        hal.CommandBuffer
	out        *raytrace.Buffer

	once sync.Once
	err  error
}

func (f *fence) Wait(ctx context.Context) error {
	f.once.Do(func() { f.err = f.wait(ctx) })
	return f.err
}

func (f *fence) wait(ctx context.Context) error {
	a := f.tracer
	err := f.poll(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending != f || a.device != f.device {
		return errors.New("gpu-raytrace: device released before dispatch completed")
	}
	a.pending = nil
	if err != nil {
		// The GPU may still own the command buffer.
		if idleErr := a.device.WaitIdle(); idleErr != nil {
			slogger().Warn("gpu-raytrace: wait idle", "err", idleErr)
		}
		a.device.FreeCommandBuffer(f.cmd)
		return err
	}
	a.device.FreeCommandBuffer(f.cmd)

	mapping, err := a.device.MapBuffer(f.frame.staging, 0, f.frame.resultSize)
	if err != nil {
		return fmt.Errorf("gpu-raytrace: map results: %w", err)
	}
	data := unsafe.Slice((*byte)(mapping.Ptr), f.frame.resultSize)
	unpackVertices(data, f.out.Vertices)
	if err := a.device.UnmapBuffer(f.frame.staging); err != nil {
		return fmt.Errorf("gpu-raytrace: unmap results: %w", err)
	}
	return nil
}

// poll blocks until the queue reports the submission complete.
func (f *fence) poll(ctx context.Context) error {
	deadline := time.Now().Add(waitTimeout)
	for {
		f.tracer.mu.Lock()
		q := f.tracer.queue
		done := q == nil || q.PollCompleted() >= f.submission
		f.tracer.mu.Unlock()
		if done {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("gpu-raytrace: submission %d not complete after %v", f.submission, waitTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// doneFence is returned for jobs with nothing to trace.
type doneFence struct{}

func (doneFence) Wait(context.Context) error { return nil }

func (a *RayTracer) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return errors.New("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return errors.New("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		return errors.New("no hardware GPU adapter found")
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue
	if err := a.createPipelines(); err != nil {
		return fmt.Errorf("create pipelines: %w", err)
	}
	a.adapter = selected.Info.Name
	a.gpuReady = true
	slogger().Info("gpu-raytrace: initialized", "adapter", selected.Info.Name)
	return nil
}

func (a *RayTracer) createPipelines() error {
	spirv, err := raytraceSPIRV()
	if err != nil {
		return err
	}
	shader, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "flare_raytrace",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("create raytrace shader: %w", err)
	}
	a.shader = shader

	storage := func(binding uint32, t gputypes.BufferBindingType) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding: binding, Visibility: gputypes.ShaderStageCompute,
			Buffer: &gputypes.BufferBindingLayout{Type: t},
		}
	}
	dataLayout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "flare_data_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			storage(raytrace.SlotInterfaces, gputypes.BufferBindingTypeReadOnlyStorage),
			storage(raytrace.SlotGhosts, gputypes.BufferBindingTypeReadOnlyStorage),
			storage(raytrace.SlotResults, gputypes.BufferBindingTypeStorage),
			storage(raytrace.SlotApertureMask, gputypes.BufferBindingTypeReadOnlyStorage),
		},
	})
	if err != nil {
		return fmt.Errorf("create data bind group layout: %w", err)
	}
	a.dataLayout = dataLayout

	uniLayout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "flare_params_layout",
		Entries: []gputypes.BindGroupLayoutEntry{storage(raytrace.SlotParameters, gputypes.BufferBindingTypeUniform)},
	})
	if err != nil {
		return fmt.Errorf("create params bind group layout: %w", err)
	}
	a.uniLayout = uniLayout

	pipeLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "flare_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{a.dataLayout, a.uniLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	a.pipeLayout = pipeLayout

	pipeline, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "flare_raytrace_pipeline", Layout: a.pipeLayout,
		Compute: hal.ComputeState{Module: a.shader, EntryPoint: raytraceEntryPoint},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	a.pipeline = pipeline
	return nil
}

func (a *RayTracer) destroyPipelines() {
	if a.device == nil {
		return
	}
	if a.pipeline != nil {
		a.device.DestroyComputePipeline(a.pipeline)
		a.pipeline = nil
	}
	if a.pipeLayout != nil {
		a.device.DestroyPipelineLayout(a.pipeLayout)
		a.pipeLayout = nil
	}
	if a.uniLayout != nil {
		a.device.DestroyBindGroupLayout(a.uniLayout)
		a.uniLayout = nil
	}
	if a.dataLayout != nil {
		a.device.DestroyBindGroupLayout(a.dataLayout)
		a.dataLayout = nil
	}
	if a.shader != nil {
		a.device.DestroyShaderModule(a.shader)
		a.shader = nil
	}
}

func (a *RayTracer) String() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.gpuReady {
		return "gpu-raytrace(not ready)"
	}
	return fmt.Sprintf("gpu-raytrace(%s)", a.adapter)
}
