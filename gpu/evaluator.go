//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/fractal"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// workgroupSize matches @workgroup_size in escape.wgsl.
const workgroupSize = 8

// fenceTimeout bounds the wait for one frame.
const fenceTimeout = 5 * time.Second

// errNoFrame is returned by ReadFrame before the first successful Publish.
var errNoFrame = errors.New("gpu: no frame rendered yet")

// Evaluator renders escape-time frames with a wgpu/hal compute shader.
// It implements fractal.GPUEvaluator and fractal.FrameReader.
//
// Each Publish uploads the parameter block, dispatches one invocation per
// pixel in 8×8 workgroups and reads the packed RGBA result back into host
// memory, where ReadFrame picks it up.
type Evaluator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	// Per-size resources, rebuilt when the viewport changes.
	uniformBuf hal.Buffer
	storageBuf hal.Buffer
	stagingBuf hal.Buffer
	bindGroup  hal.BindGroup
	width      uint32
	height     uint32

	frame      []byte
	frameReady bool

	gpuReady       bool
	externalDevice bool // true when using a shared device (don't destroy on Close)
}

var (
	_ fractal.GPUEvaluator        = (*Evaluator)(nil)
	_ fractal.FrameReader         = (*Evaluator)(nil)
	_ fractal.DeviceProviderAware = (*Evaluator)(nil)
)

// NewEvaluator opens a Vulkan adapter, preferring discrete or integrated
// GPUs, and builds the compute pipeline.
func NewEvaluator() (*Evaluator, error) {
	e := &Evaluator{}
	if err := e.initGPU(); err != nil {
		e.Close()
		return nil, fmt.Errorf("%w: %w", fractal.ErrFallbackToCPU, err)
	}
	return e, nil
}

// NewEvaluatorWithDevice builds the compute pipeline on a device owned by
// the caller. Close releases the pipeline but leaves the device alone.
func NewEvaluatorWithDevice(device hal.Device, queue hal.Queue) (*Evaluator, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: nil device or queue", fractal.ErrFallbackToCPU)
	}
	e := &Evaluator{device: device, queue: queue, externalDevice: true}
	if err := e.createPipeline(); err != nil {
		e.destroyPipeline()
		return nil, fmt.Errorf("%w: %w", fractal.ErrFallbackToCPU, err)
	}
	e.gpuReady = true
	return e, nil
}

// Name implements fractal.GPUEvaluator.
func (e *Evaluator) Name() string { return "wgpu-escape" }

// SetLogger implements the logger hook used by fractal.SetLogger.
func (e *Evaluator) SetLogger(l *slog.Logger) { setLogger(l) }

// Ready reports whether the pipeline is usable.
func (e *Evaluator) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gpuReady
}

// SetDeviceProvider switches the evaluator to a GPU device shared by the
// host application. The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func (e *Evaluator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.destroyFrameResources()
	e.destroyPipeline()
	e.releaseDevice()

	e.device = device
	e.queue = queue
	e.externalDevice = true

	if err := e.createPipeline(); err != nil {
		e.gpuReady = false
		return fmt.Errorf("gpu: create pipeline with shared device: %w", err)
	}
	e.gpuReady = true
	slogger().Debug("gpu: switched to shared GPU device")
	return nil
}

// Publish renders one frame for p. It returns fractal.ErrFallbackToCPU when
// the pipeline is not ready.
func (e *Evaluator) Publish(p fractal.GPUParams) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.gpuReady {
		return fractal.ErrFallbackToCPU
	}
	if p.Width == 0 || p.Height == 0 {
		return fmt.Errorf("gpu: empty viewport %dx%d", p.Width, p.Height)
	}
	if err := e.ensureFrameResources(p.Width, p.Height); err != nil {
		return err
	}

	e.queue.WriteBuffer(e.uniformBuf, 0, p.Bytes())
	if err := e.dispatch(); err != nil {
		e.frameReady = false
		return err
	}
	e.frameReady = true
	return nil
}

// ReadFrame copies the last rendered frame into dst, which must match the
// published viewport size.
func (e *Evaluator) ReadFrame(dst *fractal.Pixmap) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.frameReady {
		return errNoFrame
	}
	if dst.Width() != int(e.width) || dst.Height() != int(e.height) {
		return fmt.Errorf("gpu: frame is %dx%d, destination is %dx%d",
			e.width, e.height, dst.Width(), dst.Height())
	}
	unpackPixels(e.frame, dst.Data(), int(e.width*e.height))
	return nil
}

// Close releases GPU resources. A shared device is left to its owner.
func (e *Evaluator) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.destroyFrameResources()
	e.destroyPipeline()
	e.releaseDevice()
	e.gpuReady = false
	e.frameReady = false
}

func (e *Evaluator) releaseDevice() {
	if !e.externalDevice {
		if e.device != nil {
			e.device.Destroy()
		}
		if e.instance != nil {
			e.instance.Destroy()
		}
	}
	e.device = nil
	e.queue = nil
	e.instance = nil
	e.externalDevice = false
}

func (e *Evaluator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	e.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
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
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	e.device = openDev.Device
	e.queue = openDev.Queue

	if err := e.createPipeline(); err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	e.gpuReady = true
	slogger().Info("gpu: escape-time evaluator initialized", "adapter", selected.Info.Name)
	return nil
}

func (e *Evaluator) createPipeline() error {
	code, err := compileSPIRV(escapeShaderWGSL)
	if err != nil {
		return err
	}
	shader, err := e.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "escape",
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return fmt.Errorf("create escape shader module: %w", err)
	}
	e.shader = shader

	bindLayout, err := e.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "escape_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create escape bind group layout: %w", err)
	}
	e.bindLayout = bindLayout

	pipeLayout, err := e.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "escape_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{e.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create escape pipeline layout: %w", err)
	}
	e.pipeLayout = pipeLayout

	pipeline, err := e.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "escape_pipeline", Layout: e.pipeLayout,
		Compute: hal.ComputeState{Module: e.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create escape compute pipeline: %w", err)
	}
	e.pipeline = pipeline

	slogger().Debug("gpu: escape pipeline created", "spirv_words", len(code))
	return nil
}

func (e *Evaluator) destroyPipeline() {
	if e.device == nil {
		return
	}
	if e.pipeline != nil {
		e.device.DestroyComputePipeline(e.pipeline)
		e.pipeline = nil
	}
	if e.pipeLayout != nil {
		e.device.DestroyPipelineLayout(e.pipeLayout)
		e.pipeLayout = nil
	}
	if e.bindLayout != nil {
		e.device.DestroyBindGroupLayout(e.bindLayout)
		e.bindLayout = nil
	}
	if e.shader != nil {
		e.device.DestroyShaderModule(e.shader)
		e.shader = nil
	}
}

// ensureFrameResources (re)creates the uniform, storage and staging buffers
// and the bind group for a w × h frame.
func (e *Evaluator) ensureFrameResources(w, h uint32) error {
	if e.bindGroup != nil && e.width == w && e.height == h {
		return nil
	}
	e.destroyFrameResources()

	pixelBufSize := uint64(w) * uint64(h) * 4
	uniformSize := uint64(fractal.GPUParamsSize)

	var err error
	e.uniformBuf, err = e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "escape_params", Size: uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	e.storageBuf, err = e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "escape_pixels", Size: pixelBufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create storage buffer: %w", err)
	}
	e.stagingBuf, err = e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "escape_staging", Size: pixelBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	e.bindGroup, err = e.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "escape_bind", Layout: e.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: e.uniformBuf.NativeHandle(), Offset: 0, Size: uniformSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: e.storageBuf.NativeHandle(), Offset: 0, Size: pixelBufSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}

	e.width, e.height = w, h
	e.frame = make([]byte, pixelBufSize)
	e.frameReady = false
	slogger().Debug("gpu: frame buffers allocated", "width", w, "height", h, "bytes", pixelBufSize)
	return nil
}

func (e *Evaluator) destroyFrameResources() {
	if e.device != nil {
		if e.bindGroup != nil {
			e.device.DestroyBindGroup(e.bindGroup)
		}
		for _, b := range []hal.Buffer{e.uniformBuf, e.storageBuf, e.stagingBuf} {
			if b != nil {
				e.device.DestroyBuffer(b)
			}
		}
	}
	e.bindGroup = nil
	e.uniformBuf, e.storageBuf, e.stagingBuf = nil, nil, nil
	e.width, e.height = 0, 0
	e.frame = nil
}

// dispatch encodes one compute pass plus the readback copy, submits it and
// waits for the fence.
func (e *Evaluator) dispatch() error {
	pixelBufSize := uint64(e.width) * uint64(e.height) * 4

	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "escape_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("escape"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "escape_pass"})
	pass.SetPipeline(e.pipeline)
	pass.SetBindGroup(0, e.bindGroup, nil)
	pass.Dispatch((e.width+workgroupSize-1)/workgroupSize, (e.height+workgroupSize-1)/workgroupSize, 1)
	pass.End()

	encoder.CopyBufferToBuffer(e.storageBuf, e.stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: pixelBufSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer e.device.FreeCommandBuffer(cmdBuf)

	fence, err := e.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer e.device.DestroyFence(fence)
	if err := e.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := e.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	if err := e.queue.ReadBuffer(e.stagingBuf, 0, e.frame); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	return nil
}

// unpackPixels expands packed little-endian RGBA8 words into bytes.
func unpackPixels(packed []byte, dst []uint8, pixelCount int) {
	for i := 0; i < pixelCount; i++ {
		val := binary.LittleEndian.Uint32(packed[i*4:])
		j := i * 4
		dst[j+0] = uint8(val & 0xFF)         //nolint:gosec // masked to 8 bits
		dst[j+1] = uint8((val >> 8) & 0xFF)  //nolint:gosec // masked to 8 bits
		dst[j+2] = uint8((val >> 16) & 0xFF) //nolint:gosec // masked to 8 bits
		dst[j+3] = uint8((val >> 24) & 0xFF) //nolint:gosec // masked to 8 bits
	}
}
