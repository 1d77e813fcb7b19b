//go:build !nogpu

package gpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/fractal"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop device and queue for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// skipUnsupported skips when the shader compiler does not support a
// construct used by the escape shader yet.
func skipUnsupported(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		return
	}
	msg := err.Error()
	if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
		t.Skipf("shader compiler limitation: %v", err)
	}
}

func TestEscapeShaderCompiles(t *testing.T) {
	spirvBytes, err := naga.Compile(escapeShaderWGSL)
	skipUnsupported(t, err)
	if err != nil {
		t.Fatalf("naga.Compile() error: %v", err)
	}
	if len(spirvBytes) < 20 {
		t.Fatalf("SPIR-V too short: %d bytes", len(spirvBytes))
	}

	code, err := compileSPIRV(escapeShaderWGSL)
	if err != nil {
		t.Fatalf("compileSPIRV() error: %v", err)
	}
	if code[0] != spirvMagic {
		t.Errorf("SPIR-V magic = %#x, want %#x", code[0], spirvMagic)
	}
	if len(code)*4 != len(spirvBytes) {
		t.Errorf("word count = %d, want %d", len(code), len(spirvBytes)/4)
	}
}

func TestEscapeShaderSource(t *testing.T) {
	for _, want := range []string{"@compute", "@workgroup_size(8, 8, 1)", "fn main", "var<uniform> params"} {
		if !strings.Contains(escapeShaderWGSL, want) {
			t.Errorf("escape.wgsl does not contain %q", want)
		}
	}
}

func TestCompileSPIRV_InvalidSource(t *testing.T) {
	if _, err := compileSPIRV("this is not wgsl"); err == nil {
		t.Error("compileSPIRV(garbage) error = nil, want error")
	}
}

func TestNewEvaluatorWithDevice_Nil(t *testing.T) {
	_, err := NewEvaluatorWithDevice(nil, nil)
	if !errors.Is(err, fractal.ErrFallbackToCPU) {
		t.Errorf("NewEvaluatorWithDevice(nil, nil) error = %v, want ErrFallbackToCPU", err)
	}
}

func TestEvaluator_NoopDevice(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	e, err := NewEvaluatorWithDevice(device, queue)
	skipUnsupported(t, err)
	if err != nil {
		t.Fatalf("NewEvaluatorWithDevice() error: %v", err)
	}
	defer e.Close()

	if !e.Ready() {
		t.Fatal("Ready() = false after pipeline creation")
	}
	if e.Name() != "wgpu-escape" {
		t.Errorf("Name() = %q, want wgpu-escape", e.Name())
	}

	// No frame yet.
	if err := e.ReadFrame(fractal.NewPixmap(4, 4)); err == nil {
		t.Error("ReadFrame before Publish error = nil, want error")
	}

	st := fractal.NewState(20, 12)
	params := fractal.GPUParamsFor(&st)
	if err := e.Publish(params); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if e.width != 20 || e.height != 12 {
		t.Errorf("frame size = %dx%d, want 20x12", e.width, e.height)
	}
	if err := e.ReadFrame(fractal.NewPixmap(20, 12)); err != nil {
		t.Errorf("ReadFrame() error: %v", err)
	}
	if err := e.ReadFrame(fractal.NewPixmap(10, 10)); err == nil {
		t.Error("ReadFrame(wrong size) error = nil, want error")
	}

	// Resize rebuilds the frame resources.
	_ = st.SetViewport(33, 7)
	if err := e.Publish(fractal.GPUParamsFor(&st)); err != nil {
		t.Fatalf("Publish() after resize error: %v", err)
	}
	if e.width != 33 || e.height != 7 {
		t.Errorf("frame size = %dx%d, want 33x7", e.width, e.height)
	}
}

func TestEvaluator_ClosedFallsBack(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	e, err := NewEvaluatorWithDevice(device, queue)
	skipUnsupported(t, err)
	if err != nil {
		t.Fatalf("NewEvaluatorWithDevice() error: %v", err)
	}
	e.Close()
	e.Close()

	st := fractal.NewState(8, 8)
	if err := e.Publish(fractal.GPUParamsFor(&st)); !errors.Is(err, fractal.ErrFallbackToCPU) {
		t.Errorf("Publish after Close error = %v, want ErrFallbackToCPU", err)
	}
}

func TestEvaluator_EmptyViewport(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	e, err := NewEvaluatorWithDevice(device, queue)
	skipUnsupported(t, err)
	if err != nil {
		t.Fatalf("NewEvaluatorWithDevice() error: %v", err)
	}
	defer e.Close()

	if err := e.Publish(fractal.GPUParams{}); err == nil {
		t.Error("Publish(empty) error = nil, want error")
	}
}

func TestEvaluator_SetDeviceProviderRejects(t *testing.T) {
	e := &Evaluator{}
	if err := e.SetDeviceProvider(struct{}{}); err == nil {
		t.Error("SetDeviceProvider(struct{}) error = nil, want error")
	}
}

type halProviderStub struct {
	device hal.Device
	queue  hal.Queue
}

func (p halProviderStub) HalDevice() any { return p.device }
func (p halProviderStub) HalQueue() any  { return p.queue }

func TestEvaluator_SetDeviceProvider(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	e := &Evaluator{}
	err := e.SetDeviceProvider(halProviderStub{device: device, queue: queue})
	skipUnsupported(t, err)
	if err != nil {
		t.Fatalf("SetDeviceProvider() error: %v", err)
	}
	if !e.Ready() {
		t.Error("Ready() = false after SetDeviceProvider")
	}
	e.Close()
}

func TestUnpackPixels(t *testing.T) {
	packed := []byte{1, 2, 3, 4, 0xff, 0, 0x80, 0xff}
	dst := make([]uint8, 8)
	unpackPixels(packed, dst, 2)
	for i := range packed {
		if dst[i] != packed[i] {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], packed[i])
		}
	}
}
