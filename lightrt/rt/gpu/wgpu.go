package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// WgpuDevice backs the lighting queues and shadow textures with real WebGPU
// resources.
type WgpuDevice struct {
	Device *wgpu.Device
	limits Limits

	// Only set when the device was created by NewHeadlessWgpuDevice.
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
}

// NewWgpuDevice wraps an existing device. limits should be the limits the
// device was requested with.
func NewWgpuDevice(device *wgpu.Device, limits wgpu.Limits) *WgpuDevice {
	return &WgpuDevice{
		Device: device,
		limits: Limits{
			MaxTextureArrayLayers: limits.MaxTextureArrayLayers,
			MaxTextureDimension2D: limits.MaxTextureDimension2D,
		},
	}
}

// NewHeadlessWgpuDevice requests an adapter and device without a surface.
func NewHeadlessWgpuDevice() (*WgpuDevice, error) {
	instance := wgpu.CreateInstance(nil)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, err
	}

	limits := wgpu.DefaultLimits()
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Lighting Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, err
	}

	d := NewWgpuDevice(device, limits)
	d.instance = instance
	d.adapter = adapter
	return d, nil
}

func (d *WgpuDevice) Limits() Limits { return d.limits }

func (d *WgpuDevice) CreateBuffer(label string, size uint64) Buffer {
	desc := &wgpu.BufferDescriptor{
		Label:            label,
		Size:             alignedSize(size),
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	}
	buf, err := d.Device.CreateBuffer(desc)
	if err != nil {
		panic(err)
	}
	queue := d.Device.GetQueue()
	return &wgpuBuffer{
		label: label,
		size:  desc.Size,
		buf:   buf,
		write: func(offset uint64, data []byte) error {
			return queue.WriteBuffer(buf, offset, data)
		},
	}
}

// CreateShadowTexture allocates a Depth32Float 2D array. Cube textures get a
// cube-array view, the rest a 2D-array view.
func (d *WgpuDevice) CreateShadowTexture(desc TextureDesc) Texture {
	tex, err := d.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Size,
			Height:             desc.Size,
			DepthOrArrayLayers: desc.ArrayLayers(),
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		panic(err)
	}

	dim := wgpu.TextureViewDimension2DArray
	if desc.Cube {
		dim = wgpu.TextureViewDimensionCubeArray
	}
	view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           desc.Label + " View",
		Format:          wgpu.TextureFormatDepth32Float,
		Dimension:       dim,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: desc.ArrayLayers(),
		Aspect:          wgpu.TextureAspectDepthOnly,
	})
	if err != nil {
		panic(err)
	}

	return &WgpuTexture{desc: desc, Texture: tex, View: view}
}

// Release frees the device if this WgpuDevice created it.
func (d *WgpuDevice) Release() {
	if d.instance == nil {
		return
	}
	d.Device.Release()
	d.adapter.Release()
	d.instance.Release()
	d.instance = nil
}

type wgpuBuffer struct {
	label string
	size  uint64
	buf   *wgpu.Buffer
	write func(offset uint64, data []byte) error
}

func (b *wgpuBuffer) Label() string { return b.label }

func (b *wgpuBuffer) Size() uint64 { return b.size }

func (b *wgpuBuffer) Write(offset uint64, data []byte) {
	if len(data) == 0 {
		return
	}
	if err := b.write(offset, data); err != nil {
		panic(err)
	}
}

func (b *wgpuBuffer) Release() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
}

// Raw exposes the underlying buffer for bind group creation.
func (b *wgpuBuffer) Raw() *wgpu.Buffer { return b.buf }

type WgpuTexture struct {
	desc    TextureDesc
	Texture *wgpu.Texture
	View    *wgpu.TextureView
}

func (t *WgpuTexture) Desc() TextureDesc { return t.desc }

func (t *WgpuTexture) Release() {
	if t.View != nil {
		t.View.Release()
		t.View = nil
	}
	if t.Texture != nil {
		t.Texture.Release()
		t.Texture = nil
	}
}
