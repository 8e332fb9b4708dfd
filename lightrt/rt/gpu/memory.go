package gpu

import "fmt"

// MemoryDevice is a CPU-only Device. Buffers keep their bytes so tests can
// inspect exactly what a shader would read.
type MemoryDevice struct {
	limits   Limits
	Buffers  []*MemoryBuffer
	Textures []*MemoryTexture
}

func NewMemoryDevice() *MemoryDevice {
	return NewMemoryDeviceWithLimits(Limits{
		MaxTextureArrayLayers: 256,
		MaxTextureDimension2D: 8192,
	})
}

func NewMemoryDeviceWithLimits(limits Limits) *MemoryDevice {
	return &MemoryDevice{limits: limits}
}

func (d *MemoryDevice) Limits() Limits { return d.limits }

func (d *MemoryDevice) CreateBuffer(label string, size uint64) Buffer {
	b := &MemoryBuffer{label: label, data: make([]byte, alignedSize(size))}
	d.Buffers = append(d.Buffers, b)
	return b
}

func (d *MemoryDevice) CreateShadowTexture(desc TextureDesc) Texture {
	t := &MemoryTexture{desc: desc}
	d.Textures = append(d.Textures, t)
	return t
}

// Buffer returns the first live buffer with the given label.
func (d *MemoryDevice) Buffer(label string) *MemoryBuffer {
	for _, b := range d.Buffers {
		if b.label == label && !b.Released {
			return b
		}
	}
	return nil
}

type MemoryBuffer struct {
	label    string
	data     []byte
	Writes   int
	Released bool
}

func (b *MemoryBuffer) Label() string { return b.label }

func (b *MemoryBuffer) Size() uint64 { return uint64(len(b.data)) }

func (b *MemoryBuffer) Write(offset uint64, data []byte) {
	if b.Released {
		panic(fmt.Errorf("write to released buffer %q", b.label))
	}
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		panic(fmt.Errorf("%w: buffer %q offset %d + %d > %d", ErrQueueOverflow, b.label, offset, len(data), len(b.data)))
	}
	copy(b.data[offset:], data)
	b.Writes++
}

func (b *MemoryBuffer) Release() { b.Released = true }

// Bytes returns a copy of the buffer contents.
func (b *MemoryBuffer) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

type MemoryTexture struct {
	desc     TextureDesc
	Released bool
}

func (t *MemoryTexture) Desc() TextureDesc { return t.desc }

func (t *MemoryTexture) Release() { t.Released = true }
