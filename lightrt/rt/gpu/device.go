package gpu

// Limits are the device capabilities the lighting registry sizes its shadow
// textures against.
type Limits struct {
	MaxTextureArrayLayers uint32
	MaxTextureDimension2D uint32
}

// TextureDesc describes a depth-only shadow texture. Cube textures have
// 6*Layers array layers and are viewed as a cube array.
type TextureDesc struct {
	Label  string
	Size   uint32
	Layers uint32
	Cube   bool
}

// ArrayLayers is the number of 2D layers backing the texture.
func (d TextureDesc) ArrayLayers() uint32 {
	if d.Cube {
		return d.Layers * 6
	}
	return d.Layers
}

// Buffer is a GPU storage buffer that accepts sub-range uploads.
type Buffer interface {
	Label() string
	Size() uint64
	Write(offset uint64, data []byte)
	Release()
}

type Texture interface {
	Desc() TextureDesc
	Release()
}

// Device creates the GPU resources the lighting subsystem owns.
type Device interface {
	CreateBuffer(label string, size uint64) Buffer
	CreateShadowTexture(desc TextureDesc) Texture
	Limits() Limits
}

// Record is a fixed-size GPU struct stored in an array buffer.
type Record interface {
	Size() int
	Marshal() []byte
}

// alignedSize rounds n up to the 4-byte copy alignment WebGPU requires.
func alignedSize(n uint64) uint64 {
	if n%4 != 0 {
		n += 4 - (n % 4)
	}
	return n
}
