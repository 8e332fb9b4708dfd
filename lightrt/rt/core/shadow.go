package core

import "github.com/go-gl/mathgl/mgl32"

const (
	// ShadowInfoSize is the std430 size of ShadowInfo in bytes.
	ShadowInfoSize = 80

	// BoundingSphereSize is the std430 size of BoundingSphere in bytes.
	BoundingSphereSize = 16

	DefaultShadowBias     float32 = 0.005
	DefaultShadowMaxBias  float32 = 0.05
	DefaultShadowFarClip  float32 = 10000.0
	DefaultShadowNearClip float32 = 1.0
)

// NoShadowMap marks a light that casts no shadow.
const NoShadowMap = -1

// ShadowInfo associates a light with a shadow-map layer.
//
// Layout (std430, 80 bytes):
//
//	vec4   map_index_biases_far_clip  offset  0  (layer, bias, max bias, far clip)
//	mat4x4 attributes_or_light_matrix offset 16
//
// For point lights only element (0,0) of the matrix is read, as a near-clip
// override. Directional and spot lights store projection * view.
type ShadowInfo struct {
	MapIndexBiasesFarClip   mgl32.Vec4
	AttributesOrLightMatrix mgl32.Mat4
}

func NewShadowInfo() ShadowInfo {
	s := ShadowInfo{
		MapIndexBiasesFarClip:   mgl32.Vec4{NoShadowMap, DefaultShadowBias, DefaultShadowMaxBias, DefaultShadowFarClip},
		AttributesOrLightMatrix: mgl32.Ident4(),
	}
	s.AttributesOrLightMatrix[0] = DefaultShadowNearClip
	return s
}

// EmptyShadowInfo is the sentinel every shadow record is seeded with.
func EmptyShadowInfo() ShadowInfo {
	return ShadowInfo{MapIndexBiasesFarClip: mgl32.Vec4{NoShadowMap, 0, 0, 0}}
}

func (s ShadowInfo) MapIndex() int { return int(s.MapIndexBiasesFarClip[0]) }

func (s *ShadowInfo) SetMapIndex(i int) { s.MapIndexBiasesFarClip[0] = float32(i) }

func (s ShadowInfo) CastsShadow() bool { return s.MapIndex() >= 0 }

func (s ShadowInfo) Bias() float32 { return s.MapIndexBiasesFarClip[1] }

func (s *ShadowInfo) SetBias(b float32) { s.MapIndexBiasesFarClip[1] = b }

func (s ShadowInfo) MaxBias() float32 { return s.MapIndexBiasesFarClip[2] }

func (s *ShadowInfo) SetMaxBias(b float32) { s.MapIndexBiasesFarClip[2] = b }

func (s ShadowInfo) FarClipPlane() float32 { return s.MapIndexBiasesFarClip[3] }

func (s *ShadowInfo) SetFarClipPlane(f float32) { s.MapIndexBiasesFarClip[3] = f }

func (s ShadowInfo) NearClipPlane() float32 { return s.AttributesOrLightMatrix[0] }

func (s *ShadowInfo) SetNearClipPlane(n float32) { s.AttributesOrLightMatrix[0] = n }

func (s ShadowInfo) LightMatrix() mgl32.Mat4 { return s.AttributesOrLightMatrix }

func (s *ShadowInfo) SetLightMatrix(m mgl32.Mat4) { s.AttributesOrLightMatrix = m }

func (s ShadowInfo) Size() int { return ShadowInfoSize }

func (s ShadowInfo) Marshal() []byte {
	buf := make([]byte, ShadowInfoSize)
	putVec4(buf, 0, s.MapIndexBiasesFarClip)
	putMat4(buf, 16, s.AttributesOrLightMatrix)
	return buf
}

func DecodeShadowInfo(buf []byte) ShadowInfo {
	return ShadowInfo{
		MapIndexBiasesFarClip:   readVec4(buf, 0),
		AttributesOrLightMatrix: readMat4(buf, 16),
	}
}

// BoundingSphere is a point light's influence volume: origin xyz, radius w.
type BoundingSphere struct {
	Origin mgl32.Vec3
	Radius float32
}

func (b BoundingSphere) Size() int { return BoundingSphereSize }

func (b BoundingSphere) Marshal() []byte {
	buf := make([]byte, BoundingSphereSize)
	putVec4(buf, 0, b.Origin.Vec4(b.Radius))
	return buf
}

func DecodeBoundingSphere(buf []byte) BoundingSphere {
	v := readVec4(buf, 0)
	return BoundingSphere{Origin: v.Vec3(), Radius: v[3]}
}

// IntersectsAABB reports whether the sphere touches the box.
func (b BoundingSphere) IntersectsAABB(box AABB) bool {
	var distSq float32
	for i := 0; i < 3; i++ {
		c := b.Origin[i]
		if c < box.Min[i] {
			d := box.Min[i] - c
			distSq += d * d
		} else if c > box.Max[i] {
			d := c - box.Max[i]
			distSq += d * d
		}
	}
	return distSq <= b.Radius*b.Radius
}
