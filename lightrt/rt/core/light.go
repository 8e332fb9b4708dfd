package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type LightType int32

const (
	LightTypePoint       LightType = 0
	LightTypeDirectional LightType = 1
	LightTypeSpot        LightType = 2
)

// NumLightTypes is the size of the closed LightType set.
const NumLightTypes = 3

func (t LightType) Valid() bool {
	return t >= LightTypePoint && t <= LightTypeSpot
}

func (t LightType) String() string {
	switch t {
	case LightTypePoint:
		return "point"
	case LightTypeDirectional:
		return "directional"
	case LightTypeSpot:
		return "spot"
	}
	return fmt.Sprintf("LightType(%d)", int32(t))
}

// Bits stored in TypeIndexFlags[2].
const (
	LightFlagEnabled int32 = 1 << 0
)

const (
	// LightSize is the std430 size of Light in bytes.
	LightSize = 128

	// DefaultLightRange applies to every light type, both for new lights and
	// for persisted lights without a range.
	DefaultLightRange float32 = 50.0

	// DefaultSpotCutoffDeg is the outer half-angle of a new spot light.
	DefaultSpotCutoffDeg float32 = 25.0
)

// Light is the GPU representation of a light.
//
// Layout (std430, 128 bytes):
//
//	vec4  position        offset   0
//	vec4  direction       offset  16
//	vec4  ambient_color   offset  32
//	vec4  diffuse_color   offset  48
//	vec4  specular_color  offset  64
//	vec4  attributes      offset  80  point: (a1, a2, a3, -); spot: (cos(outer cutoff), -, -, -)
//	vec4  more_attributes offset  96  (intensity, range, -, -)
//	ivec4 type_index_flags offset 112 (type, index, flags, -)
type Light struct {
	Position       mgl32.Vec4
	Direction      mgl32.Vec4
	AmbientColor   mgl32.Vec4
	DiffuseColor   mgl32.Vec4
	SpecularColor  mgl32.Vec4
	Attributes     mgl32.Vec4
	MoreAttributes mgl32.Vec4
	TypeIndexFlags [4]int32
}

// NewLight returns an enabled white light of the given type with its
// per-type default attributes.
func NewLight(lightType LightType) Light {
	l := Light{
		Direction:      mgl32.Vec4{0, -1, 0, 0},
		AmbientColor:   mgl32.Vec4{1, 1, 1, 1},
		DiffuseColor:   mgl32.Vec4{1, 1, 1, 1},
		SpecularColor:  mgl32.Vec4{1, 1, 1, 1},
		MoreAttributes: mgl32.Vec4{1, DefaultLightRange, 0, 0},
	}
	l.TypeIndexFlags[0] = int32(lightType)
	l.TypeIndexFlags[2] = LightFlagEnabled
	l.Attributes = DefaultAttributes(lightType)
	return l
}

// DisabledLight is the terminator record written past the last live light.
func DisabledLight() Light {
	l := NewLight(LightTypePoint)
	l.Disable()
	l.SetIntensity(0)
	return l
}

// DefaultAttributes returns the attenuation/cutoff attributes a fresh light
// of the given type starts with.
func DefaultAttributes(lightType LightType) mgl32.Vec4 {
	switch lightType {
	case LightTypePoint:
		// No attenuation
		return mgl32.Vec4{1, 0, 0, 0}
	case LightTypeSpot:
		return mgl32.Vec4{cosDeg(DefaultSpotCutoffDeg), 0, 0, 0}
	}
	return mgl32.Vec4{}
}

func (l Light) Type() LightType { return LightType(l.TypeIndexFlags[0]) }

func (l *Light) SetType(t LightType) { l.TypeIndexFlags[0] = int32(t) }

func (l Light) Index() int { return int(l.TypeIndexFlags[1]) }

func (l *Light) SetIndex(i int) { l.TypeIndexFlags[1] = int32(i) }

func (l Light) Enabled() bool { return l.TypeIndexFlags[2]&LightFlagEnabled != 0 }

func (l *Light) Enable() { l.TypeIndexFlags[2] |= LightFlagEnabled }

func (l *Light) Disable() { l.TypeIndexFlags[2] &^= LightFlagEnabled }

func (l Light) Intensity() float32 { return l.MoreAttributes[0] }

func (l *Light) SetIntensity(i float32) { l.MoreAttributes[0] = i }

func (l Light) Range() float32 { return l.MoreAttributes[1] }

func (l *Light) SetRange(r float32) { l.MoreAttributes[1] = r }

func (l *Light) SetPosition(p mgl32.Vec3) { l.Position = p.Vec4(1) }

// SetDirection stores the normalized direction. A zero vector is kept as is.
func (l *Light) SetDirection(d mgl32.Vec3) {
	if d.LenSqr() > 0 {
		d = d.Normalize()
	}
	l.Direction = d.Vec4(0)
}

func (l Light) DirectionVec3() mgl32.Vec3 { return l.Direction.Vec3() }

// CutoffCosine is the cosine of a spot light's outer half-angle.
func (l Light) CutoffCosine() float32 { return l.Attributes[0] }

func (l Light) Size() int { return LightSize }

// Marshal serializes the light into its 128-byte GPU layout.
func (l Light) Marshal() []byte {
	buf := make([]byte, LightSize)
	putVec4(buf, 0, l.Position)
	putVec4(buf, 16, l.Direction)
	putVec4(buf, 32, l.AmbientColor)
	putVec4(buf, 48, l.DiffuseColor)
	putVec4(buf, 64, l.SpecularColor)
	putVec4(buf, 80, l.Attributes)
	putVec4(buf, 96, l.MoreAttributes)
	putInt4(buf, 112, l.TypeIndexFlags)
	return buf
}

// DecodeLight reads a light back from its GPU layout.
func DecodeLight(buf []byte) Light {
	return Light{
		Position:       readVec4(buf, 0),
		Direction:      readVec4(buf, 16),
		AmbientColor:   readVec4(buf, 32),
		DiffuseColor:   readVec4(buf, 48),
		SpecularColor:  readVec4(buf, 64),
		Attributes:     readVec4(buf, 80),
		MoreAttributes: readVec4(buf, 96),
		TypeIndexFlags: readInt4(buf, 112),
	}
}

func cosDeg(deg float32) float32 {
	return float32(math.Cos(float64(mgl32.DegToRad(deg))))
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
