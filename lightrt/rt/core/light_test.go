package core

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLight_Defaults(t *testing.T) {
	point := NewLight(LightTypePoint)
	assert.Equal(t, LightTypePoint, point.Type())
	assert.True(t, point.Enabled())
	assert.Equal(t, float32(1), point.Intensity())
	assert.Equal(t, DefaultLightRange, point.Range())
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 0}, point.Attributes, "point lights start unattenuated")

	spot := NewLight(LightTypeSpot)
	assert.InDelta(t, math.Cos(25*math.Pi/180), spot.CutoffCosine(), 1e-6)
	assert.InDelta(t, 50.0, SpotFOVDegrees(spot.CutoffCosine()), 1e-4)

	dir := NewLight(LightTypeDirectional)
	assert.Equal(t, mgl32.Vec4{}, dir.Attributes)
}

func TestLight_Flags(t *testing.T) {
	l := NewLight(LightTypeSpot)
	l.SetIndex(42)
	l.Disable()
	assert.False(t, l.Enabled())
	assert.Equal(t, 42, l.Index(), "flags and index share an ivec4 and must not clobber each other")
	assert.Equal(t, LightTypeSpot, l.Type())
	l.Enable()
	assert.True(t, l.Enabled())

	term := DisabledLight()
	assert.False(t, term.Enabled())
	assert.Zero(t, term.Intensity())
}

func TestLight_MarshalLayout(t *testing.T) {
	l := NewLight(LightTypeDirectional)
	l.SetIndex(7)
	l.SetIntensity(2.5)
	l.SetRange(75)
	l.SetPosition(mgl32.Vec3{1, 2, 3})
	l.SetDirection(mgl32.Vec3{0, 0, -4})

	buf := l.Marshal()
	require.Len(t, buf, LightSize)

	f32 := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	i32 := func(off int) int32 { return int32(binary.LittleEndian.Uint32(buf[off:])) }

	assert.Equal(t, float32(1), f32(0))
	assert.Equal(t, float32(3), f32(8))
	assert.Equal(t, float32(-1), f32(16+8), "direction is normalized")
	assert.Equal(t, float32(2.5), f32(96))
	assert.Equal(t, float32(75), f32(100))
	assert.Equal(t, int32(LightTypeDirectional), i32(112))
	assert.Equal(t, int32(7), i32(116))
	assert.Equal(t, LightFlagEnabled, i32(120))

	assert.Equal(t, l, DecodeLight(buf))
}

func TestLightType_Valid(t *testing.T) {
	assert.True(t, LightTypePoint.Valid())
	assert.True(t, LightTypeSpot.Valid())
	assert.False(t, LightType(3).Valid())
	assert.False(t, LightType(-1).Valid())
	assert.Equal(t, "directional", LightTypeDirectional.String())
	assert.Equal(t, "LightType(9)", LightType(9).String())
}

func TestShadowInfo_Defaults(t *testing.T) {
	s := NewShadowInfo()
	assert.False(t, s.CastsShadow())
	assert.Equal(t, NoShadowMap, s.MapIndex())
	assert.Equal(t, DefaultShadowFarClip, s.FarClipPlane())
	assert.Equal(t, DefaultShadowNearClip, s.NearClipPlane())

	s.SetMapIndex(2)
	s.SetNearClipPlane(3)
	assert.True(t, s.CastsShadow())

	buf := s.Marshal()
	require.Len(t, buf, ShadowInfoSize)
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(buf[0:])))
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(buf[16:])), "near clip lives in matrix element (0,0)")

	empty := EmptyShadowInfo()
	assert.Equal(t, NoShadowMap, empty.MapIndex())
}

func TestBoundingSphere_IntersectsAABB(t *testing.T) {
	s := BoundingSphere{Origin: mgl32.Vec3{0, 0, 0}, Radius: 2}

	assert.True(t, s.IntersectsAABB(AABB{Min: mgl32.Vec3{1, -1, -1}, Max: mgl32.Vec3{3, 1, 1}}))
	assert.False(t, s.IntersectsAABB(AABB{Min: mgl32.Vec3{2, 2, 2}, Max: mgl32.Vec3{3, 3, 3}}), "corner at distance sqrt(12)")
	assert.True(t, s.IntersectsAABB(AABB{Min: mgl32.Vec3{-9, -9, -9}, Max: mgl32.Vec3{9, 9, 9}}), "sphere inside box")

	buf := s.Marshal()
	require.Len(t, buf, BoundingSphereSize)
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(buf[12:])), "radius in w")
}

func TestDecodedRecords_Accessors(t *testing.T) {
	l := NewLight(LightTypeSpot)
	l.SetIndex(3)
	l.SetRange(12)
	assert.Equal(t, 3, DecodeLight(l.Marshal()).Index())
	assert.Equal(t, float32(12), DecodeLight(l.Marshal()).Range())
	assert.Equal(t, LightTypeSpot, DecodeLight(l.Marshal()).Type())

	s := NewShadowInfo()
	s.SetBias(0.25)
	assert.Equal(t, float32(0.25), DecodeShadowInfo(s.Marshal()).Bias())
	assert.False(t, DecodeShadowInfo(s.Marshal()).CastsShadow())
}

func TestTransform_Forward(t *testing.T) {
	tr := NewTransform()
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, tr.Forward())

	tr.SetPosition(mgl32.Vec3{1, 2, 3})
	tr.SetRotation(mgl32.QuatRotate(mgl32.DegToRad(180), mgl32.Vec3{0, 1, 0}))
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, tr.WorldPosition())
	assert.InDelta(t, 1, tr.Forward().Z(), 1e-5)
}
