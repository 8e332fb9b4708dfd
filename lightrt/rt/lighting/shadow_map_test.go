package lighting

import (
	"math"
	"testing"

	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clipEps = 1e-3

func toClip(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	c := m.Mul4x1(p.Vec4(1))
	return c.Vec3().Mul(1 / c.W())
}

func insideClip(p mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < -1-clipEps || p[i] > 1+clipEps {
			return false
		}
	}
	return true
}

func TestDirectionalShadow_ContainsVisibleBounds(t *testing.T) {
	bounds := core.AABB{Min: mgl32.Vec3{-20, -3, -40}, Max: mgl32.Vec3{35, 12, 5}}

	tests := []struct {
		name string
		dir  mgl32.Vec3
	}{
		{"oblique", mgl32.Vec3{1, -2, 0.5}},
		{"straight down", mgl32.Vec3{0, -1, 0}},
		{"straight up", mgl32.Vec3{0, 1, 0}},
		{"horizontal", mgl32.Vec3{0, 0, -1}},
		{"grazing", mgl32.Vec3{1, -0.01, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := core.NewLight(core.LightTypeDirectional)
			l.SetDirection(tc.dir)
			info := core.NewShadowInfo()

			m := NewShadowMap(core.LightTypeDirectional)
			m.UpdateShadowAttributes(&l, bounds, &info)
			require.Equal(t, ShadowMapActive, m.State())

			vp := info.LightMatrix()
			for i, c := range bounds.Corners() {
				p := toClip(vp, c)
				assert.True(t, insideClip(p), "corner %d %v maps to %v", i, c, p)
			}
			assert.True(t, m.AffectsBox(bounds))
		})
	}
}

func TestDirectionalShadow_EmptyBoundsKeepsMatrix(t *testing.T) {
	l := core.NewLight(core.LightTypeDirectional)
	info := core.NewShadowInfo()
	m := NewShadowMap(core.LightTypeDirectional)

	m.UpdateShadowAttributes(&l, core.EmptyAABB(), &info)
	assert.Equal(t, ShadowMapUninitialized, m.State())
	assert.Equal(t, core.NewShadowInfo(), info)
	assert.False(t, m.AffectsBox(core.AABB{Max: mgl32.Vec3{1, 1, 1}}))
}

func TestDirectionalShadow_FlatBounds(t *testing.T) {
	// A ground plane has zero height; the projection must stay finite.
	bounds := core.AABB{Min: mgl32.Vec3{-10, 0, -10}, Max: mgl32.Vec3{10, 0, 10}}
	l := core.NewLight(core.LightTypeDirectional)
	info := core.NewShadowInfo()
	NewShadowMap(core.LightTypeDirectional).UpdateShadowAttributes(&l, bounds, &info)

	for _, v := range info.LightMatrix() {
		assert.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0))
	}
}

func TestPointShadow_FacesCoverSphere(t *testing.T) {
	l := core.NewLight(core.LightTypePoint)
	pos := mgl32.Vec3{4, -2, 7}
	l.SetPosition(pos)
	l.SetRange(30)
	info := core.NewShadowInfo()
	info.SetNearClipPlane(0.5)

	m := NewShadowMap(core.LightTypePoint)
	m.UpdateShadowAttributes(&l, core.EmptyAABB(), &info)

	assert.Equal(t, CameraKindCube, m.Camera().Kind)
	assert.Equal(t, float32(30), info.FarClipPlane())
	assert.Equal(t, float32(0.5), info.NearClipPlane(), "near-clip override survives derivation")
	assert.Equal(t, core.BoundingSphere{Origin: pos, Radius: 30}, m.BoundingSphere())

	vps := m.PointViewProjections()
	for _, d := range fibonacciDirections(64) {
		for _, dist := range []float32{2, 15, 29} {
			p := pos.Add(d.Mul(dist))
			covered := false
			for _, vp := range vps {
				if insideClip(toClip(vp, p)) {
					covered = true
					break
				}
			}
			assert.True(t, covered, "direction %v at %v not covered by any face", d, dist)
		}
	}

	assert.Len(t, m.Frustums(), 6)
	assert.True(t, m.AffectsBox(core.AABB{Min: pos.Add(mgl32.Vec3{25, 0, 0}), Max: pos.Add(mgl32.Vec3{26, 1, 1})}))
	assert.False(t, m.AffectsBox(core.AABB{Min: pos.Add(mgl32.Vec3{31, 0, 0}), Max: pos.Add(mgl32.Vec3{32, 1, 1})}))
}

func TestPointShadow_FaceCenters(t *testing.T) {
	l := core.NewLight(core.LightTypePoint)
	pos := mgl32.Vec3{-3, 1, 2}
	l.SetPosition(pos)
	info := core.NewShadowInfo()

	m := NewShadowMap(core.LightTypePoint)
	m.UpdateShadowAttributes(&l, core.EmptyAABB(), &info)

	vps := m.PointViewProjections()
	for i, dir := range core.CubeFaceDirections {
		p := toClip(vps[i], pos.Add(dir))
		assert.InDelta(t, 0, p.X(), 1e-5, "face %d", i)
		assert.InDelta(t, 0, p.Y(), 1e-5, "face %d", i)
	}
}

func TestSpotShadow_FOVMatchesCutoff(t *testing.T) {
	for _, deg := range []float32{10, 25, 45, 60} {
		l := core.NewLight(core.LightTypeSpot)
		cutoff := float32(math.Cos(float64(mgl32.DegToRad(deg))))
		l.Attributes[0] = cutoff
		l.SetPosition(mgl32.Vec3{0, 10, 0})
		l.SetDirection(mgl32.Vec3{0, -1, 0})
		l.SetRange(40)
		info := core.NewShadowInfo()

		m := NewShadowMap(core.LightTypeSpot)
		m.UpdateShadowAttributes(&l, core.EmptyAABB(), &info)

		proj := m.Camera().Plain.Projection
		// Perspective puts 1/tan(fov/2) on the diagonal.
		want := 1 / math.Tan(float64(mgl32.DegToRad(deg)))
		assert.InDelta(t, want, proj.At(1, 1), 1e-3, "cutoff %v deg", deg)
		assert.InDelta(t, want, proj.At(0, 0), 1e-3, "aspect 1")

		// A point on the axis at range lands on the far plane.
		far := toClip(info.LightMatrix(), mgl32.Vec3{0, 10 - 40, 0})
		assert.InDelta(t, 1, far.Z(), 1e-3)

		// Just inside the cone edge is in view; just outside is not.
		inside := mgl32.DegToRad(deg * 0.95)
		outside := mgl32.DegToRad(deg * 1.05)
		pIn := mgl32.Vec3{10 * float32(math.Tan(float64(inside))), 0, 0}
		pOut := mgl32.Vec3{10 * float32(math.Tan(float64(outside))), 0, 0}
		assert.True(t, insideClip(toClip(info.LightMatrix(), pIn)))
		assert.False(t, insideClip(toClip(info.LightMatrix(), pOut)))
	}
}

func TestShortRangeFarClip(t *testing.T) {
	spot := core.NewLight(core.LightTypeSpot)
	spot.SetDirection(mgl32.Vec3{0, 0, -1})
	spot.SetRange(0.5)
	info := core.NewShadowInfo()
	NewShadowMap(core.LightTypeSpot).UpdateShadowAttributes(&spot, core.EmptyAABB(), &info)

	assert.True(t, insideClip(toClip(info.LightMatrix(), mgl32.Vec3{0, 0, -0.4})))
	assert.False(t, insideClip(toClip(info.LightMatrix(), mgl32.Vec3{0, 0, -10})), "spot far plane is its range")

	// A point range inside the cube near plane falls back to the default.
	point := core.NewLight(core.LightTypePoint)
	point.SetRange(0.5)
	pointInfo := core.NewShadowInfo()
	m := NewShadowMap(core.LightTypePoint)
	m.UpdateShadowAttributes(&point, core.EmptyAABB(), &pointInfo)
	assert.Equal(t, core.DefaultLightRange, m.BoundingSphere().Radius)
	assert.Equal(t, core.DefaultLightRange, pointInfo.FarClipPlane())
}

func TestShadowMap_Reinitialize(t *testing.T) {
	m := NewShadowMap(core.LightTypePoint)
	id := m.ID()
	assert.Equal(t, CameraKindCube, m.Camera().Kind)

	m.Reinitialize(core.LightTypeSpot)
	assert.Equal(t, CameraKindPlain, m.Camera().Kind)
	assert.Equal(t, core.LightTypeSpot, m.LightType())
	assert.Equal(t, ShadowMapUninitialized, m.State())
	assert.Equal(t, id, m.ID())

	requirePanicsWith(t, ErrUnknownLightType, func() { m.Reinitialize(core.LightType(3)) })
}

func TestShadowMap_FollowsLightType(t *testing.T) {
	m := NewShadowMap(core.LightTypeSpot)
	l := core.NewLight(core.LightTypePoint)
	info := core.NewShadowInfo()
	m.UpdateShadowAttributes(&l, core.EmptyAABB(), &info)
	assert.Equal(t, core.LightTypePoint, m.LightType())
	assert.Equal(t, CameraKindCube, m.Camera().Kind)
}

// fibonacciDirections spreads n unit vectors evenly over the sphere.
func fibonacciDirections(n int) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, n)
	golden := math.Pi * (3 - math.Sqrt(5))
	for i := 0; i < n; i++ {
		y := 1 - 2*(float64(i)+0.5)/float64(n)
		r := math.Sqrt(1 - y*y)
		theta := golden * float64(i)
		out[i] = mgl32.Vec3{float32(math.Cos(theta) * r), float32(y), float32(math.Sin(theta) * r)}
	}
	return out
}
