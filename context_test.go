package lumen

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/gekko3d/lumen/lightrt/rt/gpu"
	"github.com/gekko3d/lumen/lightrt/rt/lighting"
	"github.com/gekko3d/lumen/logging"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cameraAt(eye, target mgl32.Vec3) mgl32.Mat4 {
	cam := core.NewCamera()
	cam.SetPerspective(60, 16.0/9.0, 0.1, 100)
	cam.View = core.LookAtRH(eye, target, mgl32.Vec3{0, 1, 0})
	return cam.ViewProjection()
}

func TestRenderContext_DirectionalShadowFollowsFrustum(t *testing.T) {
	ctx := newTestContext(t, lighting.DefaultConfig())
	sun := NewLightComponent(ctx, core.LightTypeDirectional, nil)
	sun.SetDirection(mgl32.Vec3{-1, -3, -1})
	require.NoError(t, sun.EnableShadowCasting())
	assert.Equal(t, lighting.ShadowMapUninitialized, sun.ShadowMap().State(), "no bounds yet")

	ctx.UpdateVisibleFrustumBounds(cameraAt(mgl32.Vec3{0, 5, 20}, mgl32.Vec3{}))
	require.Equal(t, lighting.ShadowMapActive, sun.ShadowMap().State())

	bounds := ctx.VisibleFrustumBounds()
	assert.False(t, bounds.Empty())

	lightVP := sun.ShadowInfo().LightMatrix()
	for _, c := range bounds.Corners() {
		clip := lightVP.Mul4x1(c.Vec4(1))
		for i := 0; i < 3; i++ {
			assert.InDelta(t, 0, clip[i], 1.001, "corner %v", c)
		}
	}

	ctx.EndFrame()
	assert.Equal(t, lightVP, gpuShadow(ctx, sun.Index()).LightMatrix())

	// Moving the camera moves the shadow volume.
	ctx.UpdateVisibleFrustumBounds(cameraAt(mgl32.Vec3{50, 5, 20}, mgl32.Vec3{50, 0, 0}))
	assert.NotEqual(t, lightVP, sun.ShadowInfo().LightMatrix())
}

func TestRenderContext_SetVisibleFrustumBounds(t *testing.T) {
	ctx := newTestContext(t, lighting.DefaultConfig())
	box := core.AABB{Min: mgl32.Vec3{-5, 0, -5}, Max: mgl32.Vec3{5, 3, 5}}
	ctx.SetVisibleFrustumBounds(box)
	assert.Equal(t, box, ctx.VisibleFrustumBounds())

	sun := NewLightComponent(ctx, core.LightTypeDirectional, nil)
	require.NoError(t, sun.EnableShadowCasting())
	assert.True(t, sun.ShadowMap().AffectsBox(box))
}

func TestRenderContext_EndFrameProfiles(t *testing.T) {
	ctx := newTestContext(t, lighting.DefaultConfig())
	NewLightComponent(ctx, core.LightTypePoint, at(0, 0, 0))
	spot := NewLightComponent(ctx, core.LightTypeSpot, at(0, 0, 0))
	require.NoError(t, spot.EnableShadowCasting())

	ctx.EndFrame()
	p := ctx.Profiler
	assert.Equal(t, 2, p.Counts[CountLights])
	assert.Equal(t, 1, p.Counts[CountShadows])
	assert.Equal(t, 2, p.Counts[CountUploads], "lights and shadows changed")
	assert.Contains(t, p.Order, ScopeFlush)
	assert.Contains(t, p.Order, ScopeSwap)

	// The other side catches up on the next frame, then nothing is left.
	ctx.EndFrame()
	assert.Equal(t, 2, p.Counts[CountUploads])
	ctx.EndFrame()
	assert.Equal(t, 0, p.Counts[CountUploads])
}

func TestRenderContext_ResetReleasesGPU(t *testing.T) {
	dev := gpu.NewMemoryDevice()
	ctx := NewRenderContext(dev, DefaultRenderContextConfig(), nil)
	before := len(dev.Buffers)
	ctx.Reset()

	for _, b := range dev.Buffers[:before] {
		assert.True(t, b.Released, b.Label())
	}
	for _, b := range dev.Buffers[before:] {
		assert.False(t, b.Released, b.Label())
	}
	assert.True(t, ctx.VisibleFrustumBounds().Empty())

	ctx.Release()
	for _, b := range dev.Buffers {
		assert.True(t, b.Released)
	}
}

func TestRenderContext_RegistryLogsUnderOwnPrefix(t *testing.T) {
	var out bytes.Buffer
	logger := logging.NewWriterLogger("lumen", true, &out, &out)
	ctx := NewRenderContext(gpu.NewMemoryDevice(), DefaultRenderContextConfig(), logger)

	spot := NewLightComponent(ctx, core.LightTypeSpot, at(0, 3, 0))
	require.NoError(t, spot.EnableShadowCasting())

	assert.Contains(t, out.String(), "[lumen/lighting] DEBUG: shadow ")
	assert.Contains(t, out.String(), "[lumen] DEBUG: light 0: created spot")
}

func TestProfiler(t *testing.T) {
	p := NewProfiler()
	now := time.Unix(0, 0)
	p.now = func() time.Time { return now }

	end := p.Scope("b")
	now = now.Add(3 * time.Millisecond)
	end()
	p.BeginScope("a")
	now = now.Add(time.Millisecond)
	p.EndScope("a")
	p.EndScope("never started")
	p.SetCount("z", 2)
	p.AddCount("z", 3)

	assert.Equal(t, []string{"b", "a"}, p.Order)
	assert.Equal(t, 3*time.Millisecond, p.Scopes["b"])
	assert.Equal(t, 5, p.Counts["z"])

	stats := p.StatsString()
	assert.True(t, strings.Index(stats, "b ") < strings.Index(stats, "a "), stats)
	assert.Contains(t, stats, "3.00 ms")
	assert.Contains(t, stats, "5")

	p.Reset()
	assert.Zero(t, p.Scopes["b"])
	assert.Zero(t, p.Counts["z"])
	assert.Len(t, p.Order, 2)
	assert.Contains(t, p.StatsString(), "0.00 ms")
}
