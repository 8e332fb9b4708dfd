package lumen

import (
	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/gekko3d/lumen/lightrt/rt/gpu"
	"github.com/gekko3d/lumen/lightrt/rt/lighting"
	"github.com/gekko3d/lumen/logging"
	"github.com/go-gl/mathgl/mgl32"
)

type RenderContextConfig struct {
	Lighting lighting.Config

	// Used to build the default logger when none is passed in.
	LogPrefix string
	Debug     bool
}

func DefaultRenderContextConfig() RenderContextConfig {
	return RenderContextConfig{
		Lighting:  lighting.DefaultConfig(),
		LogPrefix: "lumen",
	}
}

// RenderContext is the object every light component is constructed against.
// It owns the LightingSettings registry for one GPU context, the scene's
// visible bounds, and the per-frame flush/swap.
//
// All calls must come from one goroutine, or be serialized by the caller.
type RenderContext struct {
	device   gpu.Device
	cfg      RenderContextConfig
	logger   logging.Logger
	settings *lighting.LightingSettings

	// Bumped by Reset. Components created under an older generation panic.
	generation uint64

	visible    core.AABB
	components map[*LightComponent]struct{}

	Profiler *Profiler
}

// NewRenderContext creates the lighting registry on dev. A nil logger gets a
// DefaultLogger built from cfg.
func NewRenderContext(dev gpu.Device, cfg RenderContextConfig, logger logging.Logger) *RenderContext {
	if logger == nil {
		logger = logging.NewDefaultLogger(cfg.LogPrefix, cfg.Debug)
	}
	c := &RenderContext{
		device:     dev,
		cfg:        cfg,
		logger:     logger,
		visible:    core.EmptyAABB(),
		components: make(map[*LightComponent]struct{}),
		Profiler:   NewProfiler(),
	}
	c.settings = lighting.NewLightingSettings(dev, cfg.Lighting, c.registryLogger())
	return c
}

// registryLogger tags registry output when the logger is ours.
func (c *RenderContext) registryLogger() logging.Logger {
	if dl, ok := c.logger.(*logging.DefaultLogger); ok && c.cfg.LogPrefix != "" {
		return dl.WithPrefix(c.cfg.LogPrefix + "/lighting")
	}
	return c.logger
}

func (c *RenderContext) Settings() *lighting.LightingSettings { return c.settings }

func (c *RenderContext) Logger() logging.Logger { return c.logger }

func (c *RenderContext) Generation() uint64 { return c.generation }

func (c *RenderContext) VisibleFrustumBounds() core.AABB { return c.visible }

// Lights returns the number of live components.
func (c *RenderContext) Lights() int { return len(c.components) }

// SetVisibleFrustumBounds stores the union of every active camera's frustum
// box. Directional shadows pick it up on their next derivation.
func (c *RenderContext) SetVisibleFrustumBounds(box core.AABB) {
	c.visible = box
}

// UpdateVisibleFrustumBounds recomputes the visible bounds from the active
// cameras' projection*view matrices and refreshes every directional shadow.
// Call once per frame before EndFrame.
func (c *RenderContext) UpdateVisibleFrustumBounds(viewProjs ...mgl32.Mat4) {
	c.visible = core.VisibleFrustumBounds(viewProjs...)
	c.RefreshDirectionalShadows()
}

// RefreshDirectionalShadows re-derives the light-space matrix of every
// shadow-casting directional light against the current visible bounds.
func (c *RenderContext) RefreshDirectionalShadows() {
	defer c.Profiler.Scope(ScopeShadowRefresh)()
	for comp := range c.components {
		if comp.epoch != c.settings.Epoch() {
			continue
		}
		if comp.castsShadow && comp.light.Type() == core.LightTypeDirectional {
			comp.updateShadow()
		}
	}
}

// EndFrame makes every update queued this frame visible to the next render
// pass.
func (c *RenderContext) EndFrame() {
	c.settings.CheckLights()

	c.Profiler.BeginScope(ScopeFlush)
	uploads := c.settings.FlushBuffers()
	c.Profiler.EndScope(ScopeFlush)

	c.Profiler.BeginScope(ScopeSwap)
	c.settings.SwapBuffers()
	c.Profiler.EndScope(ScopeSwap)

	c.Profiler.SetCount(CountUploads, uploads)
	c.Profiler.SetCount(CountLights, len(c.components))
	c.Profiler.SetCount(CountShadows, len(c.settings.ShadowMaps()))
}

// Reset discards the registry and builds a fresh one, e.g. on a scene
// switch. Existing components are orphaned; using one panics with
// ErrStaleContext.
func (c *RenderContext) Reset() {
	c.logger.Infof("render context reset: dropping %d lights", len(c.components))
	c.settings.Release()
	c.settings = lighting.NewLightingSettings(c.device, c.cfg.Lighting, c.registryLogger())
	c.generation++
	c.visible = core.EmptyAABB()
	c.components = make(map[*LightComponent]struct{})
	c.Profiler.Reset()
}

// ClearLights empties the registry in place, keeping its GPU resources.
// Existing components are orphaned as with Reset.
func (c *RenderContext) ClearLights() {
	c.logger.Infof("clearing %d lights", len(c.components))
	c.settings.ClearLights()
	c.components = make(map[*LightComponent]struct{})
}

// Release frees the GPU resources of the registry.
func (c *RenderContext) Release() {
	c.settings.Release()
	c.components = make(map[*LightComponent]struct{})
}

func (c *RenderContext) register(comp *LightComponent) {
	c.components[comp] = struct{}{}
}

func (c *RenderContext) unregister(comp *LightComponent) {
	delete(c.components, comp)
}
