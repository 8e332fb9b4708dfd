package lumen

import (
	"fmt"

	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/gekko3d/lumen/lightrt/rt/lighting"
	"github.com/go-gl/mathgl/mgl32"
)

// TransformSource supplies a light's world position. core.Transform
// implements it.
type TransformSource interface {
	WorldPosition() mgl32.Vec3
}

// OrientedTransformSource also supplies the facing direction.
type OrientedTransformSource interface {
	TransformSource
	Forward() mgl32.Vec3
}

// LightComponent is the controller attached to a scene object that carries a
// light. It owns the cached light and shadow records and is the only thing
// that talks to the registry for its light index.
//
// Every setter requeues the whole record, and re-derives the shadow camera
// when the light casts shadows.
type LightComponent struct {
	ctx        *RenderContext
	generation uint64
	epoch      uint64

	light      core.Light
	shadowInfo core.ShadowInfo
	shadowMap  *lighting.ShadowMap

	transform         TransformSource
	followOrientation bool
	positioned        bool

	// Intensity to restore on Enable.
	cachedIntensity float32
	castsShadow     bool
	// Shadows requested by the user. Survives Disable so Enable can
	// restore them.
	wantsShadow bool
	destroyed   bool
}

// NewLightComponent reserves a light index and queues the initial record.
// transform may be nil; the light is then unpositioned until
// SetLightPosition is called.
func NewLightComponent(ctx *RenderContext, lightType core.LightType, transform TransformSource) *LightComponent {
	if !lightType.Valid() {
		panic(fmt.Errorf("%w: %d", lighting.ErrUnknownLightType, int32(lightType)))
	}

	c := &LightComponent{
		ctx:        ctx,
		generation: ctx.generation,
		epoch:      ctx.settings.Epoch(),
		light:      core.NewLight(lightType),
		shadowInfo: core.NewShadowInfo(),
		transform:  transform,
	}
	c.light.SetIndex(ctx.settings.ReserveLightIndex())
	c.cachedIntensity = c.light.Intensity()
	ctx.register(c)

	if transform != nil {
		c.light.SetPosition(transform.WorldPosition())
		c.positioned = true
	}
	c.queueLight()
	c.queueShadowInfo()

	ctx.logger.Debugf("light %d: created %s", c.light.Index(), lightType)
	return c
}

func (c *LightComponent) checkAlive() {
	if c.destroyed {
		panic(ErrLightDestroyed)
	}
	if c.generation != c.ctx.generation {
		panic(fmt.Errorf("%w: generation %d, context at %d", ErrStaleContext, c.generation, c.ctx.generation))
	}
	if c.epoch != c.ctx.settings.Epoch() {
		panic(fmt.Errorf("%w: lights cleared since light %d was created", ErrStaleContext, c.light.Index()))
	}
}

func (c *LightComponent) Index() int                  { return c.light.Index() }
func (c *LightComponent) Type() core.LightType        { return c.light.Type() }
func (c *LightComponent) Enabled() bool               { return c.light.Enabled() }
func (c *LightComponent) CastsShadow() bool           { return c.castsShadow }
func (c *LightComponent) Light() core.Light           { return c.light }
func (c *LightComponent) ShadowInfo() core.ShadowInfo { return c.shadowInfo }

// ShadowMap is nil unless the light casts shadows.
func (c *LightComponent) ShadowMap() *lighting.ShadowMap { return c.shadowMap }

// Intensity is the configured intensity, also while disabled.
func (c *LightComponent) Intensity() float32 {
	if c.light.Enabled() {
		return c.light.Intensity()
	}
	return c.cachedIntensity
}

func (c *LightComponent) queueLight() {
	c.ctx.settings.QueueLight(&c.light)
}

func (c *LightComponent) queueShadowInfo() {
	c.ctx.settings.QueueShadow(c.light.Index(), &c.shadowInfo)
}

// changed requeues the record and follows up with a shadow re-derivation.
func (c *LightComponent) changed() {
	c.queueLight()
	if c.castsShadow {
		c.updateShadow()
	}
}

func (c *LightComponent) SetDiffuseColor(col mgl32.Vec4) {
	c.checkAlive()
	c.light.DiffuseColor = col
	c.changed()
}

func (c *LightComponent) SetAmbientColor(col mgl32.Vec4) {
	c.checkAlive()
	c.light.AmbientColor = col
	c.changed()
}

func (c *LightComponent) SetSpecularColor(col mgl32.Vec4) {
	c.checkAlive()
	c.light.SpecularColor = col
	c.changed()
}

// SetIntensity on a disabled light only updates the value Enable restores.
func (c *LightComponent) SetIntensity(intensity float32) {
	c.checkAlive()
	c.cachedIntensity = intensity
	if c.light.Enabled() {
		c.light.SetIntensity(intensity)
	}
	c.changed()
}

// SetAttributes sets the point attenuation coefficients or, for spot lights,
// the cosine of the outer cutoff in x.
func (c *LightComponent) SetAttributes(attr mgl32.Vec4) {
	c.checkAlive()
	c.light.Attributes = attr
	c.changed()
}

func (c *LightComponent) SetRange(r float32) {
	c.checkAlive()
	c.light.SetRange(r)
	c.changed()
}

func (c *LightComponent) SetDirection(dir mgl32.Vec3) {
	c.checkAlive()
	c.light.SetDirection(dir)
	c.changed()
}

func (c *LightComponent) SetLightPosition(pos mgl32.Vec3) {
	c.checkAlive()
	c.light.SetPosition(pos)
	c.positioned = true
	c.changed()
}

// SetFollowOrientation makes SyncTransform copy the transform's forward
// vector into the light direction, when the source provides one.
func (c *LightComponent) SetFollowOrientation(follow bool) {
	c.followOrientation = follow
}

// SyncTransform pulls the current world position (and, if following, the
// orientation) from the attached transform.
func (c *LightComponent) SyncTransform() {
	c.checkAlive()
	if c.transform == nil {
		return
	}
	c.light.SetPosition(c.transform.WorldPosition())
	c.positioned = true
	if oriented, ok := c.transform.(OrientedTransformSource); ok && c.followOrientation {
		c.light.SetDirection(oriented.Forward())
	}
	c.changed()
}

// SetLightType switches the light type and resets the type's default
// attributes. A shadow moves to a slot of the new type's partition; if that
// partition is full the light stops casting and a warning is logged.
func (c *LightComponent) SetLightType(t core.LightType) {
	c.checkAlive()
	if !t.Valid() {
		panic(fmt.Errorf("%w: %d", lighting.ErrUnknownLightType, int32(t)))
	}
	if t == c.light.Type() {
		return
	}

	hadShadow := c.castsShadow
	if hadShadow {
		c.releaseShadow()
	}

	c.light.SetType(t)
	c.light.Attributes = core.DefaultAttributes(t)
	c.queueLight()

	// Point lights read a near-clip override where the others keep a matrix.
	fresh := core.NewShadowInfo()
	c.shadowInfo.SetLightMatrix(fresh.LightMatrix())

	if hadShadow {
		if err := c.acquireShadow(); err != nil {
			c.ctx.logger.Warnf("light %d: %v; shadow dropped after switching to %s", c.light.Index(), err, t)
			c.queueShadowInfo()
		}
	}
}

// SetShadowBias sets the constant and maximum depth bias.
func (c *LightComponent) SetShadowBias(bias, maxBias float32) {
	c.checkAlive()
	c.shadowInfo.SetBias(bias)
	c.shadowInfo.SetMaxBias(maxBias)
	c.queueShadowInfo()
}

// SetShadowFarClip only matters until the next point-light derivation, which
// replaces it with the light range.
func (c *LightComponent) SetShadowFarClip(far float32) {
	c.checkAlive()
	c.shadowInfo.SetFarClipPlane(far)
	c.queueShadowInfo()
}

// SetShadowNearClip overrides a point light's cube near plane. The other
// types keep their light matrix in that slot, so the call is ignored there.
func (c *LightComponent) SetShadowNearClip(near float32) {
	c.checkAlive()
	if c.light.Type() != core.LightTypePoint {
		c.ctx.logger.Warnf("light %d: near clip override ignored for %s light", c.light.Index(), c.light.Type())
		return
	}
	c.shadowInfo.SetNearClipPlane(near)
	c.queueShadowInfo()
}

// Enable restores the cached intensity and, if the light was casting
// shadows when disabled, re-acquires a shadow slot. The light is enabled even
// when the slot cannot be had; the error wraps lighting.ErrShadowCapacity.
func (c *LightComponent) Enable() error {
	c.checkAlive()
	if c.light.Enabled() {
		return nil
	}
	c.light.Enable()
	c.light.SetIntensity(c.cachedIntensity)
	c.queueLight()

	if c.wantsShadow && !c.castsShadow {
		return c.acquireShadow()
	}
	return nil
}

// Disable zeroes the GPU-visible intensity and frees any shadow slot.
func (c *LightComponent) Disable() {
	c.checkAlive()
	if !c.light.Enabled() {
		return
	}
	c.cachedIntensity = c.light.Intensity()
	c.light.SetIntensity(0)
	c.light.Disable()
	c.queueLight()

	if c.castsShadow {
		c.releaseShadow()
		c.queueShadowInfo()
	}
}

// EnableShadowCasting allocates a shadow slot and derives the shadow camera.
// When the light type's slots are exhausted it returns an error wrapping
// lighting.ErrShadowCapacity. A disabled light only records the request.
func (c *LightComponent) EnableShadowCasting() error {
	c.checkAlive()
	c.wantsShadow = true
	if c.castsShadow || !c.light.Enabled() {
		return nil
	}
	return c.acquireShadow()
}

func (c *LightComponent) DisableShadowCasting() {
	c.checkAlive()
	c.wantsShadow = false
	if !c.castsShadow {
		return
	}
	c.releaseShadow()
	c.queueShadowInfo()
}

func (c *LightComponent) acquireShadow() error {
	c.checkPositioned()
	settings := c.ctx.settings
	ok, slot := settings.CanAddShadow(c.light.Type())
	if !ok {
		return fmt.Errorf("light %d (%s): %w", c.light.Index(), c.light.Type(), lighting.ErrShadowCapacity)
	}

	m := lighting.NewShadowMap(c.light.Type())
	settings.AddShadow(m, slot, c.light.Index())
	c.shadowMap = m
	c.castsShadow = true
	c.shadowInfo.SetMapIndex(m.Layer())

	c.updateShadow()
	return nil
}

func (c *LightComponent) releaseShadow() {
	c.ctx.settings.RemoveShadow(c.shadowMap, c.shadowMap.Slot())
	c.shadowMap = nil
	c.castsShadow = false
	c.shadowInfo.SetMapIndex(core.NoShadowMap)
}

// RefreshShadow re-derives the shadow camera against the render context's
// current visible bounds.
func (c *LightComponent) RefreshShadow() {
	c.checkAlive()
	if c.castsShadow {
		c.updateShadow()
	}
}

// Directional shadows only depend on the scene bounds.
func (c *LightComponent) checkPositioned() {
	if c.light.Type() != core.LightTypeDirectional && !c.positioned {
		panic(fmt.Errorf("%w: light %d", ErrLightNotPositioned, c.light.Index()))
	}
}

func (c *LightComponent) updateShadow() {
	c.checkPositioned()

	c.shadowMap.UpdateShadowAttributes(&c.light, c.ctx.visible, &c.shadowInfo)
	c.queueShadowInfo()

	if c.light.Type() == core.LightTypePoint {
		c.ctx.settings.QueuePointShadow(c.shadowMap.Slot(), c.shadowMap.PointViewProjections(), c.shadowMap.BoundingSphere())
	}
}

// Destroy hides the light, frees its shadow slot and returns its index to
// the registry. The component must not be used afterwards.
func (c *LightComponent) Destroy() {
	c.checkAlive()
	if c.castsShadow {
		c.releaseShadow()
	}
	c.light.SetIntensity(0)
	c.light.Disable()
	c.queueLight()
	c.ctx.settings.ReleaseLightIndex(c.light.Index())
	c.ctx.unregister(c)
	c.destroyed = true
	c.ctx.logger.Debugf("light %d: destroyed", c.light.Index())
}
