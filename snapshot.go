package lumen

import (
	"encoding/json"
	"fmt"

	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/gekko3d/lumen/lightrt/rt/lighting"
	"github.com/go-gl/mathgl/mgl32"
)

// LightSnapshot is the persisted state of a light component.
//
// On disk the light fields nest under "light"; the shadow fields sit next to
// it. FarClip and NearClip are only written for point lights and are zero
// for the other types.
type LightSnapshot struct {
	LightType     core.LightType
	DiffuseColor  mgl32.Vec4
	AmbientColor  mgl32.Vec4
	SpecularColor mgl32.Vec4
	Direction     mgl32.Vec4
	Intensity     float32
	Range         float32
	Attributes    mgl32.Vec4

	CastShadows bool
	MapIndex    int
	Bias        float32
	MaxBias     float32
	FarClip     float32
	NearClip    float32
}

// DefaultLightSnapshot is what an empty document decodes to, minus the
// mandatory attributes.
func DefaultLightSnapshot(t core.LightType) LightSnapshot {
	l := core.NewLight(t)
	s := LightSnapshot{
		LightType:     t,
		DiffuseColor:  l.DiffuseColor,
		AmbientColor:  l.AmbientColor,
		SpecularColor: l.SpecularColor,
		Direction:     l.Direction,
		Intensity:     l.Intensity(),
		Range:         l.Range(),
		Attributes:    l.Attributes,
		MapIndex:      core.NoShadowMap,
		Bias:          core.DefaultShadowBias,
		MaxBias:       core.DefaultShadowMaxBias,
	}
	if t == core.LightTypePoint {
		s.FarClip = core.DefaultShadowFarClip
		s.NearClip = core.DefaultShadowNearClip
	}
	return s
}

type lightJSON struct {
	LightType     *core.LightType `json:"lightType,omitempty"`
	DiffuseColor  *mgl32.Vec4     `json:"diffuseColor,omitempty"`
	AmbientColor  *mgl32.Vec4     `json:"ambientColor,omitempty"`
	SpecularColor *mgl32.Vec4     `json:"specularColor,omitempty"`
	Direction     *mgl32.Vec4     `json:"direction,omitempty"`
	Intensity     *float32        `json:"intensity,omitempty"`
	Range         *float32        `json:"range,omitempty"`
	Attributes    *mgl32.Vec4     `json:"attributes,omitempty"`
	// Older documents name the attributes "attenuation".
	Attenuation *mgl32.Vec4 `json:"attenuation,omitempty"`
}

func (l *lightJSON) present() bool {
	return l.LightType != nil || l.DiffuseColor != nil || l.AmbientColor != nil ||
		l.SpecularColor != nil || l.Direction != nil || l.Intensity != nil ||
		l.Range != nil || l.Attributes != nil || l.Attenuation != nil
}

// snapshotJSON accepts the light fields nested under "light" or inline.
type snapshotJSON struct {
	Light *lightJSON `json:"light,omitempty"`
	lightJSON

	CastShadows *bool    `json:"castShadows,omitempty"`
	MapIndex    *int     `json:"mapIndex,omitempty"`
	Bias        *float32 `json:"bias,omitempty"`
	MaxBias     *float32 `json:"maxBias,omitempty"`
	FarClip     *float32 `json:"farClip,omitempty"`
	NearClip    *float32 `json:"nearClip,omitempty"`
}

func (s LightSnapshot) MarshalJSON() ([]byte, error) {
	lt := s.LightType
	out := snapshotJSON{
		Light: &lightJSON{
			LightType:     &lt,
			DiffuseColor:  &s.DiffuseColor,
			AmbientColor:  &s.AmbientColor,
			SpecularColor: &s.SpecularColor,
			Direction:     &s.Direction,
			Intensity:     &s.Intensity,
			Range:         &s.Range,
			Attributes:    &s.Attributes,
		},
	}
	if s.CastShadows {
		out.CastShadows = &s.CastShadows
		out.MapIndex = &s.MapIndex
		out.Bias = &s.Bias
		out.MaxBias = &s.MaxBias
	}
	if s.LightType == core.LightTypePoint {
		out.FarClip = &s.FarClip
		out.NearClip = &s.NearClip
	}
	return json.Marshal(out)
}

func (s *LightSnapshot) UnmarshalJSON(data []byte) error {
	var in snapshotJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	src := in.Light
	if src == nil && in.lightJSON.present() {
		src = &in.lightJSON
	}
	if src == nil {
		return fmt.Errorf("%w: no light data", ErrInvalidLightData)
	}

	lt := core.LightTypePoint
	if src.LightType != nil {
		lt = *src.LightType
	}
	if !lt.Valid() {
		return fmt.Errorf("%w: %w: %d", ErrInvalidLightData, lighting.ErrUnknownLightType, int32(lt))
	}

	attrs := src.Attributes
	if attrs == nil {
		attrs = src.Attenuation
	}
	if attrs == nil {
		return fmt.Errorf("%w: attributes are required", ErrInvalidLightData)
	}

	out := DefaultLightSnapshot(lt)
	out.Attributes = *attrs
	setVec4(&out.DiffuseColor, src.DiffuseColor)
	setVec4(&out.AmbientColor, src.AmbientColor)
	setVec4(&out.SpecularColor, src.SpecularColor)
	setVec4(&out.Direction, src.Direction)
	setFloat(&out.Intensity, src.Intensity)
	setFloat(&out.Range, src.Range)

	// Biases and the layer only mean something next to castShadows.
	if in.CastShadows != nil {
		out.CastShadows = *in.CastShadows
		out.MapIndex = 0
		if in.MapIndex != nil {
			out.MapIndex = *in.MapIndex
		}
		setFloat(&out.Bias, in.Bias)
		setFloat(&out.MaxBias, in.MaxBias)
	}
	if lt == core.LightTypePoint {
		setFloat(&out.FarClip, in.FarClip)
		setFloat(&out.NearClip, in.NearClip)
	}

	*s = out
	return nil
}

func setVec4(dst *mgl32.Vec4, v *mgl32.Vec4) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float32, v *float32) {
	if v != nil {
		*dst = *v
	}
}

// Snapshot captures the component's persisted state.
func (c *LightComponent) Snapshot() LightSnapshot {
	s := LightSnapshot{
		LightType:     c.light.Type(),
		DiffuseColor:  c.light.DiffuseColor,
		AmbientColor:  c.light.AmbientColor,
		SpecularColor: c.light.SpecularColor,
		Direction:     c.light.Direction,
		Intensity:     c.Intensity(),
		Range:         c.light.Range(),
		Attributes:    c.light.Attributes,
		CastShadows:   c.wantsShadow,
		MapIndex:      c.shadowInfo.MapIndex(),
		Bias:          c.shadowInfo.Bias(),
		MaxBias:       c.shadowInfo.MaxBias(),
	}
	if s.LightType == core.LightTypePoint {
		s.FarClip = c.shadowInfo.FarClipPlane()
		s.NearClip = c.shadowInfo.NearClipPlane()
	}
	return s
}

// NewLightComponentFromSnapshot rebuilds a light from persisted state. The
// stored map index is informational; the registry hands out the lowest free
// slot. A point or spot light that casts shadows needs a transform.
func NewLightComponentFromSnapshot(ctx *RenderContext, s LightSnapshot, transform TransformSource) (*LightComponent, error) {
	if !s.LightType.Valid() {
		return nil, fmt.Errorf("%w: %w: %d", ErrInvalidLightData, lighting.ErrUnknownLightType, int32(s.LightType))
	}

	c := NewLightComponent(ctx, s.LightType, transform)
	c.light.DiffuseColor = s.DiffuseColor
	c.light.AmbientColor = s.AmbientColor
	c.light.SpecularColor = s.SpecularColor
	c.light.Direction = s.Direction
	c.light.Attributes = s.Attributes
	c.light.SetRange(s.Range)
	c.light.SetIntensity(s.Intensity)
	c.cachedIntensity = s.Intensity

	c.shadowInfo.SetBias(s.Bias)
	c.shadowInfo.SetMaxBias(s.MaxBias)
	if s.LightType == core.LightTypePoint {
		c.shadowInfo.SetFarClipPlane(s.FarClip)
		c.shadowInfo.SetNearClipPlane(s.NearClip)
	}
	c.queueLight()
	c.queueShadowInfo()

	if s.CastShadows {
		if err := c.EnableShadowCasting(); err != nil {
			return c, err
		}
	}
	return c, nil
}
