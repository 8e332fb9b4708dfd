package lighting

import (
	"fmt"

	"github.com/gekko3d/lumen/lightrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type ShadowMapState int

const (
	ShadowMapUninitialized ShadowMapState = iota
	ShadowMapActive
)

type CameraKind int

const (
	CameraKindPlain CameraKind = iota
	CameraKindCube
)

const (
	spotNearClip  float32 = 0.01
	pointNearClip float32 = 1.0
	pointFOVDeg   float32 = 90.0

	// Keeps ortho and perspective projections invertible for degenerate
	// inputs such as flat scene bounds or a zero cone angle.
	minExtent  float32 = 1e-3
	minFOVDeg  float32 = 0.1
	maxFOVDeg  float32 = 179.0
	eyeBackoff float32 = 1.0
)

// ShadowCamera is either a single camera (directional, spot) or a six-face
// cube camera (point), selected by Kind.
type ShadowCamera struct {
	Kind  CameraKind
	Plain core.Camera
	Cube  core.CubeCamera
}

func newShadowCamera(t core.LightType) ShadowCamera {
	if t == core.LightTypePoint {
		return ShadowCamera{Kind: CameraKindCube, Cube: core.NewCubeCamera()}
	}
	return ShadowCamera{Kind: CameraKindPlain, Plain: core.NewCamera()}
}

// ShadowMap derives the camera a shadow-casting light renders its depth
// layer from. It is owned by one light component and registered with
// LightingSettings under its ID.
type ShadowMap struct {
	id        uuid.UUID
	lightType core.LightType
	state     ShadowMapState
	camera    ShadowCamera

	// Absolute slot in the shadow-slot table and the layer within the
	// light type's texture. Both -1 until registered.
	slot  int
	layer int
}

// NewShadowMap panics with ErrUnknownLightType for types outside the closed set.
func NewShadowMap(lightType core.LightType) *ShadowMap {
	mustKnowType(lightType)
	return &ShadowMap{
		id:        uuid.New(),
		lightType: lightType,
		camera:    newShadowCamera(lightType),
		slot:      -1,
		layer:     core.NoShadowMap,
	}
}

func (m *ShadowMap) ID() uuid.UUID             { return m.id }
func (m *ShadowMap) LightType() core.LightType { return m.lightType }
func (m *ShadowMap) State() ShadowMapState     { return m.state }
func (m *ShadowMap) Camera() *ShadowCamera     { return &m.camera }
func (m *ShadowMap) Slot() int                 { return m.slot }
func (m *ShadowMap) Layer() int                { return m.layer }
func (m *ShadowMap) Registered() bool          { return m.slot >= 0 }

// Reinitialize switches the camera kind for a new light type. The map must
// be re-registered and re-derived afterwards.
func (m *ShadowMap) Reinitialize(lightType core.LightType) {
	mustKnowType(lightType)
	m.lightType = lightType
	m.camera = newShadowCamera(lightType)
	m.state = ShadowMapUninitialized
}

// UpdateShadowAttributes recomputes the light-space camera from the light and
// the visible scene bounds, and writes the result into info. Directional
// lights need non-empty bounds; with empty bounds they keep their previous
// matrix.
func (m *ShadowMap) UpdateShadowAttributes(light *core.Light, bounds core.AABB, info *core.ShadowInfo) {
	if light.Type() != m.lightType {
		m.Reinitialize(light.Type())
	}

	switch m.lightType {
	case core.LightTypeDirectional:
		if bounds.Empty() {
			return
		}
		m.deriveDirectional(light, bounds, info)
	case core.LightTypeSpot:
		m.deriveSpot(light, info)
	case core.LightTypePoint:
		m.derivePoint(light, info)
	default:
		panic(fmt.Errorf("%w: %d", ErrUnknownLightType, int32(m.lightType)))
	}
	m.state = ShadowMapActive
}

func (m *ShadowMap) deriveDirectional(light *core.Light, bounds core.AABB, info *core.ShadowInfo) {
	dir := lightForward(light)
	center := bounds.Center()

	// Back the eye off along the light so the whole box sits in front of it.
	backoff := bounds.Dimensions().Len() / 2
	if backoff < eyeBackoff {
		backoff = eyeBackoff
	}
	eye := center.Sub(dir.Mul(backoff))

	up := mgl32.Vec3{0, 1, 0}
	if dir.Cross(up).LenSqr() < 1e-6 {
		up = mgl32.Vec3{1, 0, 0}
	}
	view := core.LookAtRH(eye, center, up)

	viewBox := bounds.Transform(view)
	lo, hi := viewBox.Min, viewBox.Max
	for i := 0; i < 3; i++ {
		if hi[i]-lo[i] < minExtent {
			lo[i] -= minExtent
			hi[i] += minExtent
		}
	}

	// View space looks down -Z, so the nearest corner has the largest z.
	cam := &m.camera.Plain
	cam.View = view
	cam.SetOrthographic(lo.X(), hi.X(), lo.Y(), hi.Y(), -hi.Z(), -lo.Z())
	info.SetLightMatrix(cam.ViewProjection())
}

func (m *ShadowMap) deriveSpot(light *core.Light, info *core.ShadowInfo) {
	pos := light.Position.Vec3()
	dir := lightForward(light)

	fov := core.SpotFOVDegrees(light.CutoffCosine())
	if fov < minFOVDeg {
		fov = minFOVDeg
	} else if fov > maxFOVDeg {
		fov = maxFOVDeg
	}

	cam := &m.camera.Plain
	cam.View = core.LookAtRH(pos, pos.Add(dir), core.StableUp(dir))
	cam.SetPerspective(fov, 1, spotNearClip, farClip(light, spotNearClip))
	info.SetLightMatrix(cam.ViewProjection())
}

func (m *ShadowMap) derivePoint(light *core.Light, info *core.ShadowInfo) {
	pos := light.Position.Vec3()
	far := farClip(light, pointNearClip)

	cube := &m.camera.Cube
	for i := range cube.Faces {
		face := &cube.Faces[i]
		face.View = core.LookAtRH(pos, pos.Add(core.CubeFaceDirections[i]), core.CubeFaceUps[i])
		face.SetPerspective(pointFOVDeg, 1, pointNearClip, far)
	}
	cube.Sphere = core.BoundingSphere{Origin: pos, Radius: far}

	// The near-clip override in the matrix slot is left as configured.
	info.SetFarClipPlane(cube.Sphere.Radius)
}

// Frustums returns the clip planes of every face the map renders: one for
// directional and spot lights, six for point lights.
func (m *ShadowMap) Frustums() [][6]mgl32.Vec4 {
	if m.camera.Kind == CameraKindCube {
		out := make([][6]mgl32.Vec4, len(m.camera.Cube.Faces))
		for i := range m.camera.Cube.Faces {
			out[i] = m.camera.Cube.Faces[i].Frustum()
		}
		return out
	}
	return [][6]mgl32.Vec4{m.camera.Plain.Frustum()}
}

// AffectsBox reports whether a caster inside box can land in this shadow map.
// Point lights test against their bounding sphere.
func (m *ShadowMap) AffectsBox(box core.AABB) bool {
	if m.state != ShadowMapActive {
		return false
	}
	if m.camera.Kind == CameraKindCube {
		return m.camera.Cube.Sphere.IntersectsAABB(box)
	}
	return core.AABBInFrustum(box, m.camera.Plain.Frustum())
}

// PointViewProjections returns the six face matrices of a point shadow.
func (m *ShadowMap) PointViewProjections() [6]mgl32.Mat4 {
	return m.camera.Cube.ViewProjections()
}

func (m *ShadowMap) BoundingSphere() core.BoundingSphere {
	return m.camera.Cube.Sphere
}

func lightForward(light *core.Light) mgl32.Vec3 {
	dir := light.DirectionVec3()
	if dir.LenSqr() == 0 {
		return mgl32.Vec3{0, -1, 0}
	}
	return dir.Normalize()
}

// farClip is the light range, unless that would not lie past near.
func farClip(light *core.Light, near float32) float32 {
	if r := light.Range(); r > near {
		return r
	}
	return core.DefaultLightRange
}

func mustKnowType(t core.LightType) {
	if !t.Valid() {
		panic(fmt.Errorf("%w: %d", ErrUnknownLightType, int32(t)))
	}
}
