package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a plain view/projection pair rendered into one shadow layer.
type Camera struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

func NewCamera() Camera {
	return Camera{View: mgl32.Ident4(), Projection: mgl32.Ident4()}
}

func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection.Mul4(c.View)
}

// SetPerspective takes the vertical field of view in degrees.
func (c *Camera) SetPerspective(fovDeg, aspect, near, far float32) {
	c.Projection = mgl32.Perspective(mgl32.DegToRad(fovDeg), aspect, near, far)
}

func (c *Camera) SetOrthographic(left, right, bottom, top, near, far float32) {
	c.Projection = mgl32.Ortho(left, right, bottom, top, near, far)
}

// Frustum returns the camera's six clip planes.
func (c *Camera) Frustum() [6]mgl32.Vec4 {
	return ExtractFrustum(c.ViewProjection())
}

// Cube faces in the order +X, -X, +Y, -Y, +Z, -Z. The up vectors follow the
// cube-map convention so adjacent faces share edges.
var (
	CubeFaceDirections = [6]mgl32.Vec3{
		{1, 0, 0},
		{-1, 0, 0},
		{0, 1, 0},
		{0, -1, 0},
		{0, 0, 1},
		{0, 0, -1},
	}
	CubeFaceUps = [6]mgl32.Vec3{
		{0, -1, 0},
		{0, -1, 0},
		{0, 0, 1},
		{0, 0, -1},
		{0, -1, 0},
		{0, -1, 0},
	}
)

// CubeCamera renders the six faces of one cube-map layer.
type CubeCamera struct {
	Faces  [6]Camera
	Sphere BoundingSphere
}

func NewCubeCamera() CubeCamera {
	var c CubeCamera
	for i := range c.Faces {
		c.Faces[i] = NewCamera()
	}
	return c
}

func (c *CubeCamera) ViewProjections() [6]mgl32.Mat4 {
	var out [6]mgl32.Mat4
	for i := range c.Faces {
		out[i] = c.Faces[i].ViewProjection()
	}
	return out
}

// LookAtRH builds a right-handed view matrix.
func LookAtRH(eye, center, up mgl32.Vec3) mgl32.Mat4 {
	return mgl32.LookAtV(eye, center, up)
}

// StableUp returns an up vector orthogonal to forward. World up (0,1,0) is
// preferred; (1,0,0) is used when forward is nearly parallel to it.
func StableUp(forward mgl32.Vec3) mgl32.Vec3 {
	up := mgl32.Vec3{0, 1, 0}
	right := forward.Cross(up)
	if right.LenSqr() > 1e-6 {
		return right.Cross(forward)
	}
	return mgl32.Vec3{1, 0, 0}
}

// SpotFOVDegrees converts the cosine of a spot light's half-angle into the
// full cone angle in degrees.
func SpotFOVDegrees(cutoffCosine float32) float32 {
	return 2 * float32(math.Acos(float64(clamp(cutoffCosine, -1, 1)))) * (180 / math.Pi)
}

// ExtractFrustum extracts the 6 planes of the frustum from the view-projection matrix.
// Returns planes in order: Left, Right, Bottom, Top, Near, Far.
// Plane is Ax + By + Cz + D = 0.
func ExtractFrustum(vp mgl32.Mat4) [6]mgl32.Vec4 {
	var planes [6]mgl32.Vec4

	row := func(r int) mgl32.Vec4 {
		return mgl32.Vec4{vp.At(r, 0), vp.At(r, 1), vp.At(r, 2), vp.At(r, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	planes[0] = r3.Add(r0) // Left
	planes[1] = r3.Sub(r0) // Right
	planes[2] = r3.Add(r1) // Bottom
	planes[3] = r3.Sub(r1) // Top
	planes[4] = r3.Add(r2) // Near (OpenGL-style -1..1)
	planes[5] = r3.Sub(r2) // Far

	for i := 0; i < 6; i++ {
		length := float32(math.Sqrt(float64(planes[i][0]*planes[i][0] + planes[i][1]*planes[i][1] + planes[i][2]*planes[i][2])))
		if length > 0 {
			planes[i] = planes[i].Mul(1.0 / length)
		}
	}

	return planes
}

// AABBInFrustum checks if an AABB is visible within the frustum defined by 6 planes.
// Planes are expected to be in Ax+By+Cz+D=0 form, with the normal pointing INSIDE.
func AABBInFrustum(box AABB, planes [6]mgl32.Vec4) bool {
	for i := 0; i < 6; i++ {
		plane := planes[i]
		// Most-inside corner; if even that is behind the plane the box is out.
		var p mgl32.Vec3
		for axis := 0; axis < 3; axis++ {
			if plane[axis] > 0 {
				p[axis] = box.Max[axis]
			} else {
				p[axis] = box.Min[axis]
			}
		}

		dist := plane[0]*p[0] + plane[1]*p[1] + plane[2]*p[2] + plane[3]
		if dist < 0 {
			return false
		}
	}
	return true
}
