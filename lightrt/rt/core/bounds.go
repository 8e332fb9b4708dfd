package core

import "github.com/go-gl/mathgl/mgl32"

// AABB is an axis-aligned box. An AABB with Min > Max on any axis is empty.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyAABB returns a box that any point or box extends.
func EmptyAABB() AABB {
	inf := float32(1e30)
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

func AABBFromPoints(points ...mgl32.Vec3) AABB {
	b := EmptyAABB()
	for _, p := range points {
		b = b.ExtendPoint(p)
	}
	return b
}

func (b AABB) Empty() bool {
	return b.Min.X() > b.Max.X() || b.Min.Y() > b.Max.Y() || b.Min.Z() > b.Max.Z()
}

func (b AABB) ExtendPoint(p mgl32.Vec3) AABB {
	return AABB{
		Min: mgl32.Vec3{min(b.Min.X(), p.X()), min(b.Min.Y(), p.Y()), min(b.Min.Z(), p.Z())},
		Max: mgl32.Vec3{max(b.Max.X(), p.X()), max(b.Max.Y(), p.Y()), max(b.Max.Z(), p.Z())},
	}
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(o AABB) AABB {
	if o.Empty() {
		return b
	}
	if b.Empty() {
		return o
	}
	return b.ExtendPoint(o.Min).ExtendPoint(o.Max)
}

func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) Dimensions() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Corners returns the 8 corners, x varying fastest.
func (b AABB) Corners() [8]mgl32.Vec3 {
	return [8]mgl32.Vec3{
		{b.Min.X(), b.Min.Y(), b.Min.Z()},
		{b.Max.X(), b.Min.Y(), b.Min.Z()},
		{b.Min.X(), b.Max.Y(), b.Min.Z()},
		{b.Max.X(), b.Max.Y(), b.Min.Z()},
		{b.Min.X(), b.Min.Y(), b.Max.Z()},
		{b.Max.X(), b.Min.Y(), b.Max.Z()},
		{b.Min.X(), b.Max.Y(), b.Max.Z()},
		{b.Max.X(), b.Max.Y(), b.Max.Z()},
	}
}

// Transform returns the box enclosing the 8 transformed corners.
func (b AABB) Transform(m mgl32.Mat4) AABB {
	out := EmptyAABB()
	for _, c := range b.Corners() {
		out = out.ExtendPoint(m.Mul4x1(c.Vec4(1)).Vec3())
	}
	return out
}

// FrustumBounds returns the world-space box around a camera frustum, given
// the camera's projection * view matrix (OpenGL clip space).
func FrustumBounds(viewProj mgl32.Mat4) AABB {
	inv := viewProj.Inv()
	ndc := AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}

	out := EmptyAABB()
	for _, c := range ndc.Corners() {
		w := inv.Mul4x1(c.Vec4(1))
		if w.W() == 0 {
			continue
		}
		out = out.ExtendPoint(w.Vec3().Mul(1 / w.W()))
	}
	return out
}

// VisibleFrustumBounds unions the frustum boxes of every active camera.
func VisibleFrustumBounds(viewProjs ...mgl32.Mat4) AABB {
	out := EmptyAABB()
	for _, vp := range viewProjs {
		out = out.Union(FrustumBounds(vp))
	}
	return out
}
