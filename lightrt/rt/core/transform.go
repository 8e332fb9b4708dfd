package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a scene object's pose. Lights read their world position from
// it and, optionally, their direction from its rotation.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

func NewTransform() *Transform {
	return &Transform{Rotation: mgl32.QuatIdent()}
}

func (t *Transform) SetPosition(p mgl32.Vec3) { t.Position = p }

func (t *Transform) SetRotation(q mgl32.Quat) { t.Rotation = q }

func (t *Transform) WorldPosition() mgl32.Vec3 {
	return t.Position
}

// Forward is the rotated -Z axis.
func (t *Transform) Forward() mgl32.Vec3 {
	return t.Rotation.Rotate(mgl32.Vec3{0, 0, -1})
}
