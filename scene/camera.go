// Package scene holds the shared world state both render paths draw
// from: the viewing camera and the light rig.
package scene

import (
	glm "github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective pinhole camera. Both render paths derive
// their transforms from the same instance, so switching between them
// keeps the viewpoint.
type Camera struct {
	Position glm.Vec3
	LookAt   glm.Vec3
	Up       glm.Vec3

	// FieldOfView is the vertical field of view in degrees.
	FieldOfView float32
	AspectRatio float32
	Near, Far   float32
}

// NewCamera places a camera at position, aimed at lookAt, with the
// given vertical field of view in degrees.
func NewCamera(position, lookAt glm.Vec3, fieldOfView, aspectRatio float32) *Camera {
	return &Camera{
		Position:    position,
		LookAt:      lookAt,
		Up:          glm.Vec3{0, 1, 0},
		FieldOfView: fieldOfView,
		AspectRatio: aspectRatio,
		Near:        0.1,
		Far:         1000,
	}
}

// ViewMatrix builds the world to eye space transform.
func (c *Camera) ViewMatrix() glm.Mat4 {
	return glm.LookAtV(c.Position, c.LookAt, c.Up)
}

// ProjectionMatrix builds the perspective projection. The matrix
// follows the OpenGL clip space convention, renderers that need the
// Vulkan convention flip the Y scale themselves.
func (c *Camera) ProjectionMatrix() glm.Mat4 {
	return glm.Perspective(glm.DegToRad(c.FieldOfView), c.AspectRatio, c.Near, c.Far)
}

// Orbit swings the camera around its look-at point, yaw about the up
// axis and pitch about the camera's right axis, both in radians.
func (c *Camera) Orbit(yaw, pitch float32) {
	offset := c.Position.Sub(c.LookAt)
	right := offset.Cross(c.Up)
	if right.Len() < 1e-6 {
		right = glm.Vec3{1, 0, 0}
	}
	rot := glm.HomogRotate3D(yaw, c.Up).Mul4(glm.HomogRotate3D(pitch, right.Normalize()))
	c.Position = c.LookAt.Add(rot.Mul4x1(offset.Vec4(0)).Vec3())
}

// Distance reports how far the camera sits from its look-at point.
func (c *Camera) Distance() float32 {
	return c.Position.Sub(c.LookAt).Len()
}
