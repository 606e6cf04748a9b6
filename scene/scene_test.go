package scene

import (
	"testing"

	glm "github.com/go-gl/mathgl/mgl32"
)

func TestViewMatrixLooksDownNegativeZ(t *testing.T) {
	cam := NewCamera(glm.Vec3{0, 0, -2}, glm.Vec3{0, 0, 0}, 45, 1)
	eye := cam.ViewMatrix().Mul4x1(glm.Vec4{0, 0, 0, 1})
	want := glm.Vec4{0, 0, -2, 1}
	if !eye.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("look-at point maps to %v, want %v", eye, want)
	}
}

func TestProjectionMatrixKeepsGLConvention(t *testing.T) {
	cam := NewCamera(glm.Vec3{0, 0, -2}, glm.Vec3{0, 0, 0}, 45, 16.0/9.0)
	proj := cam.ProjectionMatrix()
	if proj[5] <= 0 {
		t.Errorf("Y scale is %f, want positive before any Vulkan flip", proj[5])
	}
	if proj[0] >= proj[5] {
		t.Errorf("X scale %f not reduced by aspect ratio against Y scale %f", proj[0], proj[5])
	}
}

func TestOrbitPreservesDistance(t *testing.T) {
	cam := NewCamera(glm.Vec3{0, 0, -2}, glm.Vec3{0, 0, 0}, 45, 1)
	cam.Orbit(glm.DegToRad(90), 0)
	if !cam.Position.ApproxEqualThreshold(glm.Vec3{-2, 0, 0}, 1e-5) {
		t.Errorf("quarter yaw moved camera to %v, want (-2, 0, 0)", cam.Position)
	}
	cam.Orbit(glm.DegToRad(33), glm.DegToRad(21))
	if d := cam.Distance(); d < 1.99999 || d > 2.00001 {
		t.Errorf("orbit changed camera distance to %f, want 2", d)
	}
}

func TestLightVectors(t *testing.T) {
	dir := NewDirectionalLight(glm.Vec3{0, 2, 0}, glm.Vec3{1, 1, 1})
	if dir.Vector.W() != 0 || !dir.Directional() {
		t.Errorf("directional light has w = %f, want 0", dir.Vector.W())
	}
	if !dir.Vector.Vec3().ApproxEqualThreshold(glm.Vec3{0, 1, 0}, 1e-6) {
		t.Errorf("directional light direction %v not normalized", dir.Vector.Vec3())
	}

	point := NewPointLight(glm.Vec3{1, 2, 3}, glm.Vec3{1, 1, 1})
	if point.Vector.W() != 1 || point.Directional() {
		t.Errorf("point light has w = %f, want 1", point.Vector.W())
	}
}
