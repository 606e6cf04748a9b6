package scene

import (
	glm "github.com/go-gl/mathgl/mgl32"
)

// Light is a single scene light. A directional light keeps its
// direction in Vector with a zero w component, a point light keeps
// its position with w set to one. Keeping the homogeneous form means
// a view matrix transforms either kind correctly.
type Light struct {
	Vector    glm.Vec4
	Intensity glm.Vec3
}

// NewDirectionalLight builds a light shining along the given
// direction, which does not need to be normalized.
func NewDirectionalLight(direction, intensity glm.Vec3) Light {
	return Light{
		Vector:    direction.Normalize().Vec4(0),
		Intensity: intensity,
	}
}

// NewPointLight builds a light radiating from a position in world
// space.
func NewPointLight(position, intensity glm.Vec3) Light {
	return Light{
		Vector:    position.Vec4(1),
		Intensity: intensity,
	}
}

// Directional reports whether the light is a direction rather than a
// position.
func (l Light) Directional() bool {
	return l.Vector.W() == 0
}
