package hair

import (
	"math"

	glm "github.com/go-gl/mathgl/mgl32"
)

// Shading groups the Kajiya-Kay parameters of a fiber.
type Shading struct {
	// Albedo is the base fiber color.
	Albedo glm.Vec3

	// Shininess is the specular exponent.
	Shininess float32
}

// DefaultShading renders a plain dark blonde fiber.
func DefaultShading() Shading {
	return Shading{
		Albedo:    glm.Vec3{0.32, 0.228, 0.128},
		Shininess: 50,
	}
}

// KajiyaKay resolves the classic hair reflectance for a fiber
// tangent, light direction and eye direction. The diffuse term
// scales with the sine between tangent and light, the specular lobe
// peaks where the reflected cone lines up with the eye. Dot products
// are clamped to the unit range so slightly denormalized inputs
// cannot take the square roots negative.
func KajiyaKay(diffuse, specular glm.Vec3, p float32, tangent, light, eye glm.Vec3) glm.Vec3 {
	cosTL := glm.Clamp(tangent.Dot(light), -1, 1)
	sinTL := float32(math.Sqrt(float64(1 - cosTL*cosTL)))

	cosTE := glm.Clamp(tangent.Dot(eye), -1, 1)
	sinTE := float32(math.Sqrt(float64(1 - cosTE*cosTE)))

	result := diffuse.Mul(sinTL)
	if highlight := cosTL*cosTE + sinTL*sinTE; highlight > 0 {
		glow := glm.Clamp(float32(math.Pow(float64(highlight), float64(p))), 0, 1)
		result = result.Add(specular.Mul(glow))
	}
	return result
}
