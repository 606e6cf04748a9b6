package hair

import (
	"math"
	"math/rand"
	"testing"

	glm "github.com/go-gl/mathgl/mgl32"
)

func TestKajiyaKayDiffuseOnly(t *testing.T) {
	diffuse := glm.Vec3{0.32, 0.228, 0.128}
	specular := glm.Vec3{1, 1, 1}

	// Light orthogonal to the fiber, eye along it: full diffuse and
	// a dead specular cone.
	got := KajiyaKay(diffuse, specular, 50,
		glm.Vec3{0, 0, 1}, glm.Vec3{0, 1, 0}, glm.Vec3{0, 0, 1})
	if got != diffuse {
		t.Errorf("shaded color %v, want the plain diffuse %v", got, diffuse)
	}
}

func TestKajiyaKaySpecularPeak(t *testing.T) {
	diffuse := glm.Vec3{0.32, 0.228, 0.128}
	specular := glm.Vec3{0.5, 0.25, 0.125}

	// Tangent, light and eye all aligned: no diffuse, the specular
	// lobe at its peak.
	got := KajiyaKay(diffuse, specular, 50,
		glm.Vec3{0, 0, 1}, glm.Vec3{0, 0, 1}, glm.Vec3{0, 0, 1})
	if got != specular {
		t.Errorf("shaded color %v, want the full specular %v", got, specular)
	}
}

func TestKajiyaKayStaysBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	unit := func() glm.Vec3 {
		for {
			v := glm.Vec3{
				rng.Float32()*2 - 1,
				rng.Float32()*2 - 1,
				rng.Float32()*2 - 1,
			}
			if v.Len() > 0.1 {
				return v.Normalize()
			}
		}
	}

	diffuse := glm.Vec3{0.32, 0.228, 0.128}
	specular := glm.Vec3{1, 1, 1}
	for i := 0; i < 1000; i++ {
		got := KajiyaKay(diffuse, specular, 50, unit(), unit(), unit())
		for axis := 0; axis < 3; axis++ {
			if math.IsNaN(float64(got[axis])) {
				t.Fatalf("sample %d came out NaN: %v", i, got)
			}
			if got[axis] < 0 || got[axis] > diffuse[axis]+specular[axis]+1e-5 {
				t.Fatalf("sample %d out of range: %v", i, got)
			}
		}
	}
}

func TestKajiyaKaySurvivesDenormalizedInputs(t *testing.T) {
	// A dot product a hair above one must clamp instead of taking
	// the square root of a negative number.
	tangent := glm.Vec3{0, 0, 1.0000002}
	got := KajiyaKay(glm.Vec3{1, 1, 1}, glm.Vec3{1, 1, 1}, 50,
		tangent, glm.Vec3{0, 0, 1}, glm.Vec3{0, 0, 1})
	for axis := 0; axis < 3; axis++ {
		if math.IsNaN(float64(got[axis])) {
			t.Fatalf("denormalized tangent shaded to NaN: %v", got)
		}
	}
}
