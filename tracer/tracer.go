// Copyright (c) 2019 strandlab
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package tracer implements the CPU ray tracing backend: curve
// geometries collected into a scene, intersected through a bounding
// volume hierarchy built on commit.
package tracer

import (
	"math"

	glm "github.com/go-gl/mathgl/mgl32"
)

// GeometryID identifies a geometry attached to a Scene.
type GeometryID uint32

// InvalidGeometry marks a missing or detached geometry.
const InvalidGeometry = GeometryID(math.MaxUint32)

// Ray is a parametric ray with an active range [TNear, TFar].
// Direction is expected to be normalized so hit distances come out
// in world units.
type Ray struct {
	Origin    glm.Vec3
	Direction glm.Vec3
	TNear     float32
	TFar      float32
}

// NewRay spans a ray from origin along direction, active from tnear
// onward.
func NewRay(origin, direction glm.Vec3, tnear float32) Ray {
	return Ray{
		Origin:    origin,
		Direction: direction,
		TNear:     tnear,
		TFar:      math.MaxFloat32,
	}
}

// At resolves the ray position at parameter t.
func (r Ray) At(t float32) glm.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Hit describes the closest intersection found for a ray.
type Hit struct {
	// Geometry and Primitive name what was struck.
	Geometry  GeometryID
	Primitive uint32

	// Distance is the ray parameter of the hit.
	Distance float32

	// U runs along the primitive, V across it. Flat curves always
	// report a zero V.
	U, V float32
}

// Geometry is anything a Scene can hold and intersect.
type Geometry interface {
	// Count reports the number of primitives.
	Count() int

	// Bounds returns the axis aligned bounding box of primitive i.
	Bounds(i int) (min, max glm.Vec3)

	// Intersect tests primitive i against the ray, reporting the hit
	// parameters when one lands inside the ray's active range.
	Intersect(i int, ray Ray) (t, u, v float32, ok bool)

	// Interpolate evaluates an attribute channel at the parametric
	// position (u, v) of primitive i.
	Interpolate(i int, u, v float32, channel int) glm.Vec3
}

func vecMin(a, b glm.Vec3) glm.Vec3 {
	for i := 0; i < 3; i++ {
		if b[i] < a[i] {
			a[i] = b[i]
		}
	}
	return a
}

func vecMax(a, b glm.Vec3) glm.Vec3 {
	for i := 0; i < 3; i++ {
		if b[i] > a[i] {
			a[i] = b[i]
		}
	}
	return a
}
